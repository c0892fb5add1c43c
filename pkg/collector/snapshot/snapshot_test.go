package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/procreport/pkg/pagetable"
)

const doc = `
processes:
  - pid: 1
    comm: systemd
    regions:
      - start: 0x1000
        end: 0x2000
        pages: [0x5000]
  - pid: 2
    comm: kthreadd
    kernel: true
  - pid: 700
    comm: bash
    regions:
      - start: 0x400000
        end: 0x403000
        perms: r-xp
        path: /usr/bin/bash
        pages: [0x19000, 0, 0x1b000]
`

func TestDecodeBuildsAddressSpaces(t *testing.T) {
	src, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	procs, err := src.Processes()
	require.NoError(t, err)
	require.Len(t, procs, 3)

	assert.Equal(t, "kthreadd", procs[1].Comm)
	assert.Nil(t, procs[1].Space)

	bash := procs[2]
	require.NotNil(t, bash.Space)
	regions, err := bash.Space.Regions()
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "/usr/bin/bash", regions[0].Path)

	phys, ok := pagetable.Translate(bash.Space, 0x400000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x19000), phys)

	_, ok = pagetable.Translate(bash.Space, 0x401000)
	assert.False(t, ok)

	phys, ok = pagetable.Translate(bash.Space, 0x402000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x1b000), phys)
	assert.NoError(t, bash.Space.Close())
}

func TestDecodeEmptyDocument(t *testing.T) {
	src, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	procs, err := src.Processes()
	require.NoError(t, err)
	assert.Empty(t, procs)
}

func TestDecodeRejectsInvalidLayouts(t *testing.T) {
	for name, body := range map[string]string{
		"unaligned start":   "processes: [{pid: 700, comm: a, regions: [{start: 0x1001, end: 0x2000}]}]",
		"reversed":          "processes: [{pid: 700, comm: a, regions: [{start: 0x2000, end: 0x1000}]}]",
		"too many pages":    "processes: [{pid: 700, comm: a, regions: [{start: 0x1000, end: 0x2000, pages: [0x1000, 0x2000]}]}]",
		"unaligned frame":   "processes: [{pid: 700, comm: a, regions: [{start: 0x1000, end: 0x2000, pages: [0x1234]}]}]",
		"frame beyond mask": "processes: [{pid: 700, comm: a, regions: [{start: 0x1000, end: 0x2000, pages: [0x10000000000000]}]}]",
		"bad yaml":          "processes: [",
	} {
		_, err := Decode(strings.NewReader(body))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	src, err := Load(path)
	require.NoError(t, err)
	procs, err := src.Processes()
	require.NoError(t, err)
	assert.Len(t, procs, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
