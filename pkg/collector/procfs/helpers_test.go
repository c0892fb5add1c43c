package procfs

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/procreport/pkg/types"
)

func TestCommForPIDHandlesErrorsAndWhitespace(t *testing.T) {
	t.Cleanup(func() { procReadFile = os.ReadFile })

	procReadFile = func(path string) ([]byte, error) {
		switch {
		case strings.Contains(path, "/742/"):
			return []byte("db\n"), nil
		case strings.Contains(path, "/777/"):
			return []byte("   \n"), nil
		}
		return nil, errors.New("missing")
	}

	assert.Equal(t, "db", commForPID("/proc", 742))
	assert.Equal(t, "pid-777", commForPID("/proc", 777), "blank comm should fall back")
	assert.Equal(t, "pid-888", commForPID("/proc", 888), "missing file should fall back")
}

func TestParseStatFlags(t *testing.T) {
	flags, err := parseStatFlags("2 (kthreadd) S 0 0 0 0 -1 2129984 0 0 0 0")
	require.NoError(t, err)
	assert.NotZero(t, flags&pfKthread)

	flags, err = parseStatFlags("1234 (my (odd) app) S 1 1234 1234 0 -1 4194560 120 0 0 0")
	require.NoError(t, err)
	assert.Zero(t, flags&pfKthread)

	_, err = parseStatFlags("1234 (short) S 1")
	assert.Error(t, err)
	_, err = parseStatFlags("garbage")
	assert.Error(t, err)
}

func TestIsKernelThread(t *testing.T) {
	t.Cleanup(func() { procReadFile = os.ReadFile })
	procReadFile = func(path string) ([]byte, error) {
		switch {
		case strings.Contains(path, "/2/"):
			return []byte("2 (kthreadd) S 0 0 0 0 -1 2129984 0 0"), nil
		case strings.Contains(path, "/900/"):
			return []byte("900 (bash) S 1 900 900 34816 900 4194304 0 0"), nil
		}
		return nil, errors.New("missing")
	}

	assert.True(t, isKernelThread("/proc", 2))
	assert.False(t, isKernelThread("/proc", 900))
	assert.False(t, isKernelThread("/proc", 901))
}

func TestParseMaps(t *testing.T) {
	maps := `55d0c8a00000-55d0c8a02000 r--p 00000000 08:01 1234                       /usr/bin/cat
55d0c8a02000-55d0c8a07000 r-xp 00002000 08:01 1234                       /usr/bin/cat

7ffd1c3e0000-7ffd1c401000 rw-p 00000000 00:00 0                          [stack]
7f3a00000000-7f3a00021000 rw-p 00000000 00:00 0 
7f3a10000000-7f3a10001000 r--p 00000000 08:01 99                         /tmp/with space.txt
`
	regions, err := parseMaps(strings.NewReader(maps))
	require.NoError(t, err)
	require.Len(t, regions, 5)

	assert.Equal(t, types.Region{Start: 0x55d0c8a00000, End: 0x55d0c8a02000, Perms: "r--p", Path: "/usr/bin/cat"}, regions[0])
	assert.Equal(t, "[stack]", regions[2].Path)
	assert.Empty(t, regions[3].Path)
	assert.Equal(t, "/tmp/with space.txt", regions[4].Path)
	// native order is kept
	assert.True(t, regions[2].Start > regions[3].Start)
}

func TestParseMapsRejectsMalformedLines(t *testing.T) {
	for _, line := range []string{
		"55d0c8a00000 r--p 00000000 08:01 1234",
		"zz-55d0c8a02000 r--p 00000000 08:01 1234",
		"1000-yy r--p 00000000 08:01 1234",
		"1000-2000 r--p",
	} {
		_, err := parseMaps(strings.NewReader(line))
		assert.Error(t, err, line)
	}
}

func TestDecodePagemap(t *testing.T) {
	cases := []struct {
		name   string
		raw    uint64
		expOK  bool
		expPhy uint64
	}{
		{"present", pagemapPresent | 0x1234, true, 0x1234 << 12},
		{"not present", 0x1234, false, 0},
		{"swapped", pagemapPresent | pagemapSwapped | 0x1234, false, 0},
		{"pfn hidden", pagemapPresent, false, 0},
		{"soft dirty bits ignored", pagemapPresent | 1<<55 | 0x42, true, 0x42 << 12},
	}
	for _, tc := range cases {
		phys, ok := decodePagemap(tc.raw, 12)
		assert.Equal(t, tc.expOK, ok, tc.name)
		assert.Equal(t, tc.expPhy, phys, tc.name)
	}
}
