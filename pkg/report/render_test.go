package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = " proc_id,            proc_name,    contig_pages, noncontig_pages,     total_pages"

func sampleStore() *Store {
	s := NewStore()
	s.Append(ProcessRecord{PID: 700, Comm: "bash", ContigPages: 2, NonContigPages: 1})
	s.Append(ProcessRecord{PID: 812, Comm: "sshd", ContigPages: 1, NonContigPages: 2})
	return s
}

func TestRenderFormat(t *testing.T) {
	exp := strings.Join([]string{
		"PROCESS REPORT:",
		header,
		"",
		"     700,                bash,              2,              1,              3",
		"     812,                sshd,              1,              2,              3",
		"TOTALS,,3,3,6",
	}, "\n") + "\n"

	assert.Equal(t, exp, Render(sampleStore()))
}

func TestRenderEmptyStore(t *testing.T) {
	exp := "PROCESS REPORT:\n" + header + "\n\nTOTALS,,0,0,0\n"
	assert.Equal(t, exp, Render(nil))
	assert.Equal(t, exp, Render(NewStore()))
}

func TestRenderIsIdempotent(t *testing.T) {
	s := sampleStore()
	first := Render(s)
	second := Render(s)
	assert.Equal(t, first, second)

	var buf bytes.Buffer
	n, err := WriteTo(&buf, s)
	require.NoError(t, err)
	assert.Equal(t, int64(len(first)), n)
	assert.Equal(t, first, buf.String())
}

func TestLinesMatchRender(t *testing.T) {
	s := sampleStore()
	lines := Lines(s)
	require.Len(t, lines, 6)
	assert.Equal(t, Title, lines[0])
	assert.Equal(t, "TOTALS,,3,3,6", lines[len(lines)-1])
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, sampleStore(), 4096)

	out := buf.String()
	for _, want := range []string{"PROC_ID", "bash", "sshd", "TOTALS", "24 KiB"} {
		assert.Contains(t, out, want)
	}
}
