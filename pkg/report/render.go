package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Title is the first line of every rendered report.
const Title = "PROCESS REPORT:"

var columns = []interface{}{"proc_id", "proc_name", "contig_pages", "noncontig_pages", "total_pages"}

// Lines returns the report as individual lines without trailing newlines. A
// nil store renders as an empty table with zero totals.
func Lines(s *Store) []string {
	lines := make([]string, 0, s.Len()+4)
	lines = append(lines,
		Title,
		fmt.Sprintf("%8s, %20s, %15s, %15s, %15s", columns...),
		"",
	)
	for _, rec := range s.Records() {
		lines = append(lines, fmt.Sprintf("%8d,%20s,%15d,%15d,%15d",
			rec.PID, rec.Comm, rec.ContigPages, rec.NonContigPages, rec.TotalPages()))
	}
	lines = append(lines, fmt.Sprintf("TOTALS,,%d,%d,%d", s.TotalContig(), s.TotalNonContig(), s.TotalPages()))
	return lines
}

// Render returns the fixed-width report text served by every sink.
func Render(s *Store) string {
	return strings.Join(Lines(s), "\n") + "\n"
}

// WriteTo writes the fixed-width report to w.
func WriteTo(w io.Writer, s *Store) (int64, error) {
	n, err := io.WriteString(w, Render(s))
	return int64(n), err
}

// RenderTable writes a console table of the store to w. The footer carries the
// totals and the amount of memory the resident pages add up to.
func RenderTable(w io.Writer, s *Store, pageSize uint64) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row(columns))

	for _, rec := range s.Records() {
		t.AppendRow(table.Row{rec.PID, rec.Comm, rec.ContigPages, rec.NonContigPages, rec.TotalPages()})
	}

	resident := humanize.IBytes(uint64(s.TotalPages()) * pageSize)
	t.AppendFooter(table.Row{"TOTALS", resident, s.TotalContig(), s.TotalNonContig(), s.TotalPages()})
	t.Render()
}
