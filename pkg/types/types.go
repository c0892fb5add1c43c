package types

import "github.com/srodi/procreport/pkg/pagetable"

// DefaultThreshold is the PID a process must exceed to be included in a report.
const DefaultThreshold = 650

// Region is one virtual memory area of a process. End is exclusive.
type Region struct {
	Start uint64
	End   uint64
	Perms string
	Path  string
}

// AddressSpace exposes the memory layout and page tables of one process.
type AddressSpace interface {
	pagetable.Tables
	// Regions returns the memory regions in the order the system lists them.
	Regions() ([]Region, error)
	Close() error
}

// Process is one entry of a process listing. Space is nil for processes
// without a user address space, such as kernel threads.
type Process struct {
	PID   int
	Comm  string
	Space AddressSpace
}
