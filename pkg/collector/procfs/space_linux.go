//go:build linux
// +build linux

package procfs

import (
	"encoding/binary"
	"expvar"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/srodi/procreport/pkg/pagetable"
	"github.com/srodi/procreport/pkg/types"
)

var pagemapReadErrors = expvar.NewInt("procfs.pagemap.read.errors")

const (
	pagemapEntrySize = 8
	// pagemapChunk is the number of entries fetched by a single read.
	pagemapChunk = 512
)

// directoryEntry stands in for the directory levels pagemap does not expose.
var directoryEntry = pagetable.NewEntry(0, pagetable.FlagPresent|pagetable.FlagRW|pagetable.FlagUser)

// addressSpace reads the regions of a process from /proc/PID/maps and its
// leaf page table entries from /proc/PID/pagemap. Pagemap only describes the
// final level, so the directory levels are always reported as present.
type addressSpace struct {
	dir       string
	pageShift uint
	pagemap   *os.File
	openErr   error

	buf        []byte
	chunkStart uint64
	chunkLen   int
}

func newAddressSpace(root string, pid int) *addressSpace {
	pageSize := unix.Getpagesize()
	shift := uint(0)
	for (1 << shift) < pageSize {
		shift++
	}
	return &addressSpace{
		dir:       filepath.Join(root, strconv.Itoa(pid)),
		pageShift: shift,
		buf:       make([]byte, pagemapChunk*pagemapEntrySize),
		chunkLen:  -1,
	}
}

// Regions implements types.AddressSpace.
func (a *addressSpace) Regions() ([]types.Region, error) {
	f, err := os.Open(filepath.Join(a.dir, "maps"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseMaps(f)
}

// Lookup implements pagetable.Tables.
func (a *addressSpace) Lookup(level pagetable.Level, virtAddr uint64) (pagetable.Entry, bool) {
	if level != pagetable.Leaf {
		return directoryEntry, true
	}
	raw, ok := a.readEntry(virtAddr >> a.pageShift)
	if !ok {
		return 0, false
	}
	phys, present := decodePagemap(raw, a.pageShift)
	if !present {
		return 0, true
	}
	return pagetable.NewEntry(phys, pagetable.FlagPresent|pagetable.FlagUser), true
}

// readEntry returns the raw pagemap entry of a virtual page number, reading
// pagemap in chunks so consecutive pages cost a single syscall.
func (a *addressSpace) readEntry(vpn uint64) (uint64, bool) {
	if a.pagemap == nil {
		if a.openErr != nil {
			return 0, false
		}
		a.pagemap, a.openErr = os.Open(filepath.Join(a.dir, "pagemap"))
		if a.openErr != nil {
			pagemapReadErrors.Add(1)
			return 0, false
		}
	}

	start := vpn - vpn%pagemapChunk
	if a.chunkLen < 0 || start != a.chunkStart {
		n, err := unix.Pread(int(a.pagemap.Fd()), a.buf, int64(start*pagemapEntrySize))
		if err != nil {
			pagemapReadErrors.Add(1)
			a.chunkLen = -1
			return 0, false
		}
		a.chunkStart = start
		a.chunkLen = n / pagemapEntrySize
	}

	idx := int(vpn - a.chunkStart)
	if idx >= a.chunkLen {
		return 0, false
	}
	off := idx * pagemapEntrySize
	return binary.LittleEndian.Uint64(a.buf[off : off+pagemapEntrySize]), true
}

// Close implements types.AddressSpace.
func (a *addressSpace) Close() error {
	if a.pagemap == nil {
		return nil
	}
	err := a.pagemap.Close()
	a.pagemap = nil
	a.chunkLen = -1
	return err
}
