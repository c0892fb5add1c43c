package pagetable

// Level identifies a page table level, from the top-most directory down to
// the table holding the final page entries.
type Level uint8

const (
	// Top is the page global directory.
	Top Level = iota
	// Upper is the page upper directory.
	Upper
	// Middle is the page middle directory.
	Middle
	// Leaf holds the entries that point to physical page frames.
	Leaf

	pageLevels = 4
)

const (
	// PageShift is the base-2 log of the base page size.
	PageShift = 12
	// PageSize is the base page size in bytes.
	PageSize = uint64(1) << PageShift

	// PhysAddrMask selects the frame address bits of an entry. Physical
	// addresses with bits outside the mask cannot be stored in an entry.
	PhysAddrMask = uint64(0x000ffffffffff000)

	entryBits       = 9
	entriesPerTable = 1 << entryBits

	reservedMask = uint64(0x7ff0000000000000)
)

// levelShifts holds, for every level, the shift that extracts that level's
// table index from a virtual address.
var levelShifts = [pageLevels]uint{39, 30, 21, 12}

var levelNames = [pageLevels]string{"pgd", "pud", "pmd", "pte"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// Flag describes a flag that can be applied to a page table entry.
type Flag uint64

const (
	FlagPresent Flag = 1 << 0
	FlagRW      Flag = 1 << 1
	FlagUser    Flag = 1 << 2
	// FlagHuge marks a directory entry that maps a large page directly instead
	// of pointing at the next table.
	FlagHuge Flag = 1 << 7
)

// Entry is a page table entry. It encodes a physical frame address and a set
// of flags using the x86-64 layout.
type Entry uint64

// NewEntry builds an entry pointing at the frame that contains physAddr.
func NewEntry(physAddr uint64, flags Flag) Entry {
	return Entry((physAddr & PhysAddrMask) | uint64(flags))
}

// HasFlags returns true if this entry has all the input flags set.
func (e Entry) HasFlags(flags Flag) bool {
	return uint64(e)&uint64(flags) == uint64(flags)
}

// FrameAddress returns the physical address of the frame this entry points to.
func (e Entry) FrameAddress() uint64 {
	return uint64(e) & PhysAddrMask
}

// Bad reports whether a directory entry cannot be followed to a next-level
// table: it maps a huge page or has reserved bits set.
func (e Entry) Bad() bool {
	return e.HasFlags(FlagHuge) || uint64(e)&reservedMask != 0
}

// Index returns the table index virtAddr selects at the given level.
func Index(level Level, virtAddr uint64) uint64 {
	return (virtAddr >> levelShifts[level]) & (entriesPerTable - 1)
}
