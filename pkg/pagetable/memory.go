package pagetable

// directoryFlags are the flags set on directory entries created by Map.
const directoryFlags = FlagPresent | FlagRW | FlagUser

// table is one sparse page table. Directory tables link each populated slot to
// the table of the next level.
type table struct {
	entries map[uint64]Entry
	next    map[uint64]*table
}

func newTable() *table {
	return &table{entries: make(map[uint64]Entry), next: make(map[uint64]*table)}
}

// Memory is an in-memory four-level page table. A lookup descends from the
// top-level table using the index each level extracts from the virtual
// address, so a level only has an entry once a mapping below it was installed.
type Memory struct {
	root *table
}

// NewMemory returns an empty set of page tables.
func NewMemory() *Memory {
	return &Memory{root: newTable()}
}

// Map installs a leaf mapping from the page containing virtAddr to the frame
// containing physAddr, creating present directory entries on the way down.
// Existing directory entries are left untouched.
func (m *Memory) Map(virtAddr, physAddr uint64, flags Flag) {
	t := m.root
	for level := Top; level < Leaf; level++ {
		idx := Index(level, virtAddr)
		if _, ok := t.entries[idx]; !ok {
			t.entries[idx] = NewEntry(0, directoryFlags)
		}
		next, ok := t.next[idx]
		if !ok {
			next = newTable()
			t.next[idx] = next
		}
		t = next
	}
	t.entries[Index(Leaf, virtAddr)] = NewEntry(physAddr, flags|FlagPresent)
}

// SetEntry overwrites the entry covering virtAddr at the given level, creating
// the tables above it when missing.
func (m *Memory) SetEntry(level Level, virtAddr uint64, entry Entry) {
	t := m.root
	for l := Top; l < level; l++ {
		idx := Index(l, virtAddr)
		next, ok := t.next[idx]
		if !ok {
			next = newTable()
			t.next[idx] = next
		}
		t = next
	}
	t.entries[Index(level, virtAddr)] = entry
}

// Unmap removes the entry covering virtAddr at the given level together with
// the tables below it.
func (m *Memory) Unmap(level Level, virtAddr uint64) {
	t := m.tableFor(level, virtAddr)
	if t == nil {
		return
	}
	idx := Index(level, virtAddr)
	delete(t.entries, idx)
	delete(t.next, idx)
}

// Lookup implements Tables.
func (m *Memory) Lookup(level Level, virtAddr uint64) (Entry, bool) {
	if level >= pageLevels {
		return 0, false
	}
	t := m.tableFor(level, virtAddr)
	if t == nil {
		return 0, false
	}
	entry, ok := t.entries[Index(level, virtAddr)]
	return entry, ok
}

// tableFor returns the table holding the entries of the given level for virtAddr.
func (m *Memory) tableFor(level Level, virtAddr uint64) *table {
	t := m.root
	for l := Top; l < level && t != nil; l++ {
		t = t.next[Index(l, virtAddr)]
	}
	return t
}
