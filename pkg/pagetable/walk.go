package pagetable

// Tables gives access to the page tables of one address space.
type Tables interface {
	// Lookup returns the entry that covers virtAddr at the given level. ok is
	// false when no table or entry exists at that level for the address.
	Lookup(level Level, virtAddr uint64) (entry Entry, ok bool)
}

// pageTableWalker is a function that can be passed to walk. It receives the
// current level and the entry found there. If it returns false the walk is
// aborted.
type pageTableWalker func(level Level, entry Entry) bool

// walk performs a page table walk for virtAddr, calling walkFn with the entry
// found at each level. The walk stops early when a level has no entry or when
// walkFn returns false.
func walk(t Tables, virtAddr uint64, walkFn pageTableWalker) {
	for level := Top; level < pageLevels; level++ {
		entry, ok := t.Lookup(level, virtAddr)
		if !ok {
			return
		}
		if !walkFn(level, entry) {
			return
		}
	}
}
