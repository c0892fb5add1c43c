package pagetable

// Translate returns the physical frame address backing the page-aligned
// virtAddr. ok is false when the page is not resident: a directory level is
// missing, not present or malformed, the leaf entry is missing or not
// present, or the leaf points at frame zero.
func Translate(t Tables, virtAddr uint64) (physAddr uint64, ok bool) {
	walk(t, virtAddr, func(level Level, entry Entry) bool {
		if !entry.HasFlags(FlagPresent) {
			return false
		}
		if level != Leaf {
			return !entry.Bad()
		}

		physAddr = entry.FrameAddress()
		ok = physAddr != 0
		return false
	})

	if !ok {
		return 0, false
	}
	return physAddr, true
}
