package walker

// Class is the outcome of classifying one resolved physical page.
type Class uint8

const (
	// NonContiguous pages do not directly follow the previously resolved page.
	NonContiguous Class = iota
	// Contiguous pages start exactly one page after the previously resolved page.
	Contiguous
)

func (c Class) String() string {
	if c == Contiguous {
		return "contiguous"
	}
	return "non-contiguous"
}

// Classifier compares every resolved physical address against the one
// resolved before it. The previous address is shared by the whole traversal
// and is never reset between processes or regions, so the first page of a
// process is compared against the last page of the process walked before it.
type Classifier struct {
	pageSize uint64
	prev     uint64
	seen     bool
}

// NewClassifier returns a classifier that has not seen any page yet. The first
// page it classifies is always non-contiguous.
func NewClassifier(pageSize uint64) *Classifier {
	return &Classifier{pageSize: pageSize}
}

// Classify classifies phys and remembers it as the previous address.
func (c *Classifier) Classify(phys uint64) Class {
	class := NonContiguous
	if c.seen && phys == c.prev+c.pageSize {
		class = Contiguous
	}
	c.prev = phys
	c.seen = true
	return class
}
