package report

// ProcessRecord holds the page contiguity counters of a single process.
type ProcessRecord struct {
	PID            int
	Comm           string
	ContigPages    int
	NonContigPages int
}

// TotalPages returns the number of resident pages counted for the process.
func (r ProcessRecord) TotalPages() int {
	return r.ContigPages + r.NonContigPages
}

// Store is the ordered result of one traversal. Records keep the order in
// which processes were enumerated and the totals always equal the sum of the
// per-record counters.
type Store struct {
	records        []ProcessRecord
	totalContig    int
	totalNonContig int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a completed process record and folds its counters into the totals.
func (s *Store) Append(rec ProcessRecord) {
	s.records = append(s.records, rec)
	s.totalContig += rec.ContigPages
	s.totalNonContig += rec.NonContigPages
}

// Records returns a copy of the records in insertion order.
func (s *Store) Records() []ProcessRecord {
	if s == nil {
		return nil
	}
	out := make([]ProcessRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// TotalContig returns the number of contiguous pages across all records.
func (s *Store) TotalContig() int {
	if s == nil {
		return 0
	}
	return s.totalContig
}

// TotalNonContig returns the number of non-contiguous pages across all records.
func (s *Store) TotalNonContig() int {
	if s == nil {
		return 0
	}
	return s.totalNonContig
}

// TotalPages returns the number of resident pages across all records.
func (s *Store) TotalPages() int {
	return s.TotalContig() + s.TotalNonContig()
}
