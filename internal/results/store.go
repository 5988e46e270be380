package results

import (
	"slices"
	"sync"
)

// Store is a concurrency-safe record table. Put order does not affect any
// view.
type Store struct {
	mu      sync.RWMutex
	records map[Key]Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[Key]Record)}
}

// Put stores r, replacing any earlier record with the same key.
func (s *Store) Put(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.Key()] = r
}

// Get returns the record stored under k.
func (s *Store) Get(k Key) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[k]
	return r, ok
}

// Len is the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a sorted snapshot, optionally restricted by filter.
func (s *Store) Records(filter func(Record) bool) []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if filter == nil || filter(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b Record) int { return a.Key().Compare(b.Key()) })
	return out
}

// Of selects the records of one solver and family.
func Of(solver, family string) func(Record) bool {
	return func(r Record) bool { return r.Solver == solver && r.Family == family }
}

// Rows derives the summary rows in key order.
func (s *Store) Rows() []SummaryRow {
	recs := s.Records(nil)
	rows := make([]SummaryRow, len(recs))
	for i, r := range recs {
		rows[i] = Row(r)
	}
	return rows
}

// Solvers lists the solvers with at least one record, sorted.
func (s *Store) Solvers() []string {
	return s.distinct(func(r Record) string { return r.Solver })
}

// Families lists the families with at least one record, sorted.
func (s *Store) Families() []string {
	return s.distinct(func(r Record) string { return r.Family })
}

func (s *Store) distinct(field func(Record) string) []string {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, r := range s.records {
		seen[field(r)] = struct{}{}
	}
	s.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Curve returns the sorted solve times of one solver on one family, the data
// of a cactus plot. Its length is the solved count.
func (s *Store) Curve(solver, family string) []float64 {
	var times []float64
	for _, r := range s.Records(Of(solver, family)) {
		if r.Solved() {
			times = append(times, *r.ElapsedSeconds)
		}
	}
	slices.Sort(times)
	return times
}

// SolvedWithin counts the cases of one solver on one family solved in at most
// budget seconds, along with the number of attempted cases. The count never
// decreases as budget grows and never exceeds total.
func (s *Store) SolvedWithin(solver, family string, budget float64) (solved, total int) {
	for _, r := range s.Records(Of(solver, family)) {
		total++
		if r.Solved() && *r.ElapsedSeconds <= budget {
			solved++
		}
	}
	return solved, total
}

// SolvedCount is the number of solved cases of one solver on one family
// regardless of time.
func (s *Store) SolvedCount(solver, family string) int {
	return len(s.Curve(solver, family))
}
