// Package results folds run records into the benchmark's comparison tables.
//
// A Store holds at most one Record per (solver, family, group, level). The
// derived views (summary rows, solved counts, cactus curves) are recomputed
// from the store on demand and never mutated on their own.
package results

import (
	"cmp"
	"strconv"

	"github.com/vk/isobench/internal/parse"
)

// TimeoutCell is written in place of a time for runs that hit their limit.
const TimeoutCell = "TIMEOUT"

// Key identifies one test case for one solver.
type Key struct {
	Solver string
	Family string
	Group  string
	// Level is the sample percentage, 0 for a fixed pattern.
	Level int
}

// Compare orders keys by solver, family, group and level. Numeric groups
// sort numerically.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.Solver, o.Solver); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Family, o.Family); c != 0 {
		return c
	}
	if c := compareGroups(k.Group, o.Group); c != 0 {
		return c
	}
	return cmp.Compare(k.Level, o.Level)
}

func compareGroups(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(ai, bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return cmp.Compare(a, b)
}

// Record is the outcome of one run.
type Record struct {
	SweepID string `json:"sweep_id,omitempty"`
	Solver  string `json:"solver"`
	Family  string `json:"family"`
	Group   string `json:"group"`
	Level   int    `json:"level,omitempty"`

	// ElapsedSeconds is the time used for comparison; see TimeSource.
	ElapsedSeconds *float64         `json:"elapsed_seconds"`
	TimeSource     parse.TimeSource `json:"time_source,omitempty"`
	// WallSeconds is the harness measurement around the process, always set
	// for runs executed in this sweep.
	WallSeconds    float64 `json:"wall_seconds"`
	TimedOut       bool    `json:"timed_out"`
	BytesAllocated *int64  `json:"bytes_allocated"`
	InUseAtExit    *int64  `json:"in_use_at_exit,omitempty"`
	Found          *bool   `json:"found,omitempty"`
	ExitError      string  `json:"exit_error,omitempty"`
	// RawOutputRef names the transcript holding the run's raw text.
	RawOutputRef string `json:"raw_output_ref,omitempty"`
}

// Key returns the record's store key.
func (r Record) Key() Key {
	return Key{Solver: r.Solver, Family: r.Family, Group: r.Group, Level: r.Level}
}

// Solved reports whether the run finished within its limit with a time.
func (r Record) Solved() bool {
	return !r.TimedOut && r.ElapsedSeconds != nil
}

// SummaryRow is the comparison view of one record.
type SummaryRow struct {
	Key
	// Time is TimeoutCell, a fixed-precision seconds value or empty.
	Time           string
	BytesAllocated *int64
}

// Row derives the summary row of r. A timeout wins over any elapsed value.
func Row(r Record) SummaryRow {
	row := SummaryRow{Key: r.Key(), BytesAllocated: r.BytesAllocated}
	switch {
	case r.TimedOut:
		row.Time = TimeoutCell
	case r.ElapsedSeconds != nil:
		row.Time = strconv.FormatFloat(*r.ElapsedSeconds, 'f', 3, 64)
	}
	return row
}

// Alloc renders BytesAllocated, empty when unknown.
func (s SummaryRow) Alloc() string {
	if s.BytesAllocated == nil {
		return ""
	}
	return strconv.FormatInt(*s.BytesAllocated, 10)
}
