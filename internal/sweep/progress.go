package sweep

import "sync/atomic"

// Progress counts runs as they finish. It is safe for concurrent use.
type Progress struct {
	total    atomic.Int64
	done     atomic.Int64
	solved   atomic.Int64
	timedOut atomic.Int64
	failed   atomic.Int64
}

// Snapshot is a point-in-time copy of Progress.
type Snapshot struct {
	Total    int64 `json:"total"`
	Done     int64 `json:"done"`
	Solved   int64 `json:"solved"`
	TimedOut int64 `json:"timed_out"`
	Failed   int64 `json:"failed"`
}

// Snapshot reads all counters.
func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Total:    p.total.Load(),
		Done:     p.done.Load(),
		Solved:   p.solved.Load(),
		TimedOut: p.timedOut.Load(),
		Failed:   p.failed.Load(),
	}
}
