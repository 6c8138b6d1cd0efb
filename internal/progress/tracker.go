// Package progress tracks completion counters for a running scan job and
// renders a textual summary once it finishes.
package progress

import (
	"fmt"
	"log"
	"sync/atomic"
)

// Tracker holds running counters for a job in progress. All fields are
// accessed with atomics so workers can update it without a shared mutex.
type Tracker struct {
	total     int64
	completed int64
	failed    int64
}

// New returns a Tracker with total set to 0; call SetTotal once the job's
// target count is known.
func New() *Tracker {
	return &Tracker{}
}

// SetTotal records the number of targets the job will scan.
func (t *Tracker) SetTotal(total int) {
	atomic.StoreInt64(&t.total, int64(total))
}

// IncrementCompleted records one successfully probed target.
func (t *Tracker) IncrementCompleted() {
	atomic.AddInt64(&t.completed, 1)
}

// IncrementFailed records one target whose probe returned an error rather
// than a result (connection setup failure, raw-socket error, and so on).
func (t *Tracker) IncrementFailed() {
	atomic.AddInt64(&t.failed, 1)
}

// Snapshot is a point-in-time read of the counters.
type Snapshot struct {
	Total     int
	Completed int
	Failed    int
}

// SuccessRate returns the completed fraction of total, as a percentage in
// [0, 100]; 0 when total is 0.
func (s Snapshot) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return (float64(s.Completed) / float64(s.Total)) * 100.0
}

// Done reports whether every target has been accounted for, either
// completed or failed.
func (s Snapshot) Done() bool {
	return s.Total > 0 && s.Completed+s.Failed >= s.Total
}

// Snapshot reads the current counters.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Total:     int(atomic.LoadInt64(&t.total)),
		Completed: int(atomic.LoadInt64(&t.completed)),
		Failed:    int(atomic.LoadInt64(&t.failed)),
	}
}

// PrintSummary logs the final counters and success rate.
func (t *Tracker) PrintSummary() {
	s := t.Snapshot()
	log.Printf("scan summary: total=%d completed=%d failed=%d success_rate=%s",
		s.Total, s.Completed, s.Failed, fmt.Sprintf("%.1f%%", s.SuccessRate()))
}
