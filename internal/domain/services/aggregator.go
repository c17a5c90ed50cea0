package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

// Progress is a point-in-time view of one round
type Progress struct {
	Label     string
	Completed int
	Failed    int
	Total     int
	Elapsed   time.Duration
}

// Percent returns the completed fraction as a percentage
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Completed) * 100 / float64(p.Total)
}

// ProgressRenderer draws the live progress indicator
type ProgressRenderer interface {
	Render(p Progress)
	// Finish draws the final state and terminates the line
	Finish(p Progress)
}

// Aggregator collects the results of one round.
//
// Workers call Record concurrently; a single reporter reads the counters.
// A failure is appended before the completed count moves, so a reader that
// observes Completed() == Total() also observes every failure.
type Aggregator struct {
	total     int
	started   time.Time
	completed atomic.Int64
	failed    atomic.Int64

	mu       sync.Mutex
	failures []entities.RunResult
}

// NewAggregator creates an aggregator expecting total results
func NewAggregator(total int) *Aggregator {
	return &Aggregator{total: total, started: time.Now()}
}

// Record registers the outcome of one work item
func (a *Aggregator) Record(r entities.RunResult) {
	if !r.Success {
		a.mu.Lock()
		a.failures = append(a.failures, r)
		a.mu.Unlock()
		a.failed.Add(1)
	}
	a.completed.Add(1)
}

// Total returns the number of dispatched items
func (a *Aggregator) Total() int { return a.total }

// Completed returns the number of recorded results
func (a *Aggregator) Completed() int { return int(a.completed.Load()) }

// Failed returns the number of recorded failures
func (a *Aggregator) Failed() int { return int(a.failed.Load()) }

// Done reports whether every dispatched item has been recorded
func (a *Aggregator) Done() bool { return a.Completed() >= a.total }

// Failures returns a copy of the failures in the order they were recorded
func (a *Aggregator) Failures() []entities.RunResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]entities.RunResult, len(a.failures))
	copy(out, a.failures)
	return out
}

// Snapshot returns the current progress
func (a *Aggregator) Snapshot(label string) Progress {
	return Progress{
		Label:     label,
		Completed: a.Completed(),
		Failed:    a.Failed(),
		Total:     a.total,
		Elapsed:   time.Since(a.started),
	}
}

// Outcome converts the aggregator's state into a round outcome
func (a *Aggregator) Outcome(config string) entities.RoundOutcome {
	return entities.RoundOutcome{
		Config:     config,
		Dispatched: a.total,
		Completed:  a.Completed(),
		Failures:   a.Failures(),
		Duration:   time.Since(a.started),
	}
}

// NopRenderer discards progress updates
type NopRenderer struct{}

// Render does nothing
func (NopRenderer) Render(Progress) {}

// Finish does nothing
func (NopRenderer) Finish(Progress) {}
