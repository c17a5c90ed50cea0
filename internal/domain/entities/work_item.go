package entities

import "time"

// WorkItem is one scheduled (input, configuration) verification task.
// Config is nil in no-config mode.
type WorkItem struct {
	Seq     int
	Input   TestInput
	Config  *TestConfig
	Command string
}

// ConfigName returns the display name of the item's configuration, or ""
func (w WorkItem) ConfigName() string {
	if w.Config == nil {
		return ""
	}
	return w.Config.Name
}

// RunResult is the outcome of one WorkItem
type RunResult struct {
	Item     WorkItem
	Worker   int
	Success  bool
	ExitCode int
	Output   string
	Err      error
	Duration time.Duration
}

// RoundOutcome summarizes one fully drained scheduling round
type RoundOutcome struct {
	Config     string
	Dispatched int
	Completed  int
	Failures   []RunResult
	Duration   time.Duration
}

// Passed reports whether every item of the round succeeded
func (r RoundOutcome) Passed() bool {
	return len(r.Failures) == 0 && r.Completed == r.Dispatched
}

// RunSummary aggregates every round of a regression run
type RunSummary struct {
	Rounds []RoundOutcome
}

// Failures returns the failures of every round in round order
func (s RunSummary) Failures() []RunResult {
	var out []RunResult
	for _, r := range s.Rounds {
		out = append(out, r.Failures...)
	}
	return out
}

// Dispatched returns the total number of items dispatched across rounds
func (s RunSummary) Dispatched() int {
	n := 0
	for _, r := range s.Rounds {
		n += r.Dispatched
	}
	return n
}

// Passed reports whether every round passed
func (s RunSummary) Passed() bool {
	for _, r := range s.Rounds {
		if !r.Passed() {
			return false
		}
	}
	return true
}
