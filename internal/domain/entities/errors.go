package entities

import (
	"errors"
	"fmt"
)

// Pre-flight and run-level failures
var (
	ErrCorpusEmpty   = errors.New("no test inputs found")
	ErrConfigsEmpty  = errors.New("no test configurations found")
	ErrDataMissing   = errors.New("test data archive not found")
	ErrToolMissing   = errors.New("verification tool not found")
	ErrTestsFailed   = errors.New("regression tests failed")
	ErrInterrupted   = errors.New("run interrupted")
	ErrAnchorMissing = errors.New("patch anchor not found")
)

// StepError reports a non-zero exit from an external build step
type StepError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed (exit %d): %v", e.Step, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s failed (exit %d)", e.Step, e.ExitCode)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
