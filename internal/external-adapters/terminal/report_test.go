package terminal

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

func failingSummary() entities.RunSummary {
	cfg := &entities.TestConfig{Path: "/data/configs/high.config.sjson", Name: "high"}
	return entities.RunSummary{Rounds: []entities.RoundOutcome{
		{
			Config:     "high",
			Dispatched: 3,
			Completed:  3,
			Failures: []entities.RunResult{
				{
					Item: entities.WorkItem{
						Input:   entities.TestInput{Path: "/data/clips/run.acl.sjson"},
						Config:  cfg,
						Command: "node tester.js /data/clips/run.acl.sjson /data/configs/high.config.sjson",
					},
					ExitCode: 1,
					Output:   "bad roundtrip\nerror 0.02 > 0.01",
				},
			},
		},
		{Config: "low", Dispatched: 3, Completed: 3},
	}}
}

func TestReporter_PrintFailures(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).PrintFailures(failingSummary())

	out := buf.String()
	assert.Contains(t, out, "1 regression failure(s)")
	assert.Contains(t, out, "[1] /data/clips/run.acl.sjson")
	assert.Contains(t, out, "config:  high")
	assert.Contains(t, out, "command: node tester.js /data/clips/run.acl.sjson /data/configs/high.config.sjson")
	assert.Contains(t, out, "    bad roundtrip")
	assert.Contains(t, out, "    error 0.02 > 0.01")
	assert.NotContains(t, out, "\x1b[", "non-terminal output must not carry escape codes")
}

func TestReporter_PrintFailures_NoConfigNoOutput(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).PrintFailures(entities.RunSummary{Rounds: []entities.RoundOutcome{{
		Dispatched: 1,
		Completed:  1,
		Failures: []entities.RunResult{{
			Item:     entities.WorkItem{Input: entities.TestInput{Path: "/x.acl.sjson"}, Command: "node t.js /x.acl.sjson"},
			ExitCode: -1,
			Err:      errors.New("exec: not started"),
		}},
	}}})

	out := buf.String()
	assert.NotContains(t, out, "config:")
	assert.Contains(t, out, "error:   exec: not started")
	assert.Contains(t, out, "(no output)")
}

func TestReporter_PrintFailures_Passed(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).PrintFailures(entities.RunSummary{Rounds: []entities.RoundOutcome{{Dispatched: 2, Completed: 2}}})
	assert.Empty(t, buf.String())
}

func TestReporter_PrintVerdict(t *testing.T) {
	passed := entities.RunSummary{Rounds: []entities.RoundOutcome{{Dispatched: 1200, Completed: 1200}}}

	tests := []struct {
		name    string
		summary entities.RunSummary
		err     error
		want    string
	}{
		{name: "passed", summary: passed, want: "PASSED 1,200 regression tests in 1.5s"},
		{
			name:    "failed",
			summary: failingSummary(),
			err:     entities.ErrTestsFailed,
			want:    "FAILED 1 of 6 regression tests in 1.5s",
		},
		{
			name:    "interrupted",
			summary: failingSummary(),
			err:     fmt.Errorf("%w: context canceled", entities.ErrInterrupted),
			want:    "INTERRUPTED after 1.5s; 1 failure(s) observed",
		},
		{
			name: "pre-flight error",
			err:  fmt.Errorf("%w: node", entities.ErrToolMissing),
			want: "ERROR verification tool not found: node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewReporter(&buf).PrintVerdict(tt.summary, tt.err, 1500*time.Millisecond)
			assert.Equal(t, tt.want, strings.TrimSpace(buf.String()))
		})
	}
}
