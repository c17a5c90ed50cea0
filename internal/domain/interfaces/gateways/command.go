// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"io"
	"strings"
	"time"
)

// CommandRequest describes one shell command invocation
type CommandRequest struct {
	Command     string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	Description string
	// Output, when set, receives stdout and stderr as they are produced
	Output io.Writer
}

// CommandResult contains the outcome of a command invocation
type CommandResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Output returns stdout followed by stderr, trimmed of surrounding whitespace
func (r *CommandResult) Output() string {
	var parts []string
	if s := strings.TrimSpace(r.Stdout); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.Stderr); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// CommandRunner executes external commands.
// A non-zero exit is reported through the result, never as a panic.
type CommandRunner interface {
	Run(ctx context.Context, req CommandRequest) *CommandResult
}
