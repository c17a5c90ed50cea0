// Package gateways implements the domain gateway interfaces on top of the
// operating system: process execution, archives, checksums and signatures.
package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
)

// CommandExecutor runs shell commands and captures their output
type CommandExecutor struct {
	defaultTimeout time.Duration
	waitDelay      time.Duration
	stepOutput     io.Writer
	logger         interfaces.Logger
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(logger interfaces.Logger) *CommandExecutor {
	return &CommandExecutor{
		defaultTimeout: 30 * time.Minute,
		waitDelay:      5 * time.Second,
		logger:         interfaces.OrNoOp(logger),
	}
}

// SetStepOutput streams the output of every RunStep command to w as it is
// produced. Output is still captured for error reporting.
func (ce *CommandExecutor) SetStepOutput(w io.Writer) {
	ce.stepOutput = w
}

// Run executes req.Command through /bin/sh.
//
// The shell and everything it started are killed when ctx is cancelled or
// the timeout expires. Pipes held by processes that left the group are
// abandoned after waitDelay so Run always returns.
func (ce *CommandExecutor) Run(ctx context.Context, req gateways.CommandRequest) *gateways.CommandResult {
	startTime := time.Now()
	result := &gateways.CommandResult{}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = ce.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: Command execution is intentional and controlled by project configuration
	cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", req.Command)
	cmd.WaitDelay = ce.waitDelay
	killProcessGroup(cmd)

	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}

	// Sorted so the child environment is reproducible
	env := os.Environ()
	keys := make([]string, 0, len(req.Env))
	for key := range req.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, req.Env[key]))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if req.Output != nil {
		shared := &lockedWriter{w: req.Output}
		cmd.Stdout = io.MultiWriter(&stdout, shared)
		cmd.Stderr = io.MultiWriter(&stderr, shared)
	}

	if req.Description != "" {
		ce.logger.Debug("Executing", interfaces.F("what", req.Description), interfaces.F("command", req.Command))
	}

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			result.Error = fmt.Errorf("command timeout after %v", timeout)
			result.ExitCode = -1
		} else if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}

// RunStep runs a build step and converts a failure into a StepError that
// carries the step's exit code.
func (ce *CommandExecutor) RunStep(ctx context.Context, step string, req gateways.CommandRequest) (*gateways.CommandResult, error) {
	req.Description = step
	if req.Output == nil {
		req.Output = ce.stepOutput
	}
	result := ce.Run(ctx, req)
	if !result.Success {
		return result, stepError(step, result)
	}
	return result, nil
}

// LookPath reports whether the first word of a command resolves to an executable
func (ce *CommandExecutor) LookPath(program string) (string, error) {
	path, err := exec.LookPath(program)
	if err != nil {
		return "", fmt.Errorf("%s: %w", program, err)
	}
	return path, nil
}

// lockedWriter serializes the stdout and stderr copiers onto one writer
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
