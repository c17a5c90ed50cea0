// Package main provides the aclmake CLI that builds, tests and packages acl-js.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

// Exit codes that are not forwarded from a failing build step
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil && ctx.Err() != nil && !errors.Is(err, entities.ErrInterrupted) {
		err = fmt.Errorf("%w: %v", entities.ErrInterrupted, err)
	}

	// The verdict already describes test failures and interruptions
	if err != nil && !errors.Is(err, entities.ErrTestsFailed) && !errors.Is(err, entities.ErrInterrupted) {
		fmt.Fprintf(stderr, "aclmake: %v\n", err)
	}
	return exitCode(err)
}

// exitCode maps a run error to the process exit status
func exitCode(err error) int {
	var stepErr *entities.StepError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, entities.ErrInterrupted):
		return ExitInterrupted
	case errors.As(err, &stepErr) && stepErr.ExitCode > 0:
		return stepErr.ExitCode
	default:
		return ExitFailure
	}
}
