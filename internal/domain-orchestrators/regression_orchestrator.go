package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
	"github.com/ochairo/aclmake/internal/domain/services"
)

// ToolLocator resolves a program name to an executable
type ToolLocator interface {
	LookPath(program string) (string, error)
}

// DataProvisioner materializes the regression corpus
type DataProvisioner interface {
	Provision(ctx context.Context, req services.ProvisionRequest) (*services.ProvisionResult, error)
}

// FailureReporter prints the per-item failure report
type FailureReporter interface {
	PrintFailures(summary entities.RunSummary)
}

// RegressionOrchestratorConfig holds configuration for the orchestrator
type RegressionOrchestratorConfig struct {
	Data       entities.DataConfig
	Regression entities.RegressionConfig
	// Workers overrides Regression.Workers when positive
	Workers    int
	WorkingDir string
	Env        map[string]string
}

// RegressionResult contains the outcome of a regression run
type RegressionResult struct {
	Provision *services.ProvisionResult
	Summary   entities.RunSummary
	Workers   int
	// Skipped is set when optional test data is absent
	Skipped       bool
	TotalDuration time.Duration
}

// RegressionOrchestrator runs the verification tool over every input of the
// corpus, one round per configuration
type RegressionOrchestrator struct {
	provisioner DataProvisioner
	runner      gateways.CommandRunner
	tools       ToolLocator
	renderer    services.ProgressRenderer
	reporter    FailureReporter
	config      RegressionOrchestratorConfig
	logger      interfaces.Logger
}

// NewRegressionOrchestrator creates a new regression orchestrator.
// renderer and reporter may be nil.
func NewRegressionOrchestrator(
	provisioner DataProvisioner,
	runner gateways.CommandRunner,
	tools ToolLocator,
	renderer services.ProgressRenderer,
	reporter FailureReporter,
	config RegressionOrchestratorConfig,
	logger interfaces.Logger,
) *RegressionOrchestrator {
	return &RegressionOrchestrator{
		provisioner: provisioner,
		runner:      runner,
		tools:       tools,
		renderer:    renderer,
		reporter:    reporter,
		config:      config,
		logger:      interfaces.OrNoOp(logger),
	}
}

// Run checks the verification tool, provisions the corpus and drains one
// round per configuration. Any failed item yields ErrTestsFailed; a cancelled
// context yields ErrInterrupted with the rounds observed so far.
func (o *RegressionOrchestrator) Run(ctx context.Context) (*RegressionResult, error) {
	startTime := time.Now()
	result := &RegressionResult{Workers: o.workers()}
	reg := o.config.Regression

	template, err := services.NewCommandTemplate(reg.Command, reg.Tool, reg.WithConfigs)
	if err != nil {
		return result, err
	}

	if err := o.preflight(); err != nil {
		return result, err
	}

	prov, err := o.provisioner.Provision(ctx, services.ProvisionRequest{
		Archive:     o.config.Data.Archive,
		Dir:         o.config.Data.Dir,
		ConfigsDir:  o.config.Data.ConfigsDir,
		Missing:     o.config.Data.Missing,
		SHA256:      o.config.Data.SHA256,
		Signature:   o.config.Data.Signature,
		Keyring:     o.config.Data.Keyring,
		WithConfigs: reg.WithConfigs,
	})
	if err != nil {
		return result, fmt.Errorf("failed to provision test data: %w", err)
	}
	result.Provision = prov

	if prov.Skipped {
		o.logger.Warn("Regression tests skipped, no test data available")
		result.Skipped = true
		result.TotalDuration = time.Since(startTime)
		return result, nil
	}

	corpus := prov.Corpus
	dispatcher := services.NewDispatcher(o.runner, o.renderer, o.logger, services.DispatcherConfig{
		Workers:          result.Workers,
		ProgressInterval: reg.ProgressInterval,
		WorkingDir:       o.config.WorkingDir,
		Env:              o.config.Env,
		ItemTimeout:      reg.Timeout,
	})

	o.logger.Info("Running regression tests",
		interfaces.F("clips", len(corpus.Inputs)),
		interfaces.F("configs", len(corpus.Configs)),
		interfaces.F("items", corpus.WorkItemCount()),
		interfaces.F("workers", dispatcher.Workers()))

	for _, cfg := range rounds(corpus) {
		label := ""
		if cfg != nil {
			label = cfg.Name
		}

		outcome, err := dispatcher.RunRound(ctx, label, template.BuildWorkItems(corpus.Inputs, cfg))
		result.Summary.Rounds = append(result.Summary.Rounds, outcome)
		if err != nil {
			result.TotalDuration = time.Since(startTime)
			o.report(result.Summary)
			return result, err
		}
	}

	result.TotalDuration = time.Since(startTime)

	if !result.Summary.Passed() {
		o.report(result.Summary)
		failures := len(result.Summary.Failures())
		return result, fmt.Errorf("%w: %d of %d", entities.ErrTestsFailed, failures, result.Summary.Dispatched())
	}

	return result, nil
}

func (o *RegressionOrchestrator) workers() int {
	switch {
	case o.config.Workers > 0:
		return o.config.Workers
	case o.config.Regression.Workers > 0:
		return o.config.Regression.Workers
	default:
		return services.DefaultWorkers()
	}
}

// preflight fails with ErrToolMissing when the verification tool or the
// program that runs it is absent
func (o *RegressionOrchestrator) preflight() error {
	reg := o.config.Regression

	if strings.Contains(reg.Command, services.PlaceholderTool) {
		info, err := os.Stat(reg.Tool)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s (run with --build first)", entities.ErrToolMissing, reg.Tool)
		}
		if err != nil {
			return fmt.Errorf("failed to stat verification tool: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", entities.ErrToolMissing, reg.Tool)
		}
	}

	fields := strings.Fields(reg.Command)
	if len(fields) == 0 || o.tools == nil {
		return nil
	}
	// Only bare program names are looked up; paths, placeholders and
	// variable assignments are left to the shell
	program := fields[0]
	if strings.ContainsAny(program, "/{=$") {
		return nil
	}
	if _, err := o.tools.LookPath(program); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrToolMissing, err)
	}
	return nil
}

func (o *RegressionOrchestrator) report(summary entities.RunSummary) {
	if o.reporter == nil || len(summary.Failures()) == 0 {
		return
	}
	o.reporter.PrintFailures(summary)
}

// rounds returns one entry per configuration, or a single nil entry in
// no-config mode
func rounds(corpus *entities.Corpus) []*entities.TestConfig {
	if len(corpus.Configs) == 0 {
		return []*entities.TestConfig{nil}
	}
	out := make([]*entities.TestConfig, len(corpus.Configs))
	for i := range corpus.Configs {
		out[i] = &corpus.Configs[i]
	}
	return out
}
