// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
	"github.com/ochairo/aclmake/internal/domain/services"
)

// PlaceholderFilter is replaced by the --tests-matching value in the unit test command
const PlaceholderFilter = "{filter}"

// ArtifactResolver locates the compiled modules and their wrappers
type ArtifactResolver interface {
	Resolve(installDir, jsDir string, pairs []entities.ArtifactConfig) ([]entities.Artifact, error)
}

// WrapperPatcher embeds a compiled module into its JS wrapper
type WrapperPatcher interface {
	PatchFile(artifact entities.Artifact, version string) (*entities.PatchResult, error)
}

// StepRunner runs one named build step, failing with a StepError
type StepRunner interface {
	RunStep(ctx context.Context, step string, req gateways.CommandRequest) (*gateways.CommandResult, error)
}

// BuildOptions selects the phases of one invocation
type BuildOptions struct {
	Clean    bool
	Build    bool
	UnitTest bool
	Pack     bool
	Config   entities.BuildType
	Threads  int
	// TestsMatching is a regular expression forwarded to the unit test command
	TestsMatching string
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	Version       string
	Patches       []*entities.PatchResult
	UnitTestsRun  bool
	Package       *gateways.PackResult
	TotalDuration time.Duration
}

// BuildOrchestrator runs the native build, patches the JS wrappers and
// produces the npm package
type BuildOrchestrator struct {
	toolchain gateways.Toolchain
	artifacts ArtifactResolver
	patcher   WrapperPatcher
	steps     StepRunner
	packager  gateways.Packager
	project   *entities.ProjectConfig
	logger    interfaces.Logger
}

// NewBuildOrchestrator creates a new build orchestrator. project paths must
// already be resolved to absolute paths.
func NewBuildOrchestrator(
	toolchain gateways.Toolchain,
	artifacts ArtifactResolver,
	patcher WrapperPatcher,
	steps StepRunner,
	packager gateways.Packager,
	project *entities.ProjectConfig,
	logger interfaces.Logger,
) *BuildOrchestrator {
	return &BuildOrchestrator{
		toolchain: toolchain,
		artifacts: artifacts,
		patcher:   patcher,
		steps:     steps,
		packager:  packager,
		project:   project,
		logger:    interfaces.OrNoOp(logger),
	}
}

// Run executes the selected phases in order: clean, generate, build, unit
// test, pack. Generation always runs; packing implies building.
func (o *BuildOrchestrator) Run(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	startTime := time.Now()
	result := &BuildResult{}

	if opts.UnitTest && opts.TestsMatching != "" {
		if _, err := regexp.Compile(opts.TestsMatching); err != nil {
			return result, fmt.Errorf("invalid --tests-matching pattern: %w", err)
		}
	}

	if opts.Config == "" {
		opts.Config = entities.BuildRelease
	}
	if opts.Threads < 1 {
		opts.Threads = services.DefaultWorkers()
	}
	if opts.Pack {
		opts.Build = true
	}

	paths := o.project.Paths

	if opts.Clean {
		o.logger.Info("Cleaning previous build", interfaces.F("build", paths.Build), interfaces.F("install", paths.Install))
		for _, dir := range []string{paths.Build, paths.Install} {
			if err := os.RemoveAll(dir); err != nil {
				return result, fmt.Errorf("failed to remove %s: %w", dir, err)
			}
		}
	}

	for _, dir := range []string{paths.Build, paths.Install} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return result, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	o.logger.Info("Using config", interfaces.F("config", opts.Config), interfaces.F("threads", opts.Threads))

	req := gateways.BuildRequest{
		BuildDir:   paths.Build,
		InstallDir: paths.Install,
		Config:     string(opts.Config),
		Env:        map[string]string{"MAKEFLAGS": fmt.Sprintf("-j%d", opts.Threads)},
	}

	if err := o.toolchain.Generate(ctx, req); err != nil {
		return result, err
	}

	if opts.Build {
		if err := o.build(ctx, req, result); err != nil {
			return result, err
		}
	}

	if opts.UnitTest {
		ran, err := o.unitTest(ctx, req, opts.TestsMatching)
		if err != nil {
			return result, err
		}
		result.UnitTestsRun = ran
	}

	if opts.Pack {
		pkg, err := o.packager.Pack(ctx, gateways.PackRequest{
			RootDir:    paths.Root,
			JSDir:      paths.JS,
			StagingDir: paths.Staging,
			Command:    o.project.Pack.Command,
			ExtraFiles: o.project.Pack.ExtraFiles,
			RemoveDirs: o.project.Pack.RemoveDirs,
			Env:        req.Env,
		})
		if err != nil {
			return result, err
		}
		result.Package = pkg
	}

	result.TotalDuration = time.Since(startTime)
	return result, nil
}

// build compiles, reads the toolchain version and patches every wrapper
func (o *BuildOrchestrator) build(ctx context.Context, req gateways.BuildRequest, result *BuildResult) error {
	if err := o.toolchain.Build(ctx, req); err != nil {
		return err
	}

	version, err := o.toolchain.Version(ctx, req)
	if err != nil {
		return err
	}
	result.Version = version

	artifacts, err := o.artifacts.Resolve(req.InstallDir, o.project.Paths.JS, o.project.Toolchain.Artifacts)
	if err != nil {
		return err
	}

	for _, artifact := range artifacts {
		patch, err := o.patcher.PatchFile(artifact, version)
		if err != nil {
			return err
		}
		result.Patches = append(result.Patches, patch)
	}

	return nil
}

func (o *BuildOrchestrator) unitTest(ctx context.Context, req gateways.BuildRequest, filter string) (bool, error) {
	command := o.project.UnitTest.Command
	if strings.TrimSpace(command) == "" {
		o.logger.Info("No unit tests configured")
		return false, nil
	}

	command = strings.ReplaceAll(command, PlaceholderFilter, services.ShellQuote(filter))

	o.logger.Info("Running unit tests", interfaces.F("filter", filter))
	if _, err := o.steps.RunStep(ctx, "unit-test", gateways.CommandRequest{
		Command:    command,
		WorkingDir: req.BuildDir,
		Env:        req.Env,
	}); err != nil {
		return false, err
	}
	return true, nil
}
