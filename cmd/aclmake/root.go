package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/ochairo/aclmake/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/aclmake/internal/domain-orchestrators"
	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/services"
	"github.com/ochairo/aclmake/internal/external-adapters/terminal"
	"github.com/ochairo/aclmake/internal/external-adapters/yaml"
	"github.com/ochairo/aclmake/internal/external-adapters/zaplog"
)

type options struct {
	build          bool
	clean          bool
	unitTest       bool
	regressionTest bool
	pack           bool
	config         string
	numThreads     int
	testsMatching  string
	projectConfig  string
	verbose        bool
}

// cli holds the state shared by the root command and its subcommands
type cli struct {
	opts   options
	stdout io.Writer
	stderr io.Writer

	zap     *zaplog.Logger
	logger  interfaces.Logger
	project *entities.ProjectConfig
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "aclmake",
		Short: "Build, test and package acl-js",
		Long: `aclmake drives the acl-js native build and its regression tests.

Build files are always generated; every other phase is opt-in.
--pack implies --build.`,
		Example: `  aclmake --build --config Debug
  aclmake --regression-test --num-threads 8
  aclmake --clean --pack`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.zap != nil {
				_ = c.zap.Sync()
			}
		},
		RunE: c.runMain,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.opts.projectConfig, "project-config", "", "Project configuration file (default ./"+yaml.DefaultFileName+" when present)")
	pf.IntVar(&c.opts.numThreads, "num-threads", 0, "Number of build jobs and regression workers (default max(NumCPU, 4))")
	pf.BoolVarP(&c.opts.verbose, "verbose", "v", false, "Enable debug logging and stream build step output")

	f := root.Flags()
	f.BoolVar(&c.opts.build, "build", false, "Build the WASM modules and patch the JS wrappers")
	f.BoolVar(&c.opts.clean, "clean", false, "Remove the build and install directories first")
	f.BoolVar(&c.opts.unitTest, "unit-test", false, "Run the unit tests")
	f.BoolVar(&c.opts.regressionTest, "regression-test", false, "Run the regression tests")
	f.BoolVar(&c.opts.pack, "pack", false, "Produce the npm package (implies --build)")
	f.StringVar(&c.opts.config, "config", string(entities.BuildRelease), "Build configuration: Debug or Release")
	f.StringVar(&c.opts.testsMatching, "tests-matching", "", "Only run unit tests whose names match this regex")

	root.AddCommand(newManifestCmd(c), newPatchCmd(c))
	return root
}

// setup creates the run logger and loads the project configuration
func (c *cli) setup(*cobra.Command, []string) error {
	if c.opts.numThreads < 0 {
		return fmt.Errorf("--num-threads must not be negative")
	}

	c.zap = zaplog.NewWithSink(zapcore.AddSync(c.stderr), c.opts.verbose)
	c.logger = c.zap.With(interfaces.F("run_id", uuid.NewString()))

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	project, source, err := yaml.NewProjectConfigLoader().Load(workDir, c.opts.projectConfig)
	if err != nil {
		return err
	}
	c.project = project

	if source != "" {
		c.logger.Debug("Loaded project configuration", interfaces.F("file", source))
	} else {
		c.logger.Debug("Using built-in project configuration", interfaces.F("root", project.Paths.Root))
	}
	return nil
}

func (c *cli) runMain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	buildType, err := entities.ParseBuildType(c.opts.config)
	if err != nil {
		return err
	}

	executor := gateways.NewCommandExecutor(c.logger)
	if c.opts.verbose {
		executor.SetStepOutput(c.stderr)
	}

	build := orchestrators.NewBuildOrchestrator(
		gateways.NewToolchain(executor, c.project.Toolchain, c.logger),
		gateways.NewArtifactFinder(),
		services.NewWrapperPatcher(c.logger),
		executor,
		gateways.NewPackager(executor, services.NewChecksumService(c.logger), c.logger),
		c.project,
		c.logger,
	)

	result, err := build.Run(ctx, orchestrators.BuildOptions{
		Clean:         c.opts.clean,
		Build:         c.opts.build,
		UnitTest:      c.opts.unitTest,
		Pack:          c.opts.pack,
		Config:        buildType,
		Threads:       c.opts.numThreads,
		TestsMatching: c.opts.testsMatching,
	})
	if err != nil {
		return err
	}
	if result.Package != nil {
		fmt.Fprintln(c.stdout, result.Package.TarballPath)
	}

	if c.opts.regressionTest {
		return c.runRegression(ctx, executor)
	}
	return nil
}

func (c *cli) runRegression(ctx context.Context, executor *gateways.CommandExecutor) error {
	reporter := terminal.NewReporter(c.stdout)

	orch := orchestrators.NewRegressionOrchestrator(
		c.newProvisioner(),
		executor,
		executor,
		c.progressWriter(),
		reporter,
		orchestrators.RegressionOrchestratorConfig{
			Data:       c.project.Data,
			Regression: c.project.Regression,
			Workers:    c.opts.numThreads,
			WorkingDir: c.project.Paths.Root,
		},
		c.logger,
	)

	start := time.Now()
	result, err := orch.Run(ctx)
	if result == nil || result.Skipped {
		return err
	}
	// Pre-flight failures are reported as plain errors
	if len(result.Summary.Rounds) > 0 || err == nil {
		reporter.PrintVerdict(result.Summary, err, time.Since(start))
	}
	return err
}

func (c *cli) newProvisioner() *services.Provisioner {
	return services.NewProvisioner(
		gateways.NewArchiveExtractor(c.logger),
		gateways.NewArchiveVerifier(c.logger),
		services.NewCorpusIndex(c.logger),
		c.logger,
	)
}

func (c *cli) progressWriter() *terminal.ProgressWriter {
	if f, ok := c.stdout.(*os.File); ok {
		return terminal.NewProgressWriter(f)
	}
	return terminal.NewProgressWriterFor(c.stdout, false)
}
