package gateways

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
	"github.com/ochairo/aclmake/internal/domain/services"
)

// Placeholders recognized in toolchain command templates
const (
	placeholderInstall     = "{install}"
	placeholderConfig      = "{config}"
	placeholderConfigUpper = "{CONFIG}"
)

// outputTailLines bounds how much step output is carried in a StepError
const outputTailLines = 20

// Toolchain runs the configure, build and version commands of the native
// toolchain (emscripten + CMake by default)
type Toolchain struct {
	executor *CommandExecutor
	config   entities.ToolchainConfig
	goos     string
	logger   interfaces.Logger
}

// NewToolchain creates a new toolchain gateway
func NewToolchain(executor *CommandExecutor, config entities.ToolchainConfig, logger interfaces.Logger) *Toolchain {
	return &Toolchain{
		executor: executor,
		config:   config,
		goos:     runtime.GOOS,
		logger:   interfaces.OrNoOp(logger),
	}
}

// Generate runs the build-file generator in the build directory
func (t *Toolchain) Generate(ctx context.Context, req gateways.BuildRequest) error {
	t.logger.Info("Generating build files", interfaces.F("config", req.Config))

	_, err := t.executor.RunStep(ctx, "generate", gateways.CommandRequest{
		Command:    t.render(t.config.Generate, req),
		WorkingDir: req.BuildDir,
		Env:        req.Env,
	})
	return err
}

// Build compiles and installs the modules. Multi-config generators on macOS
// need the configuration passed explicitly.
func (t *Toolchain) Build(ctx context.Context, req gateways.BuildRequest) error {
	t.logger.Info("Building", interfaces.F("config", req.Config))

	command := t.config.Build
	if t.goos == "darwin" && !strings.Contains(command, "--config") {
		command += " --config " + placeholderConfig
	}

	_, err := t.executor.RunStep(ctx, "build", gateways.CommandRequest{
		Command:    t.render(command, req),
		WorkingDir: req.BuildDir,
		Env:        req.Env,
	})
	return err
}

// Version returns the first line of the compiler's version banner
func (t *Toolchain) Version(ctx context.Context, req gateways.BuildRequest) (string, error) {
	result, err := t.executor.RunStep(ctx, "version", gateways.CommandRequest{
		Command:    t.render(t.config.Version, req),
		WorkingDir: req.BuildDir,
		Env:        req.Env,
	})
	if err != nil {
		return "", err
	}

	version := strings.TrimSpace(result.Stdout)
	if i := strings.IndexAny(version, "\r\n"); i >= 0 {
		version = strings.TrimSpace(version[:i])
	}
	if version == "" {
		return "", fmt.Errorf("version command %q printed nothing", t.config.Version)
	}

	t.logger.Debug("Toolchain version", interfaces.F("version", version))
	return version, nil
}

func (t *Toolchain) render(template string, req gateways.BuildRequest) string {
	return strings.NewReplacer(
		placeholderInstall, services.ShellQuote(req.InstallDir),
		placeholderConfigUpper, strings.ToUpper(req.Config),
		placeholderConfig, req.Config,
	).Replace(template)
}

// stepError converts a failed command result into a StepError carrying the
// tail of the step's output
func stepError(step string, r *gateways.CommandResult) error {
	code := r.ExitCode
	if code <= 0 {
		code = 1
	}

	output := r.Output()
	if lines := strings.Split(output, "\n"); len(lines) > outputTailLines {
		output = strings.Join(lines[len(lines)-outputTailLines:], "\n")
	}

	var err error
	switch {
	case r.Error != nil && output != "":
		err = fmt.Errorf("%w\n%s", r.Error, output)
	case r.Error != nil:
		err = r.Error
	case output != "":
		err = fmt.Errorf("%s", output)
	}

	return &entities.StepError{Step: step, ExitCode: code, Err: err}
}
