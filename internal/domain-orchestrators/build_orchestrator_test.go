package orchestrators

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
)

// Mock implementations for testing
type mockToolchain struct {
	calls       *[]string
	requests    []gateways.BuildRequest
	version     string
	generateErr error
	buildErr    error
}

func (m *mockToolchain) Generate(_ context.Context, req gateways.BuildRequest) error {
	*m.calls = append(*m.calls, "generate")
	m.requests = append(m.requests, req)
	return m.generateErr
}

func (m *mockToolchain) Build(_ context.Context, req gateways.BuildRequest) error {
	*m.calls = append(*m.calls, "build")
	m.requests = append(m.requests, req)
	return m.buildErr
}

func (m *mockToolchain) Version(_ context.Context, _ gateways.BuildRequest) (string, error) {
	*m.calls = append(*m.calls, "version")
	return m.version, nil
}

type mockResolver struct {
	calls     *[]string
	artifacts []entities.Artifact
}

func (m *mockResolver) Resolve(_, _ string, _ []entities.ArtifactConfig) ([]entities.Artifact, error) {
	*m.calls = append(*m.calls, "resolve")
	return m.artifacts, nil
}

type mockPatcher struct {
	calls *[]string
	err   error
}

func (m *mockPatcher) PatchFile(artifact entities.Artifact, version string) (*entities.PatchResult, error) {
	*m.calls = append(*m.calls, "patch:"+artifact.Name)
	if m.err != nil {
		return nil, m.err
	}
	return &entities.PatchResult{WrapperPath: artifact.WrapperPath, Version: version, Changed: true}, nil
}

type mockSteps struct {
	calls    *[]string
	requests []gateways.CommandRequest
	err      error
}

func (m *mockSteps) RunStep(_ context.Context, step string, req gateways.CommandRequest) (*gateways.CommandResult, error) {
	*m.calls = append(*m.calls, step)
	m.requests = append(m.requests, req)
	if m.err != nil {
		return &gateways.CommandResult{ExitCode: 2}, m.err
	}
	return &gateways.CommandResult{Success: true}, nil
}

type mockPackager struct {
	calls   *[]string
	request gateways.PackRequest
}

func (m *mockPackager) Pack(_ context.Context, req gateways.PackRequest) (*gateways.PackResult, error) {
	*m.calls = append(*m.calls, "pack")
	m.request = req
	return &gateways.PackResult{TarballPath: filepath.Join(req.StagingDir, "acl-js-1.0.0.tgz")}, nil
}

type buildFixture struct {
	calls     []string
	project   *entities.ProjectConfig
	toolchain *mockToolchain
	patcher   *mockPatcher
	steps     *mockSteps
	packager  *mockPackager
}

func newBuildFixture(t *testing.T) *buildFixture {
	t.Helper()
	root := t.TempDir()

	f := &buildFixture{project: entities.DefaultProjectConfig()}
	f.project.Paths = entities.PathsConfig{
		Root:    root,
		Build:   filepath.Join(root, "build"),
		Install: filepath.Join(root, "bin"),
		JS:      filepath.Join(root, "acl-js"),
		Staging: filepath.Join(root, "staging"),
	}
	f.toolchain = &mockToolchain{calls: &f.calls, version: "emcc (Emscripten) 3.1.74"}
	f.patcher = &mockPatcher{calls: &f.calls}
	f.steps = &mockSteps{calls: &f.calls}
	f.packager = &mockPackager{calls: &f.calls}
	return f
}

func (f *buildFixture) orchestrator() *BuildOrchestrator {
	resolver := &mockResolver{calls: &f.calls, artifacts: []entities.Artifact{
		{Name: "acl-encoder"},
		{Name: "acl-decoder"},
	}}
	return NewBuildOrchestrator(f.toolchain, resolver, f.patcher, f.steps, f.packager, f.project, nil)
}

func TestBuildOrchestrator_PackImpliesBuild(t *testing.T) {
	f := newBuildFixture(t)

	result, err := f.orchestrator().Run(context.Background(), BuildOptions{Pack: true, Threads: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"generate", "build", "version", "resolve", "patch:acl-encoder", "patch:acl-decoder", "pack"}
	if strings.Join(f.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", f.calls, want)
	}

	if result.Version != "emcc (Emscripten) 3.1.74" {
		t.Errorf("Version = %q", result.Version)
	}
	if len(result.Patches) != 2 {
		t.Errorf("Patches = %d, want 2", len(result.Patches))
	}
	if result.Package == nil {
		t.Fatal("Package should be set when packing")
	}

	for _, req := range f.toolchain.requests {
		if req.Env["MAKEFLAGS"] != "-j3" {
			t.Errorf("MAKEFLAGS = %q, want -j3", req.Env["MAKEFLAGS"])
		}
		if req.Config != "Release" {
			t.Errorf("Config = %q, want Release", req.Config)
		}
	}

	if got := f.packager.request.ExtraFiles; len(got) != 3 {
		t.Errorf("ExtraFiles = %v, want the three release documents", got)
	}
	if f.packager.request.StagingDir != f.project.Paths.Staging {
		t.Errorf("StagingDir = %s, want %s", f.packager.request.StagingDir, f.project.Paths.Staging)
	}
}

func TestBuildOrchestrator_GenerateOnly(t *testing.T) {
	f := newBuildFixture(t)

	result, err := f.orchestrator().Run(context.Background(), BuildOptions{Config: entities.BuildDebug})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(f.calls) != 1 || f.calls[0] != "generate" {
		t.Errorf("calls = %v, want only generate", f.calls)
	}
	if result.Package != nil || result.UnitTestsRun {
		t.Errorf("unexpected phases ran: %+v", result)
	}

	for _, dir := range []string{f.project.Paths.Build, f.project.Paths.Install} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s should exist after Run()", dir)
		}
	}
}

func TestBuildOrchestrator_Clean(t *testing.T) {
	f := newBuildFixture(t)

	stale := filepath.Join(f.project.Paths.Build, "CMakeCache.txt")
	if err := os.MkdirAll(f.project.Paths.Build, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("cache"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := f.orchestrator().Run(context.Background(), BuildOptions{Clean: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("clean should remove the previous build directory")
	}
	if _, err := os.Stat(f.project.Paths.Build); err != nil {
		t.Errorf("build directory should be recreated: %v", err)
	}
}

func TestBuildOrchestrator_GenerateFailure(t *testing.T) {
	f := newBuildFixture(t)
	f.toolchain.generateErr = &entities.StepError{Step: "generate", ExitCode: 7}

	_, err := f.orchestrator().Run(context.Background(), BuildOptions{Build: true})

	var stepErr *entities.StepError
	if !errors.As(err, &stepErr) || stepErr.ExitCode != 7 {
		t.Fatalf("Run() error = %v, want generate StepError with exit 7", err)
	}
	if len(f.calls) != 1 {
		t.Errorf("calls = %v, nothing should run after a failed generate", f.calls)
	}
}

func TestBuildOrchestrator_PatchFailure(t *testing.T) {
	f := newBuildFixture(t)
	f.patcher.err = entities.ErrAnchorMissing

	_, err := f.orchestrator().Run(context.Background(), BuildOptions{Build: true, Pack: true})
	if !errors.Is(err, entities.ErrAnchorMissing) {
		t.Fatalf("Run() error = %v, want ErrAnchorMissing", err)
	}
	for _, c := range f.calls {
		if c == "pack" {
			t.Error("pack should not run after a failed patch")
		}
	}
}

func TestBuildOrchestrator_UnitTest(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		filter      string
		wantErr     bool
		wantRun     bool
		wantCommand string
	}{
		{name: "no command configured", command: "", wantRun: false},
		{
			name:        "filter substituted",
			command:     "ctest -R {filter}",
			filter:      "enc.*der",
			wantRun:     true,
			wantCommand: "ctest -R 'enc.*der'",
		},
		{name: "invalid pattern", command: "ctest -R {filter}", filter: "(", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBuildFixture(t)
			f.project.UnitTest.Command = tt.command

			result, err := f.orchestrator().Run(context.Background(), BuildOptions{UnitTest: true, TestsMatching: tt.filter})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if len(f.calls) != 0 {
					t.Errorf("calls = %v, an invalid pattern must fail before any step", f.calls)
				}
				return
			}

			if result.UnitTestsRun != tt.wantRun {
				t.Errorf("UnitTestsRun = %v, want %v", result.UnitTestsRun, tt.wantRun)
			}
			if tt.wantRun {
				if len(f.steps.requests) != 1 {
					t.Fatalf("unit test step ran %d times", len(f.steps.requests))
				}
				req := f.steps.requests[0]
				if req.Command != tt.wantCommand {
					t.Errorf("Command = %q, want %q", req.Command, tt.wantCommand)
				}
				if req.WorkingDir != f.project.Paths.Build {
					t.Errorf("WorkingDir = %s, want build dir", req.WorkingDir)
				}
			}
		})
	}
}

func TestBuildOrchestrator_UnitTestFailure(t *testing.T) {
	f := newBuildFixture(t)
	f.project.UnitTest.Command = "ctest"
	f.steps.err = &entities.StepError{Step: "unit-test", ExitCode: 8}

	_, err := f.orchestrator().Run(context.Background(), BuildOptions{UnitTest: true, Pack: true})

	var stepErr *entities.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "unit-test" {
		t.Fatalf("Run() error = %v, want unit-test StepError", err)
	}
	if f.calls[len(f.calls)-1] != "unit-test" {
		t.Errorf("calls = %v, pack should not run after failed unit tests", f.calls)
	}
}
