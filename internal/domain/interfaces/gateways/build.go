package gateways

import "context"

// BuildRequest carries the per-invocation settings shared by every build step
type BuildRequest struct {
	BuildDir   string
	InstallDir string
	// Config is the CMake configuration name, e.g. "Release"
	Config string
	Env    map[string]string
}

// Toolchain drives the native build collaborators
type Toolchain interface {
	Generate(ctx context.Context, req BuildRequest) error
	Build(ctx context.Context, req BuildRequest) error
	Version(ctx context.Context, req BuildRequest) (string, error)
}

// PackRequest describes how the npm package is staged
type PackRequest struct {
	RootDir    string
	JSDir      string
	StagingDir string
	Command    string
	ExtraFiles []string
	RemoveDirs []string
	Env        map[string]string
}

// PackResult points at the produced package and its checksum
type PackResult struct {
	TarballPath  string
	ChecksumPath string
}

// Packager stages the JS tree and produces the npm package
type Packager interface {
	Pack(ctx context.Context, req PackRequest) (*PackResult, error)
}
