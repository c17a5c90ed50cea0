package entities

import (
	"fmt"
	"strings"
	"time"
)

// MissingDataPolicy decides what happens when the test data archive is absent
type MissingDataPolicy string

// Supported missing-data policies
const (
	// MissingDataRequired aborts the run with ErrDataMissing
	MissingDataRequired MissingDataPolicy = "required"
	// MissingDataOptional warns and skips regression testing
	MissingDataOptional MissingDataPolicy = "optional"
)

// ParseMissingDataPolicy validates a policy name; empty means required
func ParseMissingDataPolicy(s string) (MissingDataPolicy, error) {
	switch MissingDataPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingDataRequired:
		return MissingDataRequired, nil
	case MissingDataOptional:
		return MissingDataOptional, nil
	default:
		return "", fmt.Errorf("unknown missing data policy %q (want required or optional)", s)
	}
}

// BuildType is the CMake configuration name
type BuildType string

// Supported build types
const (
	BuildDebug   BuildType = "Debug"
	BuildRelease BuildType = "Release"
)

// ParseBuildType accepts any casing of Debug or Release
func ParseBuildType(s string) (BuildType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return BuildDebug, nil
	case "", "release":
		return BuildRelease, nil
	default:
		return "", fmt.Errorf("unknown config %q (want Debug or Release)", s)
	}
}

// ProjectConfig is the complete configuration of one aclmake invocation
type ProjectConfig struct {
	Paths      PathsConfig
	Toolchain  ToolchainConfig
	UnitTest   UnitTestConfig
	Pack       PackConfig
	Data       DataConfig
	Regression RegressionConfig
}

// PathsConfig holds the working directories, relative to the project root
// unless absolute
type PathsConfig struct {
	Root    string
	Build   string
	Install string
	JS      string
	Staging string
}

// ToolchainConfig holds the external build collaborator commands
type ToolchainConfig struct {
	Generate  string
	Build     string
	Version   string
	Artifacts []ArtifactConfig
}

// ArtifactConfig pairs a compiled module with the wrapper that embeds it
type ArtifactConfig struct {
	Wasm    string // relative to the install dir
	Wrapper string // relative to the JS dir
}

// UnitTestConfig holds the unit test command; {filter} is substituted
type UnitTestConfig struct {
	Command string
}

// PackConfig describes how the npm package is staged
type PackConfig struct {
	Command    string
	ExtraFiles []string
	RemoveDirs []string
}

// DataConfig describes where the regression corpus lives
type DataConfig struct {
	Archive    string
	Dir        string
	ConfigsDir string
	Missing    MissingDataPolicy
	SHA256     string
	Signature  string
	Keyring    string
}

// RegressionConfig drives the regression orchestrator
type RegressionConfig struct {
	Tool             string
	Command          string
	WithConfigs      bool
	ProgressInterval time.Duration
	Workers          int
	// Timeout bounds one verification command; zero means no bound
	Timeout time.Duration
}

// DefaultProjectConfig returns the layout used by the acl-js repository
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Root:    ".",
			Build:   "build",
			Install: "bin",
			JS:      "acl-js",
			Staging: "staging",
		},
		Toolchain: ToolchainConfig{
			Generate: `emcmake cmake .. -DCMAKE_INSTALL_PREFIX={install} --no-warn-unused-cli -DCMAKE_BUILD_TYPE={CONFIG}`,
			Build:    "cmake --build . --target install",
			Version:  "emcc --version",
			Artifacts: []ArtifactConfig{
				{Wasm: "acl-encoder.wasm", Wrapper: "src-js/encoder.wasm.js"},
				{Wasm: "acl-decoder.wasm", Wrapper: "src-js/decoder.wasm.js"},
			},
		},
		Pack: PackConfig{
			Command:    "npm pack",
			ExtraFiles: []string{"CHANGELOG.md", "README.md", "LICENSE"},
			RemoveDirs: []string{"src-encoder-cpp", "src-decoder-cpp"},
		},
		Data: DataConfig{
			Archive:    "test_data/acl_regression_tests.tar.zst",
			Dir:        "test_data/acl_regression",
			ConfigsDir: "configs",
			Missing:    MissingDataRequired,
		},
		Regression: RegressionConfig{
			Tool:             "bin/acl-js-regression-tester.js",
			Command:          "node {tool} {input}",
			ProgressInterval: time.Second,
		},
	}
}
