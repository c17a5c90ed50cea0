// Package yaml provides YAML-based project configuration parsing and loading.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlProjectConfig represents the raw YAML structure. Pointer fields tell
// an omitted key apart from an explicit zero value.
type yamlProjectConfig struct {
	Paths      yamlPaths      `yaml:"paths"`
	Toolchain  yamlToolchain  `yaml:"toolchain"`
	UnitTest   yamlUnitTest   `yaml:"unit_test"`
	Pack       yamlPack       `yaml:"pack"`
	Data       yamlData       `yaml:"data"`
	Regression yamlRegression `yaml:"regression"`
}

type yamlPaths struct {
	Root    *string `yaml:"root"`
	Build   *string `yaml:"build"`
	Install *string `yaml:"install"`
	JS      *string `yaml:"js"`
	Staging *string `yaml:"staging"`
}

type yamlToolchain struct {
	Generate  *string         `yaml:"generate"`
	Build     *string         `yaml:"build"`
	Version   *string         `yaml:"version"`
	Artifacts []yamlArtifacts `yaml:"artifacts"`
}

type yamlArtifacts struct {
	Wasm    string `yaml:"wasm"`
	Wrapper string `yaml:"wrapper"`
}

type yamlUnitTest struct {
	Command *string `yaml:"command"`
}

type yamlPack struct {
	Command    *string  `yaml:"command"`
	ExtraFiles []string `yaml:"extra_files"`
	RemoveDirs []string `yaml:"remove_dirs"`
}

type yamlData struct {
	Archive    *string `yaml:"archive"`
	Dir        *string `yaml:"dir"`
	ConfigsDir *string `yaml:"configs_dir"`
	Missing    *string `yaml:"missing"`
	SHA256     *string `yaml:"sha256"`
	Signature  *string `yaml:"signature"`
	Keyring    *string `yaml:"keyring"`
}

type yamlRegression struct {
	Tool             *string `yaml:"tool"`
	Command          *string `yaml:"command"`
	WithConfigs      *bool   `yaml:"with_configs"`
	ProgressInterval *string `yaml:"progress_interval"`
	Workers          *int    `yaml:"workers"`
	Timeout          *string `yaml:"timeout"`
}

// ProjectConfigParser parses aclmake.yml files
type ProjectConfigParser struct{}

// NewProjectConfigParser creates a new YAML parser
func NewProjectConfigParser() *ProjectConfigParser {
	return &ProjectConfigParser{}
}

// ParseFile parses a YAML project file into a ProjectConfig entity
func (p *ProjectConfigParser) ParseFile(filePath string) (*entities.ProjectConfig, error) {
	//nolint:gosec // G304: filePath is the project configuration chosen by the operator
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	cfg, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return cfg, nil
}

// Parse parses YAML bytes on top of DefaultProjectConfig. Unknown keys are
// rejected so a typo never silently falls back to a default.
func (p *ProjectConfigParser) Parse(data []byte) (*entities.ProjectConfig, error) {
	var raw yamlProjectConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := entities.DefaultProjectConfig()

	applyPaths(&cfg.Paths, raw.Paths)
	if err := applyToolchain(&cfg.Toolchain, raw.Toolchain); err != nil {
		return nil, err
	}
	setString(&cfg.UnitTest.Command, raw.UnitTest.Command)
	applyPack(&cfg.Pack, raw.Pack)
	if err := applyData(&cfg.Data, raw.Data); err != nil {
		return nil, err
	}
	if err := applyRegression(&cfg.Regression, raw.Regression); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyPaths(dst *entities.PathsConfig, src yamlPaths) {
	setString(&dst.Root, src.Root)
	setString(&dst.Build, src.Build)
	setString(&dst.Install, src.Install)
	setString(&dst.JS, src.JS)
	setString(&dst.Staging, src.Staging)
}

func applyToolchain(dst *entities.ToolchainConfig, src yamlToolchain) error {
	setString(&dst.Generate, src.Generate)
	setString(&dst.Build, src.Build)
	setString(&dst.Version, src.Version)

	if src.Artifacts != nil {
		dst.Artifacts = make([]entities.ArtifactConfig, 0, len(src.Artifacts))
		for i, a := range src.Artifacts {
			if a.Wasm == "" || a.Wrapper == "" {
				return fmt.Errorf("toolchain.artifacts[%d] needs both wasm and wrapper", i)
			}
			dst.Artifacts = append(dst.Artifacts, entities.ArtifactConfig{Wasm: a.Wasm, Wrapper: a.Wrapper})
		}
	}
	return nil
}

func applyPack(dst *entities.PackConfig, src yamlPack) {
	setString(&dst.Command, src.Command)
	if src.ExtraFiles != nil {
		dst.ExtraFiles = src.ExtraFiles
	}
	if src.RemoveDirs != nil {
		dst.RemoveDirs = src.RemoveDirs
	}
}

func applyData(dst *entities.DataConfig, src yamlData) error {
	setString(&dst.Archive, src.Archive)
	setString(&dst.Dir, src.Dir)
	setString(&dst.ConfigsDir, src.ConfigsDir)
	setString(&dst.SHA256, src.SHA256)
	setString(&dst.Signature, src.Signature)
	setString(&dst.Keyring, src.Keyring)

	if src.Missing != nil {
		policy, err := entities.ParseMissingDataPolicy(*src.Missing)
		if err != nil {
			return fmt.Errorf("data.missing: %w", err)
		}
		dst.Missing = policy
	}

	if dst.Signature != "" && dst.Keyring == "" {
		return fmt.Errorf("data.signature requires data.keyring")
	}
	return nil
}

func applyRegression(dst *entities.RegressionConfig, src yamlRegression) error {
	setString(&dst.Tool, src.Tool)
	setString(&dst.Command, src.Command)

	if src.WithConfigs != nil {
		dst.WithConfigs = *src.WithConfigs
		// The stock command has no {config}; extend it rather than fail validation
		if dst.WithConfigs && src.Command == nil && !strings.Contains(dst.Command, "{config}") {
			dst.Command += " {config}"
		}
	}

	if src.ProgressInterval != nil {
		d, err := time.ParseDuration(*src.ProgressInterval)
		if err != nil {
			return fmt.Errorf("regression.progress_interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("regression.progress_interval must be positive, got %s", d)
		}
		dst.ProgressInterval = d
	}

	if src.Workers != nil {
		if *src.Workers < 0 {
			return fmt.Errorf("regression.workers must not be negative, got %d", *src.Workers)
		}
		dst.Workers = *src.Workers
	}

	if src.Timeout != nil {
		d, err := time.ParseDuration(*src.Timeout)
		if err != nil {
			return fmt.Errorf("regression.timeout: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("regression.timeout must not be negative, got %s", d)
		}
		dst.Timeout = d
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
