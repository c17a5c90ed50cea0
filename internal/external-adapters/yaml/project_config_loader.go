package yaml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

// DefaultFileName is looked up in the working directory when no file is given
const DefaultFileName = "aclmake.yml"

// ProjectConfigLoader locates, parses and resolves the project configuration
type ProjectConfigLoader struct {
	parser *ProjectConfigParser
}

// NewProjectConfigLoader creates a new YAML-based configuration loader
func NewProjectConfigLoader() *ProjectConfigLoader {
	return &ProjectConfigLoader{parser: NewProjectConfigParser()}
}

// Load reads path, or workDir/aclmake.yml when path is empty. A missing
// default file yields the built-in configuration; a missing explicit file is
// an error. Every path of the result is absolute. The returned source is the
// file that was read, or "" for built-in defaults.
func (l *ProjectConfigLoader) Load(workDir, path string) (cfg *entities.ProjectConfig, source string, err error) {
	workDir, err = filepath.Abs(workDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve working directory: %w", err)
	}

	baseDir := workDir
	switch {
	case path != "":
		source = absUnder(workDir, path)
		cfg, err = l.parser.ParseFile(source)
		if err != nil {
			return nil, "", err
		}
		baseDir = filepath.Dir(source)

	default:
		candidate := filepath.Join(workDir, DefaultFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			source = candidate
			cfg, err = l.parser.ParseFile(candidate)
			if err != nil {
				return nil, "", err
			}
		} else if errors.Is(statErr, fs.ErrNotExist) {
			cfg = entities.DefaultProjectConfig()
		} else {
			return nil, "", fmt.Errorf("failed to stat %s: %w", candidate, statErr)
		}
	}

	Resolve(cfg, baseDir)
	return cfg, source, nil
}

// Resolve makes the project root absolute against baseDir and every other
// path absolute against the project root
func Resolve(cfg *entities.ProjectConfig, baseDir string) {
	root := absUnder(baseDir, cfg.Paths.Root)
	cfg.Paths.Root = root

	cfg.Paths.Build = absUnder(root, cfg.Paths.Build)
	cfg.Paths.Install = absUnder(root, cfg.Paths.Install)
	cfg.Paths.JS = absUnder(root, cfg.Paths.JS)
	cfg.Paths.Staging = absUnder(root, cfg.Paths.Staging)

	cfg.Data.Archive = absUnder(root, cfg.Data.Archive)
	cfg.Data.Dir = absUnder(root, cfg.Data.Dir)
	if cfg.Data.Signature != "" {
		cfg.Data.Signature = absUnder(root, cfg.Data.Signature)
	}
	if cfg.Data.Keyring != "" {
		cfg.Data.Keyring = absUnder(root, cfg.Data.Keyring)
	}

	if cfg.Regression.Tool != "" {
		cfg.Regression.Tool = absUnder(root, cfg.Regression.Tool)
	}
}

func absUnder(base, path string) string {
	if path == "" {
		return base
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
