// Package services implements the domain logic of the regression run:
// corpus discovery, provisioning, dispatch, aggregation and wrapper patching.
package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces"
)

// CorpusOptions selects where inputs and configurations are discovered
type CorpusOptions struct {
	Root           string
	ConfigRoot     string
	RequireConfigs bool
}

// CorpusIndex enumerates test inputs and configurations from a directory tree
type CorpusIndex struct {
	logger interfaces.Logger
}

// NewCorpusIndex creates a new corpus index
func NewCorpusIndex(logger interfaces.Logger) *CorpusIndex {
	return &CorpusIndex{logger: interfaces.OrNoOp(logger)}
}

// Discover collects every input and (when required) every configuration.
//
// Inputs are ordered largest first so the slowest items start earliest on a
// fixed worker pool. Configurations are ordered by display name.
func (c *CorpusIndex) Discover(ctx context.Context, opts CorpusOptions) (*entities.Corpus, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve corpus root: %w", err)
	}

	corpus := &entities.Corpus{Root: root}

	err = walkSuffix(ctx, root, entities.InputSuffix, func(path string, info fs.FileInfo) {
		corpus.Inputs = append(corpus.Inputs, entities.TestInput{Path: path, Size: info.Size()})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus %s: %w", root, err)
	}
	if len(corpus.Inputs) == 0 {
		return nil, fmt.Errorf("%w under %s", entities.ErrCorpusEmpty, root)
	}

	sort.Slice(corpus.Inputs, func(i, j int) bool {
		a, b := corpus.Inputs[i], corpus.Inputs[j]
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.Path < b.Path
	})

	if opts.RequireConfigs {
		configRoot, err := filepath.Abs(opts.ConfigRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config root: %w", err)
		}
		corpus.ConfigRoot = configRoot

		err = walkSuffix(ctx, configRoot, entities.ConfigSuffix, func(path string, _ fs.FileInfo) {
			name := strings.TrimSuffix(filepath.Base(path), entities.ConfigSuffix)
			corpus.Configs = append(corpus.Configs, entities.TestConfig{Path: path, Name: name})
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to scan configs %s: %w", configRoot, err)
		}
		if len(corpus.Configs) == 0 {
			return nil, fmt.Errorf("%w under %s", entities.ErrConfigsEmpty, configRoot)
		}

		sort.Slice(corpus.Configs, func(i, j int) bool {
			a, b := corpus.Configs[i], corpus.Configs[j]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.Path < b.Path
		})
	}

	c.logger.Info("Corpus discovered",
		interfaces.F("root", root),
		interfaces.F("clips", len(corpus.Inputs)),
		interfaces.F("configs", len(corpus.Configs)),
		interfaces.F("size", humanize.IBytes(uint64(corpus.TotalBytes()))), //nolint:gosec // G115: sizes are non-negative
	)

	return corpus, nil
}

// walkSuffix calls fn for every regular file under root whose name ends in suffix
func walkSuffix(ctx context.Context, root, suffix string, fn func(path string, info fs.FileInfo)) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		fn(path, info)
		return nil
	})
}
