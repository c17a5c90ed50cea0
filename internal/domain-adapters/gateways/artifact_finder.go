package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

// ArtifactFinder locates the compiled modules and their JS wrappers
type ArtifactFinder struct{}

// NewArtifactFinder creates a new artifact finder
func NewArtifactFinder() *ArtifactFinder {
	return &ArtifactFinder{}
}

// Resolve maps every configured pair to absolute paths and checks both files exist
func (f *ArtifactFinder) Resolve(installDir, jsDir string, pairs []entities.ArtifactConfig) ([]entities.Artifact, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no artifacts configured")
	}

	artifacts := make([]entities.Artifact, 0, len(pairs))
	for _, pair := range pairs {
		artifact := entities.Artifact{
			Name:        strings.TrimSuffix(filepath.Base(pair.Wasm), filepath.Ext(pair.Wasm)),
			Path:        resolveUnder(installDir, pair.Wasm),
			WrapperPath: resolveUnder(jsDir, pair.Wrapper),
		}

		if err := requireFile(artifact.Path); err != nil {
			return nil, fmt.Errorf("artifact %s not built: %w", artifact.Name, err)
		}
		if err := requireFile(artifact.WrapperPath); err != nil {
			return nil, fmt.Errorf("wrapper for %s missing: %w", artifact.Name, err)
		}

		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}

func resolveUnder(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
