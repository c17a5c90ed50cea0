package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

// BuildManifest lists the corpus in scheduling order, each path relative to
// its own root and slash-separated.
func BuildManifest(corpus *entities.Corpus) (*entities.Manifest, error) {
	m := &entities.Manifest{
		Configs: make([]string, 0, len(corpus.Configs)),
		Clips:   make([]string, 0, len(corpus.Inputs)),
	}

	for _, cfg := range corpus.Configs {
		rel, err := filepath.Rel(corpus.ConfigRoot, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to relativize config %s: %w", cfg.Path, err)
		}
		m.Configs = append(m.Configs, filepath.ToSlash(rel))
	}

	for _, in := range corpus.Inputs {
		rel, err := filepath.Rel(corpus.Root, in.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to relativize clip %s: %w", in.Path, err)
		}
		m.Clips = append(m.Clips, filepath.ToSlash(rel))
	}

	return m, nil
}

// RenderManifest serializes a manifest as two bracketed list blocks
func RenderManifest(m *entities.Manifest) []byte {
	var buf bytes.Buffer
	writeBlock(&buf, "configs", m.Configs)
	buf.WriteByte('\n')
	writeBlock(&buf, "clips", m.Clips)
	return buf.Bytes()
}

func writeBlock(buf *bytes.Buffer, name string, paths []string) {
	fmt.Fprintf(buf, "%s = [\n", name)
	for _, p := range paths {
		fmt.Fprintf(buf, "\t%q\n", p)
	}
	buf.WriteString("]\n")
}

// WriteManifest writes the rendered manifest to path
func WriteManifest(path string, m *entities.Manifest) error {
	if err := os.WriteFile(path, RenderManifest(m), 0600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
