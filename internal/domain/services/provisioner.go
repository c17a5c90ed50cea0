package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
)

// ProvisionRequest describes the test data to materialize
type ProvisionRequest struct {
	Archive     string
	Dir         string
	ConfigsDir  string // relative to Dir unless absolute
	Missing     entities.MissingDataPolicy
	SHA256      string
	Signature   string
	Keyring     string
	WithConfigs bool
}

// ProvisionResult describes the materialized corpus
type ProvisionResult struct {
	Corpus       *entities.Corpus
	Manifest     *entities.Manifest
	ManifestPath string
	Extracted    bool
	// Skipped is set when the archive is missing under the optional policy
	Skipped bool
}

// Provisioner ensures the regression corpus is on disk and writes its manifest
type Provisioner struct {
	extractor gateways.ArchiveExtractor
	verifier  gateways.ArchiveVerifier
	index     *CorpusIndex
	logger    interfaces.Logger
}

// NewProvisioner creates a new provisioner. verifier may be nil when no
// checksum or signature is ever configured.
func NewProvisioner(
	extractor gateways.ArchiveExtractor,
	verifier gateways.ArchiveVerifier,
	index *CorpusIndex,
	logger interfaces.Logger,
) *Provisioner {
	return &Provisioner{
		extractor: extractor,
		verifier:  verifier,
		index:     index,
		logger:    interfaces.OrNoOp(logger),
	}
}

// Provision extracts the archive unless the data directory already exists,
// then discovers the corpus and writes the manifest.
func (p *Provisioner) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	result := &ProvisionResult{}

	extracted, err := dirExists(req.Dir)
	if err != nil {
		return nil, err
	}

	if !extracted {
		if _, err := os.Stat(req.Archive); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to stat test data archive: %w", err)
			}
			if req.Missing == entities.MissingDataOptional {
				p.logger.Warn("Test data archive not found, skipping regression data",
					interfaces.F("archive", req.Archive))
				result.Skipped = true
				return result, nil
			}
			return nil, fmt.Errorf("%w: %s", entities.ErrDataMissing, req.Archive)
		}

		if err := p.verify(ctx, req); err != nil {
			return nil, err
		}

		if err := p.extract(ctx, req.Archive, req.Dir); err != nil {
			return nil, err
		}
		result.Extracted = true
	} else {
		p.logger.Debug("Test data already extracted", interfaces.F("dir", req.Dir))
	}

	configsDir := req.ConfigsDir
	if configsDir != "" && !filepath.IsAbs(configsDir) {
		configsDir = filepath.Join(req.Dir, configsDir)
	}

	corpus, err := p.index.Discover(ctx, CorpusOptions{
		Root:           req.Dir,
		ConfigRoot:     configsDir,
		RequireConfigs: req.WithConfigs,
	})
	if err != nil {
		return nil, err
	}
	result.Corpus = corpus

	manifest, err := BuildManifest(corpus)
	if err != nil {
		return nil, err
	}
	result.Manifest = manifest
	result.ManifestPath = filepath.Join(req.Dir, entities.ManifestFileName)

	if err := WriteManifest(result.ManifestPath, manifest); err != nil {
		return nil, err
	}
	p.logger.Info("Manifest written", interfaces.F("path", result.ManifestPath))

	return result, nil
}

func (p *Provisioner) verify(ctx context.Context, req ProvisionRequest) error {
	if req.SHA256 == "" && req.Signature == "" {
		return nil
	}
	if p.verifier == nil {
		return fmt.Errorf("archive verification requested but no verifier is configured")
	}

	if req.SHA256 != "" {
		if err := p.verifier.VerifyChecksum(ctx, req.Archive, req.SHA256); err != nil {
			return fmt.Errorf("test data archive rejected: %w", err)
		}
		p.logger.Debug("Archive checksum verified", interfaces.F("archive", req.Archive))
	}

	if req.Signature != "" {
		if err := p.verifier.VerifySignature(ctx, req.Archive, req.Signature, req.Keyring); err != nil {
			return fmt.Errorf("test data archive rejected: %w", err)
		}
		p.logger.Debug("Archive signature verified", interfaces.F("signature", req.Signature))
	}

	return nil
}

// extract unpacks into a temporary sibling and renames it into place, so a
// half-extracted tree is never mistaken for a finished one.
func (p *Provisioner) extract(ctx context.Context, archive, dir string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0750); err != nil {
		return fmt.Errorf("failed to create data parent directory: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-extract-")
	if err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}
	//nolint:errcheck // Best-effort cleanup; tmp is gone after a successful rename
	defer os.RemoveAll(tmp)

	p.logger.Info("Extracting test data", interfaces.F("archive", archive), interfaces.F("dir", dir))
	if err := p.extractor.Extract(ctx, archive, tmp); err != nil {
		return fmt.Errorf("failed to extract test data: %w", err)
	}

	// Archives commonly wrap everything in a single top-level directory
	src := tmp
	entries, err := os.ReadDir(tmp)
	if err != nil {
		return fmt.Errorf("failed to read extracted directory: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		src = filepath.Join(tmp, entries[0].Name())
	}

	if err := os.Rename(src, dir); err != nil {
		return fmt.Errorf("failed to move extracted data into place: %w", err)
	}
	return nil
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s exists and is not a directory", path)
	}
	return true, nil
}
