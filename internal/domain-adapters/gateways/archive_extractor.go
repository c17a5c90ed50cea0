package gateways

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ochairo/aclmake/internal/domain/interfaces"
)

// defaultMaxEntrySize caps a single extracted file to guard against decompression bombs
const defaultMaxEntrySize = 4 << 30

// ArchiveExtractor unpacks test data archives (.zip, .tar, .tar.gz, .tgz,
// .tar.zst, .tzst)
type ArchiveExtractor struct {
	maxEntrySize int64
	logger       interfaces.Logger
}

// NewArchiveExtractor creates a new archive extractor
func NewArchiveExtractor(logger interfaces.Logger) *ArchiveExtractor {
	return &ArchiveExtractor{
		maxEntrySize: defaultMaxEntrySize,
		logger:       interfaces.OrNoOp(logger),
	}
}

// Extract unpacks archivePath into destDir, creating it when needed
func (x *ArchiveExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	name := strings.ToLower(filepath.Base(archivePath))

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	switch {
	case strings.HasSuffix(name, ".zip"):
		return x.extractZip(ctx, archivePath, destDir)
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return x.extractTarWith(ctx, archivePath, destDir, func(r io.Reader) (io.Reader, func(), error) {
			gzr, err := gzip.NewReader(r)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
			}
			//nolint:errcheck // Close on read-only gzip reader
			return gzr, func() { gzr.Close() }, nil
		})
	case strings.HasSuffix(name, ".tar.zst"), strings.HasSuffix(name, ".tzst"):
		return x.extractTarWith(ctx, archivePath, destDir, func(r io.Reader) (io.Reader, func(), error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
			}
			return zr, zr.Close, nil
		})
	case strings.HasSuffix(name, ".tar"):
		return x.extractTarWith(ctx, archivePath, destDir, func(r io.Reader) (io.Reader, func(), error) {
			return r, func() {}, nil
		})
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}
}

type decompressor func(io.Reader) (io.Reader, func(), error)

func (x *ArchiveExtractor) extractTarWith(ctx context.Context, archivePath, destDir string, open decompressor) error {
	//nolint:gosec // G304: archivePath comes from project configuration
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	r, closeFn, err := open(file)
	if err != nil {
		return err
	}
	defer closeFn()

	tr := tar.NewReader(r)

	// Collect symlinks for second pass (to handle cases where target doesn't exist yet)
	type symlinkInfo struct {
		target   string
		linkname string
	}
	var symlinks []symlinkInfo
	files := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("invalid file path in archive: %s", header.Name)
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			//nolint:gosec // G115: Integer overflow from tar header mode is acceptable
			if err := x.writeFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
			files++

		case tar.TypeSymlink:
			symlinks = append(symlinks, symlinkInfo{target: target, linkname: header.Linkname})

		default:
			x.logger.Warn("Ignoring unsupported archive entry",
				interfaces.F("type", string(header.Typeflag)),
				interfaces.F("name", header.Name))
		}
	}

	// Second pass: create symlinks after all files exist
	for _, link := range symlinks {
		if err := os.MkdirAll(filepath.Dir(link.target), 0750); err != nil {
			return fmt.Errorf("failed to create directory for symlink: %w", err)
		}
		if err := os.Symlink(link.linkname, link.target); err != nil {
			x.logger.Warn("Failed to create symlink",
				interfaces.F("link", link.target),
				interfaces.F("target", link.linkname),
				interfaces.Err(err))
		}
	}

	x.logger.Debug("Archive extracted", interfaces.F("dest", destDir), interfaces.F("files", files))
	return nil
}

func (x *ArchiveExtractor) extractZip(ctx context.Context, archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		if zr != nil {
			_ = zr.Close()
		}
		return fmt.Errorf("invalid file path in archive: %w", err)
	}
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	//nolint:errcheck // Defer close on read-only archive
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
		}
		err = x.writeFile(target, rc, f.Mode().Perm())
		_ = rc.Close()
		if err != nil {
			return err
		}
	}

	x.logger.Debug("Archive extracted", interfaces.F("dest", destDir), interfaces.F("files", len(zr.File)))
	return nil
}

// safeJoin resolves name under destDir and rejects entries escaping it
func safeJoin(destDir, name string) (string, error) {
	//nolint:gosec // G305: Path traversal validated below
	target := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path in archive: %s", name)
	}
	return target, nil
}

// writeFile copies r into target and fails, rather than truncating, when r
// holds more than maxEntrySize bytes
func (x *ArchiveExtractor) writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if mode == 0 {
		mode = 0600
	}

	//nolint:gosec // G304: target validated by safeJoin
	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(outFile, io.LimitReader(r, x.maxEntrySize+1))
	if err != nil {
		_ = outFile.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if written > x.maxEntrySize {
		_ = outFile.Close()
		return fmt.Errorf("archive entry %s exceeds %d bytes", filepath.Base(target), x.maxEntrySize)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}
