package gateways

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/domain/interfaces/gateways"
	"github.com/ochairo/aclmake/internal/domain/services"
)

// Packager stages the JS tree and runs npm pack on it
type Packager struct {
	executor  *CommandExecutor
	checksums *services.ChecksumService
	logger    interfaces.Logger
}

// NewPackager creates a new packager
func NewPackager(executor *CommandExecutor, checksums *services.ChecksumService, logger interfaces.Logger) *Packager {
	return &Packager{
		executor:  executor,
		checksums: checksums,
		logger:    interfaces.OrNoOp(logger),
	}
}

// Pack recreates the staging directory, runs the pack command there and
// writes checksums beside the produced tarball
func (p *Packager) Pack(ctx context.Context, req gateways.PackRequest) (*gateways.PackResult, error) {
	p.logger.Info("Packaging NPM module", interfaces.F("staging", req.StagingDir))

	if err := os.RemoveAll(req.StagingDir); err != nil {
		return nil, fmt.Errorf("failed to clean staging directory: %w", err)
	}

	if err := copyTree(req.JSDir, req.StagingDir); err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", req.JSDir, err)
	}

	for _, name := range req.ExtraFiles {
		src := filepath.Join(req.RootDir, name)
		if err := copyFile(src, filepath.Join(req.StagingDir, filepath.Base(name))); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", name, err)
		}
	}

	for _, dir := range req.RemoveDirs {
		target, err := safeJoin(req.StagingDir, dir)
		if err != nil {
			return nil, err
		}
		if err := os.RemoveAll(target); err != nil {
			return nil, fmt.Errorf("failed to remove %s from staging: %w", dir, err)
		}
	}

	command := req.Command
	if command == "" {
		command = "npm pack"
	}

	result, err := p.executor.RunStep(ctx, "pack", gateways.CommandRequest{
		Command:    command,
		WorkingDir: req.StagingDir,
		Env:        req.Env,
	})
	if err != nil {
		return nil, err
	}

	tarball, err := findTarball(req.StagingDir, result.Stdout)
	if err != nil {
		return nil, err
	}

	sums, err := p.checksums.GenerateAll(tarball)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum package: %w", err)
	}

	p.logger.Info("Package created",
		interfaces.F("tarball", tarball),
		interfaces.F("checksum", sums.SHA256Path))

	return &gateways.PackResult{TarballPath: tarball, ChecksumPath: sums.SHA256Path}, nil
}

// findTarball prefers the file name npm prints last and falls back to the
// only .tgz in the staging directory
func findTarball(stagingDir, stdout string) (string, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); strings.HasSuffix(last, ".tgz") {
		path := filepath.Join(stagingDir, filepath.Base(last))
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	matches, err := filepath.Glob(filepath.Join(stagingDir, "*.tgz"))
	if err != nil {
		return "", fmt.Errorf("failed to search for package: %w", err)
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("expected one .tgz in %s, found %d", stagingDir, len(matches))
	}
	return matches[0], nil
}

// copyTree copies src into dst, preserving modes and symlinks
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read symlink: %w", err)
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			return copyFile(path, target)
		default:
			return nil
		}
	})
}

func copyFile(src, dst string) error {
	//nolint:gosec // G304: src is inside the project tree
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return err
	}

	//nolint:gosec // G304: dst is inside the staging directory
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
