package services

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ochairo/aclmake/internal/domain/entities"
	"github.com/ochairo/aclmake/internal/domain/interfaces"
)

var (
	compiledWithLine = regexp.MustCompile(`^([ \t]*// Compiled with ).*$`)
	wasmBlobLine     = regexp.MustCompile(`^([ \t]*export const wasmBinaryBlob =) "[<>_\w\d]*"$`)
)

// PatchWrapper rewrites the toolchain placeholder line and the blob literal
// line of a JS wrapper. Both anchors must be present. Applying the patch to
// its own output with the same inputs returns identical bytes.
func PatchWrapper(src []byte, version string, wasm []byte) ([]byte, error) {
	version = firstLine(version)
	blob := hex.EncodeToString(wasm)

	lines := strings.Split(string(src), "\n")
	var sawVersion, sawBlob bool

	for i, line := range lines {
		body, cr := strings.CutSuffix(line, "\r")
		suffix := ""
		if cr {
			suffix = "\r"
		}

		if m := compiledWithLine.FindStringSubmatch(body); m != nil {
			lines[i] = m[1] + version + suffix
			sawVersion = true
			continue
		}
		if m := wasmBlobLine.FindStringSubmatch(body); m != nil {
			lines[i] = m[1] + ` "` + blob + `"` + suffix
			sawBlob = true
		}
	}

	if !sawVersion {
		return nil, fmt.Errorf("%w: no \"// Compiled with\" line", entities.ErrAnchorMissing)
	}
	if !sawBlob {
		return nil, fmt.Errorf("%w: no \"export const wasmBinaryBlob\" line", entities.ErrAnchorMissing)
	}

	return []byte(strings.Join(lines, "\n")), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// WrapperPatcher applies PatchWrapper to files on disk
type WrapperPatcher struct {
	logger interfaces.Logger
}

// NewWrapperPatcher creates a new wrapper patcher
func NewWrapperPatcher(logger interfaces.Logger) *WrapperPatcher {
	return &WrapperPatcher{logger: interfaces.OrNoOp(logger)}
}

// PatchFile embeds the artifact into its wrapper. The wrapper is left
// untouched when an anchor is missing.
func (p *WrapperPatcher) PatchFile(artifact entities.Artifact, version string) (*entities.PatchResult, error) {
	//nolint:gosec // G304: artifact path comes from project configuration
	wasm, err := os.ReadFile(artifact.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", artifact.Path, err)
	}

	//nolint:gosec // G304: wrapper path comes from project configuration
	src, err := os.ReadFile(artifact.WrapperPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wrapper %s: %w", artifact.WrapperPath, err)
	}

	patched, err := PatchWrapper(src, version, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to patch %s: %w", artifact.WrapperPath, err)
	}

	result := &entities.PatchResult{
		WrapperPath: artifact.WrapperPath,
		Version:     firstLine(version),
		BlobBytes:   len(wasm),
		Changed:     !bytes.Equal(src, patched),
	}

	if result.Changed {
		info, err := os.Stat(artifact.WrapperPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat wrapper: %w", err)
		}
		if err := os.WriteFile(artifact.WrapperPath, patched, info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("failed to write wrapper: %w", err)
		}
	}

	p.logger.Info("Patched wrapper",
		interfaces.F("wrapper", artifact.WrapperPath),
		interfaces.F("artifact", artifact.Name),
		interfaces.F("changed", result.Changed))

	return result, nil
}
