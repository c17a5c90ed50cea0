package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ochairo/aclmake/internal/domain/interfaces"
	"github.com/ochairo/aclmake/internal/external-adapters/gpg"
)

// ArchiveVerifier checks the test data archive against a SHA-256 digest and
// a detached OpenPGP signature. Pure Go; no sha256sum or gpg binary needed.
type ArchiveVerifier struct {
	logger interfaces.Logger
}

// NewArchiveVerifier creates a new archive verifier
func NewArchiveVerifier(logger interfaces.Logger) *ArchiveVerifier {
	return &ArchiveVerifier{logger: interfaces.OrNoOp(logger)}
}

// VerifyChecksum verifies a file's SHA-256 digest. expectedSum may carry a
// "sha256:" prefix or be a line of a sha256sum file.
func (v *ArchiveVerifier) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	expected := normalizeDigest(expectedSum)
	if len(expected) != sha256.Size*2 {
		return fmt.Errorf("invalid sha256 digest %q", expectedSum)
	}

	actualSum, err := v.CalculateChecksum(ctx, filePath)
	if err != nil {
		return err
	}

	if actualSum != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actualSum)
	}

	return nil
}

// CalculateChecksum calculates the SHA-256 digest of a file
func (v *ArchiveVerifier) CalculateChecksum(ctx context.Context, filePath string) (string, error) {
	//nolint:gosec // G304: File path comes from project configuration
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, &ctxReader{ctx: ctx, r: f}); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifySignature verifies a detached signature with a fresh keyring loaded
// from keyringPath
func (v *ArchiveVerifier) VerifySignature(_ context.Context, filePath, sigPath, keyringPath string) error {
	if keyringPath == "" {
		return fmt.Errorf("signature configured without a keyring")
	}

	verifier := gpg.NewVerifier()
	if err := verifier.ImportKeyFromFile(keyringPath); err != nil {
		return fmt.Errorf("failed to import GPG key from file: %w", err)
	}

	signer, err := verifier.VerifySignatureFromFile(filePath, sigPath)
	if err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}

	v.logger.Debug("Signature verified",
		interfaces.F("file", filePath),
		interfaces.F("signer", signer),
		interfaces.F("keys", verifier.GetKeyringSize()))
	return nil
}

func normalizeDigest(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "sha256:")
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}
	return s
}

// ctxReader stops a long copy once ctx is cancelled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
