package services

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/ochairo/aclmake/internal/domain/interfaces"
)

// ChecksumService writes checksum files next to release artifacts
type ChecksumService struct {
	logger interfaces.Logger
}

// NewChecksumService creates a new checksum service
func NewChecksumService(logger interfaces.Logger) *ChecksumService {
	return &ChecksumService{logger: interfaces.OrNoOp(logger)}
}

// ChecksumFiles lists the generated checksum files
type ChecksumFiles struct {
	SHA256Path string
	SHA512Path string
}

// GenerateAll writes both .sha256 and .sha512 files for filePath
func (s *ChecksumService) GenerateAll(filePath string) (*ChecksumFiles, error) {
	sha256Path, err := s.GenerateSHA256(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SHA256: %w", err)
	}
	sha512Path, err := s.GenerateSHA512(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SHA512: %w", err)
	}
	s.logger.Info("Checksums written", interfaces.F("file", filepath.Base(filePath)))
	return &ChecksumFiles{SHA256Path: sha256Path, SHA512Path: sha512Path}, nil
}

// GenerateSHA256 generates SHA256 checksum file
func (s *ChecksumService) GenerateSHA256(filePath string) (string, error) {
	return writeChecksum(filePath, ".sha256", sha256.New())
}

// GenerateSHA512 generates SHA512 checksum file
func (s *ChecksumService) GenerateSHA512(filePath string) (string, error) {
	return writeChecksum(filePath, ".sha512", sha512.New())
}

func writeChecksum(filePath, ext string, h hash.Hash) (string, error) {
	sum, err := hashFile(filePath, h)
	if err != nil {
		return "", err
	}

	checksumPath := filePath + ext
	content := fmt.Sprintf("%s  %s\n", sum, filepath.Base(filePath))
	if err := os.WriteFile(checksumPath, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", ext, err)
	}
	return checksumPath, nil
}

func hashFile(filePath string, h hash.Hash) (string, error) {
	//nolint:gosec // G304: filePath is function parameter for checksum generation
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
