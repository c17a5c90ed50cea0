package gateways

import (
	"context"
)

// ArchiveExtractor unpacks an archive into destDir
type ArchiveExtractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// ArchiveVerifier checks the integrity of the test data archive before it is
// unpacked.
type ArchiveVerifier interface {
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
	VerifySignature(ctx context.Context, filePath, sigPath, keyringPath string) error
}
