// Package gpg provides OpenPGP detached signature verification.
package gpg

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const (
	armoredSignatureHeader = "-----BEGIN PGP SIGNATURE---"
	// Signatures are typically < 1KB
	maxSignatureSize = 64 * 1024
)

// Verifier checks detached signatures against a local keyring using
// ProtonMail's go-crypto. This is in external-adapters to isolate the
// external dependency.
type Verifier struct {
	mu      sync.RWMutex
	keyring openpgp.EntityList
}

// NewVerifier creates a new GPG verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{keyring: make(openpgp.EntityList, 0)}
}

// ImportKeyFromFile imports every public key of an armored or binary keyring file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath comes from project configuration
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Try reading as binary
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to reset file: %w", seekErr)
		}
		entities, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return fmt.Errorf("no keys found in file")
	}

	v.mu.Lock()
	v.keyring = append(v.keyring, entities...)
	v.mu.Unlock()
	return nil
}

// VerifySignatureFromFile verifies a detached signature from a local file and
// returns the signer's fingerprint
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) (string, error) {
	v.mu.RLock()
	keyring := v.keyring
	v.mu.RUnlock()

	if len(keyring) == 0 {
		return "", fmt.Errorf("no GPG keys imported, call ImportKeyFromFile first")
	}

	//nolint:gosec // G304: sigPath comes from project configuration
	sigData, err := os.ReadFile(sigPath)
	if err != nil {
		return "", fmt.Errorf("failed to open signature file: %w", err)
	}
	if len(sigData) > maxSignatureSize {
		return "", fmt.Errorf("signature file too large (%d bytes)", len(sigData))
	}
	if len(sigData) < 10 {
		return "", fmt.Errorf("signature file too small to be valid GPG signature")
	}

	//nolint:gosec // G304: filePath comes from project configuration
	dataFile, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer dataFile.Close()

	var signer *openpgp.Entity
	if bytes.HasPrefix(sigData, []byte(armoredSignatureHeader)) {
		signer, err = openpgp.CheckArmoredDetachedSignature(keyring, dataFile, bytes.NewReader(sigData), nil)
	} else {
		signer, err = openpgp.CheckDetachedSignature(keyring, dataFile, bytes.NewReader(sigData), nil)
	}
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}

	if signer == nil || signer.PrimaryKey == nil {
		return "", nil
	}
	return fmt.Sprintf("%X", signer.PrimaryKey.Fingerprint), nil
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keyring)
}

// ClearKeyring clears all imported keys
func (v *Verifier) ClearKeyring() {
	v.mu.Lock()
	v.keyring = make(openpgp.EntityList, 0)
	v.mu.Unlock()
}
