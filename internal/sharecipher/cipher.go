// Package sharecipher encrypts and decrypts custodial key shares at rest.
// The backend is pluggable: a local AES-GCM secret, AWS KMS or HashiCorp
// Vault Transit. All backends guarantee that tampered or malformed
// ciphertext fails with ErrDecryptionFailed rather than decrypting to
// garbage plaintext.
package sharecipher

import (
	"context"
	"errors"
	"fmt"
)

// ErrDecryptionFailed is returned when ciphertext cannot be recovered with
// the configured secret. It indicates secret rotation or data corruption and
// is kept distinguishable from a structurally invalid plaintext share.
var ErrDecryptionFailed = errors.New("share decryption failed")

// Cipher encrypts and decrypts key share blobs
type Cipher interface {
	// Encrypt encrypts a plaintext share payload
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt decrypts an encrypted share payload. Returns an error wrapping
	// ErrDecryptionFailed when the ciphertext is malformed or tampered.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Provider returns the backend name (e.g. "local", "aws-kms", "vault")
	Provider() string
}

// ProviderType identifies a supported cipher backend
type ProviderType string

const (
	// ProviderLocal uses a process-wide AES-GCM secret (development or
	// simple self-hosted deployments)
	ProviderLocal ProviderType = "local"

	// ProviderAWSKMS uses AWS KMS
	ProviderAWSKMS ProviderType = "aws-kms"

	// ProviderVault uses HashiCorp Vault Transit engine
	ProviderVault ProviderType = "vault"
)

// Config contains configuration for cipher backends
type Config struct {
	// Provider selects the backend
	Provider string

	// Local backend
	SecretHex string

	// AWS KMS backend
	AWSKMSKeyID  string
	AWSKMSRegion string

	// Vault backend
	VaultAddress    string
	VaultToken      string
	VaultTransitKey string
}

// New creates a Cipher for the configured backend
func New(cfg *Config) (Cipher, error) {
	switch ProviderType(cfg.Provider) {
	case ProviderLocal, "":
		return NewLocalCipher(cfg.SecretHex)

	case ProviderAWSKMS:
		return NewAWSKMSCipher(cfg.AWSKMSKeyID, cfg.AWSKMSRegion)

	case ProviderVault:
		return NewVaultCipher(cfg.VaultAddress, cfg.VaultToken, cfg.VaultTransitKey)

	default:
		return nil, fmt.Errorf("unsupported share cipher provider: %s (supported: %s, %s, %s)",
			cfg.Provider, ProviderLocal, ProviderAWSKMS, ProviderVault)
	}
}
