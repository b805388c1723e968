package sharecipher

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// LocalCipher implements Cipher with AES-256-GCM under a process-wide secret.
// The secret is provided once at startup and held read-only for the process
// lifetime; rotating it invalidates all previously encrypted shares.
type LocalCipher struct {
	secret []byte
}

// NewLocalCipher creates a local cipher from a hex-encoded 32-byte secret.
// Non-hex input is accepted and hashed to 32 bytes so operators can supply a
// passphrase in development.
func NewLocalCipher(secretHex string) (*LocalCipher, error) {
	if secretHex == "" {
		return nil, fmt.Errorf("secret is required for local share cipher")
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil || len(secret) != 32 {
		sum := sha256.Sum256([]byte(secretHex))
		secret = sum[:]
	}

	return &LocalCipher{secret: secret}, nil
}

// Encrypt seals the plaintext with AES-GCM, prepending the random nonce
func (c *LocalCipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	gcm, err := c.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a nonce-prefixed AES-GCM ciphertext
func (c *LocalCipher) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	gcm, err := c.aead()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

// Provider returns the backend name
func (c *LocalCipher) Provider() string {
	return string(ProviderLocal)
}

func (c *LocalCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

var _ Cipher = (*LocalCipher)(nil)
