package sharecipher

import (
	"context"
	"encoding/base64"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

// VaultCipher implements Cipher using HashiCorp Vault Transit engine
type VaultCipher struct {
	transitKey string
	client     *vault.Client
}

// NewVaultCipher creates a Vault Transit backed cipher
func NewVaultCipher(address, token, transitKey string) (*VaultCipher, error) {
	if address == "" {
		return nil, fmt.Errorf("Vault address is required")
	}
	if token == "" {
		return nil, fmt.Errorf("Vault token is required")
	}
	if transitKey == "" {
		return nil, fmt.Errorf("Vault transit key name is required")
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(token)

	return &VaultCipher{
		transitKey: transitKey,
		client:     client,
	}, nil
}

// Encrypt encrypts a share payload via the Transit engine.
// Transit requires base64-encoded plaintext; the returned ciphertext is the
// vault:v1:... string as bytes.
func (c *VaultCipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	path := fmt.Sprintf("transit/encrypt/%s", c.transitKey)
	secret, err := c.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"plaintext": base64.StdEncoding.EncodeToString(plaintext),
	})
	if err != nil {
		return nil, fmt.Errorf("Vault Transit encrypt failed: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("Vault Transit encrypt returned empty response")
	}

	ciphertext, ok := secret.Data["ciphertext"].(string)
	if !ok {
		return nil, fmt.Errorf("Vault Transit encrypt: ciphertext not found in response")
	}

	return []byte(ciphertext), nil
}

// Decrypt decrypts a share payload via the Transit engine
func (c *VaultCipher) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	path := fmt.Sprintf("transit/decrypt/%s", c.transitKey)
	secret, err := c.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"ciphertext": string(ciphertext),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: Vault Transit decrypt: %v", ErrDecryptionFailed, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: Vault Transit decrypt returned empty response", ErrDecryptionFailed)
	}

	plaintextB64, ok := secret.Data["plaintext"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: Vault Transit decrypt: plaintext not found in response", ErrDecryptionFailed)
	}

	plaintext, err := base64.StdEncoding.DecodeString(plaintextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode plaintext: %v", ErrDecryptionFailed, err)
	}

	return plaintext, nil
}

// Provider returns the backend name
func (c *VaultCipher) Provider() string {
	return string(ProviderVault)
}

var _ Cipher = (*VaultCipher)(nil)
