package sharecipher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestCipher(t *testing.T) *LocalCipher {
	t.Helper()
	c, err := NewLocalCipher(testSecretHex)
	require.NoError(t, err)
	return c
}

func TestNewLocalCipher(t *testing.T) {
	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := NewLocalCipher("")
		assert.Error(t, err)
	})

	t.Run("hex secret accepted", func(t *testing.T) {
		_, err := NewLocalCipher(testSecretHex)
		assert.NoError(t, err)
	})

	t.Run("passphrase secret accepted", func(t *testing.T) {
		_, err := NewLocalCipher("not-hex-but-a-passphrase")
		assert.NoError(t, err)
	})
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	c := newTestCipher(t)
	ctx := context.Background()

	for _, share := range [][]byte{
		[]byte("share"),
		{0x00, 0x01, 0x02},
		make([]byte, 1024),
	} {
		ciphertext, err := c.Encrypt(ctx, share)
		require.NoError(t, err)
		assert.NotEqual(t, share, ciphertext)

		plaintext, err := c.Decrypt(ctx, ciphertext)
		require.NoError(t, err)
		assert.Equal(t, share, plaintext)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	c := newTestCipher(t)
	ctx := context.Background()

	first, err := c.Encrypt(ctx, []byte("share"))
	require.NoError(t, err)
	second, err := c.Encrypt(ctx, []byte("share"))
	require.NoError(t, err)

	// Fresh nonce per call
	assert.NotEqual(t, first, second)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	c := newTestCipher(t)
	ctx := context.Background()

	ciphertext, err := c.Encrypt(ctx, []byte("sensitive share bytes"))
	require.NoError(t, err)

	// Flipping any byte must fail the AEAD tag check, never return a
	// different plaintext.
	for _, pos := range []int{0, len(ciphertext) / 2, len(ciphertext) - 1} {
		tampered := make([]byte, len(ciphertext))
		copy(tampered, ciphertext)
		tampered[pos] ^= 0x01

		_, err := c.Decrypt(ctx, tampered)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDecryptionFailed))
	}
}

func TestDecryptTruncatedCiphertext(t *testing.T) {
	c := newTestCipher(t)

	_, err := c.Decrypt(context.Background(), []byte{0x01, 0x02})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
}

func TestDecryptWithRotatedSecret(t *testing.T) {
	ctx := context.Background()
	c := newTestCipher(t)

	ciphertext, err := c.Encrypt(ctx, []byte("share"))
	require.NoError(t, err)

	rotated, err := NewLocalCipher("1f1e1d1c1b1a191817161514131211100f0e0d0c0b0a09080706050403020100")
	require.NoError(t, err)

	_, err = rotated.Decrypt(ctx, ciphertext)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
}

func TestFactory(t *testing.T) {
	t.Run("defaults to local", func(t *testing.T) {
		c, err := New(&Config{SecretHex: testSecretHex})
		require.NoError(t, err)
		assert.Equal(t, "local", c.Provider())
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(&Config{Provider: "hsm"})
		assert.Error(t, err)
	})
}
