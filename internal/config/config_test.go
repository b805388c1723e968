package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		PostgresDSN:         "postgres://localhost/wallet",
		RPCURL:              "https://rpc-amoy.polygon.technology",
		ChainID:             80002,
		TransferGasLimit:    21000,
		ShareCipherProvider: "local",
		ShareSecretHex:      "0011223344556677889900112233445566778899001122334455667788990011",
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/wallet")
	t.Setenv("RPC_URL", "https://rpc-amoy.polygon.technology")
	t.Setenv("SHARE_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(80002), cfg.ChainID)
	assert.Equal(t, uint64(21000), cfg.TransferGasLimit)
	assert.Equal(t, "local", cfg.ShareCipherProvider)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.RateLimitEnabled)
}

func TestLoadRejectsNegativeGasLimit(t *testing.T) {
	// A negative value must fail loading outright, not wrap around to a
	// huge uint64 that clears the 21000 floor
	t.Setenv("POSTGRES_DSN", "postgres://localhost/wallet")
	t.Setenv("RPC_URL", "https://rpc-amoy.polygon.technology")
	t.Setenv("SHARE_SECRET", "secret")
	t.Setenv("TRANSFER_GAS_LIMIT", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSFER_GAS_LIMIT")
}

func TestValidate(t *testing.T) {
	t.Run("valid local config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing dsn", func(t *testing.T) {
		cfg := validConfig()
		cfg.PostgresDSN = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing rpc url", func(t *testing.T) {
		cfg := validConfig()
		cfg.RPCURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive chain id", func(t *testing.T) {
		cfg := validConfig()
		cfg.ChainID = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("gas limit below transfer minimum", func(t *testing.T) {
		cfg := validConfig()
		cfg.TransferGasLimit = 20000
		assert.Error(t, cfg.Validate())
	})

	t.Run("local provider requires secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.ShareSecretHex = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("aws-kms provider requires key and region", func(t *testing.T) {
		cfg := validConfig()
		cfg.ShareCipherProvider = "aws-kms"
		assert.Error(t, cfg.Validate())

		cfg.AWSKMSKeyID = "alias/wallet-shares"
		cfg.AWSKMSRegion = "eu-west-1"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("vault provider requires address token and key", func(t *testing.T) {
		cfg := validConfig()
		cfg.ShareCipherProvider = "vault"
		assert.Error(t, cfg.Validate())

		cfg.VaultAddress = "https://vault:8200"
		cfg.VaultToken = "s.token"
		cfg.VaultTransitKey = "wallet-shares"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.ShareCipherProvider = "hsm"
		assert.Error(t, cfg.Validate())
	})
}
