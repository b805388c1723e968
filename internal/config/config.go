package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds infrastructure-level configuration loaded from the environment.
//
// ChainID is deliberately static configuration. It is never queried from the
// RPC provider: a misbehaving provider must not be able to redirect a
// signature to another network.
type Config struct {
	// Database
	PostgresDSN string

	// Chain
	RPCURL           string
	ChainID          int64
	TransferGasLimit uint64

	// Share cipher backend
	ShareCipherProvider string // local, aws-kms or vault
	ShareSecretHex      string
	AWSKMSKeyID         string
	AWSKMSRegion        string
	VaultAddress        string
	VaultToken          string
	VaultTransitKey     string

	// API
	APISecretHash    string // bcrypt hash; empty disables app auth
	RateLimitRPS     int
	RateLimitBurst   int
	RateLimitEnabled bool
	RequestTimeout   time.Duration
	Port             int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Checked while still signed; a negative value must not wrap around to a
	// huge uint64 and slip past the gas limit floor in Validate.
	transferGasLimit := getEnvInt("TRANSFER_GAS_LIMIT", 21000)
	if transferGasLimit < 0 {
		return nil, fmt.Errorf("invalid configuration: TRANSFER_GAS_LIMIT cannot be negative, got: %d", transferGasLimit)
	}

	cfg := &Config{
		PostgresDSN:         getEnv("POSTGRES_DSN", ""),
		RPCURL:              getEnv("RPC_URL", ""),
		ChainID:             int64(getEnvInt("CHAIN_ID", 80002)),
		TransferGasLimit:    uint64(transferGasLimit),
		ShareCipherProvider: getEnv("SHARE_CIPHER_PROVIDER", "local"),
		ShareSecretHex:      getEnv("SHARE_SECRET", ""),
		AWSKMSKeyID:         getEnv("AWS_KMS_KEY_ID", ""),
		AWSKMSRegion:        getEnv("AWS_KMS_REGION", ""),
		VaultAddress:        getEnv("VAULT_ADDR", ""),
		VaultToken:          getEnv("VAULT_TOKEN", ""),
		VaultTransitKey:     getEnv("VAULT_TRANSIT_KEY", ""),
		APISecretHash:       getEnv("API_SECRET_HASH", ""),
		RateLimitRPS:        getEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitEnabled:    getEnvBool("RATE_LIMIT_ENABLED", true),
		RequestTimeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		Port:                getEnvInt("PORT", 8080),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}

	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}

	if c.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID must be positive, got: %d", c.ChainID)
	}

	if c.TransferGasLimit < 21000 {
		return fmt.Errorf("TRANSFER_GAS_LIMIT must be at least 21000, got: %d", c.TransferGasLimit)
	}

	switch c.ShareCipherProvider {
	case "local":
		if c.ShareSecretHex == "" {
			return fmt.Errorf("SHARE_SECRET is required when SHARE_CIPHER_PROVIDER is 'local'")
		}
	case "aws-kms":
		if c.AWSKMSKeyID == "" || c.AWSKMSRegion == "" {
			return fmt.Errorf("AWS_KMS_KEY_ID and AWS_KMS_REGION are required when SHARE_CIPHER_PROVIDER is 'aws-kms'")
		}
	case "vault":
		if c.VaultAddress == "" || c.VaultToken == "" || c.VaultTransitKey == "" {
			return fmt.Errorf("VAULT_ADDR, VAULT_TOKEN and VAULT_TRANSIT_KEY are required when SHARE_CIPHER_PROVIDER is 'vault'")
		}
	default:
		return fmt.Errorf("SHARE_CIPHER_PROVIDER must be 'local', 'aws-kms' or 'vault', got: %s", c.ShareCipherProvider)
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}
