package sharecipher

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// AWSKMSCipher implements Cipher using AWS KMS
type AWSKMSCipher struct {
	keyID  string
	region string
	client *kms.Client
}

// NewAWSKMSCipher creates an AWS KMS backed cipher.
// Uses the default credential chain: env vars, shared config, IAM role, etc.
func NewAWSKMSCipher(keyID, region string) (*AWSKMSCipher, error) {
	if keyID == "" {
		return nil, fmt.Errorf("AWS KMS key ID is required")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS region is required")
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSKMSCipher{
		keyID:  keyID,
		region: region,
		client: kms.NewFromConfig(cfg),
	}, nil
}

// Encrypt encrypts a share payload with AWS KMS
func (c *AWSKMSCipher) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	output, err := c.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(c.keyID),
		Plaintext: plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("AWS KMS encrypt failed: %w", err)
	}
	return output.CiphertextBlob, nil
}

// Decrypt decrypts a share payload with AWS KMS
func (c *AWSKMSCipher) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	output, err := c.client.Decrypt(ctx, &kms.DecryptInput{
		KeyId:          aws.String(c.keyID),
		CiphertextBlob: ciphertext,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: AWS KMS decrypt: %v", ErrDecryptionFailed, err)
	}
	return output.Plaintext, nil
}

// Provider returns the backend name
func (c *AWSKMSCipher) Provider() string {
	return string(ProviderAWSKMS)
}

var _ Cipher = (*AWSKMSCipher)(nil)
