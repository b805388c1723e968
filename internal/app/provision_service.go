package app

import (
	"context"
	"fmt"

	"github.com/agentwallet/agentwallet/internal/crypto"
	"github.com/agentwallet/agentwallet/internal/logger"
	"github.com/agentwallet/agentwallet/internal/metrics"
	"github.com/agentwallet/agentwallet/internal/sharecipher"
	"github.com/agentwallet/agentwallet/internal/signer"
	"github.com/agentwallet/agentwallet/internal/storage"
	"github.com/agentwallet/agentwallet/internal/validation"
	apperrors "github.com/agentwallet/agentwallet/pkg/errors"
)

// keySharePayloadVersion is stored alongside the encrypted blob so a future
// payload format change can coexist with old rows
const keySharePayloadVersion = 1

// ProvisionStore persists provisioning state. CreateWalletWithShare must be
// atomic: a failed provisioning may not leave an orphan share behind, since
// the share row is the provisioning marker and would block every retry.
type ProvisionStore interface {
	GetShareByAccountID(ctx context.Context, accountID string) (*storage.KeyShare, error)
	GetWalletByAccountID(ctx context.Context, accountID string) (*storage.Wallet, error)
	CreateWalletWithShare(ctx context.Context, share *storage.KeyShare, wallet *storage.Wallet) error
}

// ProvisionService creates custodial wallets: it generates a key, splits it
// into Shamir fragments, encrypts the share payload and records the derived
// address. Plaintext key material exists only inside one Provision call.
type ProvisionService struct {
	store   ProvisionStore
	cipher  sharecipher.Cipher
	chainID int64
}

// NewProvisionService creates a new ProvisionService
func NewProvisionService(store ProvisionStore, cipher sharecipher.Cipher, chainID int64) *ProvisionService {
	return &ProvisionService{
		store:   store,
		cipher:  cipher,
		chainID: chainID,
	}
}

// Provision creates a wallet for an account. Idempotency is by refusal: an
// account with a share on record cannot be provisioned again.
func (s *ProvisionService) Provision(ctx context.Context, accountID string) (*storage.Wallet, error) {
	wallet, err := s.provision(ctx, accountID)
	metrics.RecordProvisionOutcome(outcomeKind(err))
	return wallet, err
}

func (s *ProvisionService) provision(ctx context.Context, accountID string) (*storage.Wallet, error) {
	if err := validation.ValidateAccountID(accountID); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	existing, err := s.store.GetShareByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("share lookup failed: %w", err)
	}
	if existing != nil {
		return nil, apperrors.AccountAlreadyProvisioned(accountID)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("key generation failed: %w", err)
	}
	defer crypto.ZeroKey(key)

	address := crypto.AddressOf(key)

	keyBytes := crypto.KeyToBytes(key)
	first, second, err := crypto.SplitKey(keyBytes)
	crypto.Zero(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("key split failed: %w", err)
	}

	payload, err := signer.EncodeShare(first, second)
	crypto.Zero(first)
	crypto.Zero(second)
	if err != nil {
		return nil, fmt.Errorf("share encoding failed: %w", err)
	}

	blob, err := s.cipher.Encrypt(ctx, payload)
	crypto.Zero(payload)
	if err != nil {
		return nil, fmt.Errorf("share encryption failed: %w", err)
	}

	share := &storage.KeyShare{
		AccountID:     accountID,
		BlobEncrypted: blob,
		CipherBackend: s.cipher.Provider(),
		Version:       keySharePayloadVersion,
	}
	wallet := &storage.Wallet{
		AccountID: accountID,
		Address:   address.Hex(),
		ChainID:   s.chainID,
	}

	// One transaction for both rows. A share without a wallet would wedge
	// the account: provisioning refused, nothing to look up.
	if err := s.store.CreateWalletWithShare(ctx, share, wallet); err != nil {
		return nil, fmt.Errorf("provisioning persistence failed: %w", err)
	}

	logger.Info(ctx, "wallet provisioned",
		"account_id", accountID,
		"address", wallet.Address,
		"cipher_backend", share.CipherBackend,
	)

	return wallet, nil
}

// GetWallet returns the wallet on record for an account
func (s *ProvisionService) GetWallet(ctx context.Context, accountID string) (*storage.Wallet, error) {
	if err := validation.ValidateAccountID(accountID); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	wallet, err := s.store.GetWalletByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("wallet lookup failed: %w", err)
	}
	if wallet == nil {
		return nil, apperrors.AccountNotProvisioned(accountID)
	}
	return wallet, nil
}
