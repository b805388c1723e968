package storage

import (
	"context"
	"fmt"
)

// ProvisionStore persists provisioning state. The share and wallet rows are
// written in one transaction: an account must never end up with a share but
// no wallet, which would block re-provisioning while leaving nothing usable.
type ProvisionStore struct {
	store   *Store
	shares  *KeyShareRepository
	wallets *WalletRepository
}

// NewProvisionStore creates a new ProvisionStore
func NewProvisionStore(store *Store) *ProvisionStore {
	return &ProvisionStore{
		store:   store,
		shares:  NewKeyShareRepository(store),
		wallets: NewWalletRepository(store),
	}
}

// GetShareByAccountID retrieves the encrypted key share for an account.
// Returns nil, nil when no share is on record.
func (p *ProvisionStore) GetShareByAccountID(ctx context.Context, accountID string) (*KeyShare, error) {
	return p.shares.GetByAccountID(ctx, accountID)
}

// GetWalletByAccountID retrieves the wallet for an account.
// Returns nil, nil when the account has no wallet.
func (p *ProvisionStore) GetWalletByAccountID(ctx context.Context, accountID string) (*Wallet, error) {
	return p.wallets.GetByAccountID(ctx, accountID)
}

// CreateWalletWithShare inserts the share and wallet rows atomically.
// Either both land or neither does.
func (p *ProvisionStore) CreateWalletWithShare(ctx context.Context, share *KeyShare, wallet *Wallet) error {
	tx, err := p.store.DB().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := p.shares.CreateTx(ctx, tx, share); err != nil {
		return err
	}

	if err := p.wallets.CreateTx(ctx, tx, wallet); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
