package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Wallet is the custodial wallet record for one account. The address is
// recorded at provisioning for lookups; the signing pipeline rediscovers it
// from the reconstructed key and never trusts this row for signing.
type Wallet struct {
	AccountID string
	Address   string
	ChainID   int64
	CreatedAt time.Time
}

// WalletRepository handles wallet data operations
type WalletRepository struct {
	store *Store
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(store *Store) *WalletRepository {
	return &WalletRepository{store: store}
}

// Create creates a new wallet record
func (r *WalletRepository) Create(ctx context.Context, wallet *Wallet) error {
	return r.CreateTx(ctx, r.store.pool, wallet)
}

// CreateTx creates a new wallet record using the provided transaction or
// connection
func (r *WalletRepository) CreateTx(ctx context.Context, db DBTX, wallet *Wallet) error {
	query := `
		INSERT INTO wallets (account_id, address, chain_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := db.QueryRow(ctx, query,
		wallet.AccountID,
		wallet.Address,
		wallet.ChainID,
	).Scan(&wallet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// GetByAccountID retrieves a wallet by account ID.
// Returns nil, nil when the account has no wallet.
func (r *WalletRepository) GetByAccountID(ctx context.Context, accountID string) (*Wallet, error) {
	query := `
		SELECT account_id, address, chain_id, created_at
		FROM wallets
		WHERE account_id = $1
	`

	var wallet Wallet
	err := r.store.pool.QueryRow(ctx, query, accountID).Scan(
		&wallet.AccountID,
		&wallet.Address,
		&wallet.ChainID,
		&wallet.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}
