package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// KeyShare is an encrypted key share blob on record for one account. The
// blob is opaque to the storage layer; plaintext never reaches it.
type KeyShare struct {
	AccountID     string
	BlobEncrypted []byte
	CipherBackend string
	Version       int
	CreatedAt     time.Time
}

// KeyShareRepository handles encrypted key share persistence
type KeyShareRepository struct {
	store *Store
}

// NewKeyShareRepository creates a new KeyShareRepository
func NewKeyShareRepository(store *Store) *KeyShareRepository {
	return &KeyShareRepository{store: store}
}

// Create stores a new encrypted key share. Each account holds at most one
// share; a second insert for the same account fails on the primary key.
func (r *KeyShareRepository) Create(ctx context.Context, share *KeyShare) error {
	return r.CreateTx(ctx, r.store.pool, share)
}

// CreateTx stores a new encrypted key share using the provided transaction
// or connection
func (r *KeyShareRepository) CreateTx(ctx context.Context, db DBTX, share *KeyShare) error {
	query := `
		INSERT INTO key_shares (account_id, blob_encrypted, cipher_backend, version)
		VALUES ($1, $2, $3, $4)
	`

	_, err := db.Exec(ctx, query,
		share.AccountID,
		share.BlobEncrypted,
		share.CipherBackend,
		share.Version,
	)

	if err != nil {
		return fmt.Errorf("failed to create key share: %w", err)
	}

	return nil
}

// GetByAccountID retrieves the encrypted key share for an account.
// Returns nil, nil when no share is on record. Concurrent reads for the
// same account are idempotent: they observe the same bytes.
func (r *KeyShareRepository) GetByAccountID(ctx context.Context, accountID string) (*KeyShare, error) {
	query := `
		SELECT account_id, blob_encrypted, cipher_backend, version, created_at
		FROM key_shares
		WHERE account_id = $1
	`

	var share KeyShare
	err := r.store.pool.QueryRow(ctx, query, accountID).Scan(
		&share.AccountID,
		&share.BlobEncrypted,
		&share.CipherBackend,
		&share.Version,
		&share.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key share: %w", err)
	}

	return &share, nil
}
