package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transfer is the audit record of a broadcast transfer. Rows exist only for
// submitted transactions: a failed request never persists partial state, so
// there is no pending status and no signed-but-unsubmitted payload on disk.
type Transfer struct {
	ID          uuid.UUID
	AccountID   string
	FromAddress string
	ToAddress   string
	ValueWei    string
	Nonce       int64
	GasLimit    int64
	GasPriceWei string
	ChainID     int64
	TxHash      string
	CreatedAt   time.Time
}

// TransferRepository handles transfer audit records
type TransferRepository struct {
	store *Store
}

// NewTransferRepository creates a new TransferRepository
func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

// Create records a submitted transfer
func (r *TransferRepository) Create(ctx context.Context, transfer *Transfer) error {
	query := `
		INSERT INTO transfers (
			id, account_id, from_address, to_address, value_wei,
			nonce, gas_limit, gas_price_wei, chain_id, tx_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.store.pool.Exec(ctx, query,
		transfer.ID,
		transfer.AccountID,
		transfer.FromAddress,
		transfer.ToAddress,
		transfer.ValueWei,
		transfer.Nonce,
		transfer.GasLimit,
		transfer.GasPriceWei,
		transfer.ChainID,
		transfer.TxHash,
	)

	if err != nil {
		return fmt.Errorf("failed to create transfer record: %w", err)
	}

	return nil
}

// GetByAccountID retrieves submitted transfers for an account, newest first
func (r *TransferRepository) GetByAccountID(ctx context.Context, accountID string, limit int) ([]*Transfer, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, account_id, from_address, to_address, value_wei,
		       nonce, gas_limit, gas_price_wei, chain_id, tx_hash, created_at
		FROM transfers
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.store.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*Transfer
	for rows.Next() {
		var transfer Transfer
		err := rows.Scan(
			&transfer.ID,
			&transfer.AccountID,
			&transfer.FromAddress,
			&transfer.ToAddress,
			&transfer.ValueWei,
			&transfer.Nonce,
			&transfer.GasLimit,
			&transfer.GasPriceWei,
			&transfer.ChainID,
			&transfer.TxHash,
			&transfer.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, &transfer)
	}

	return transfers, nil
}
