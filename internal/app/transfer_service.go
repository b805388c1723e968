// Package app contains the application services: the transfer pipeline
// orchestrator and wallet provisioning. The orchestrator sequences share
// fetch, decryption, session reconstruction, envelope building, signing and
// broadcast, translating every failure into a caller-facing error kind.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/agentwallet/agentwallet/internal/crypto"
	"github.com/agentwallet/agentwallet/internal/logger"
	"github.com/agentwallet/agentwallet/internal/metrics"
	"github.com/agentwallet/agentwallet/internal/sharecipher"
	"github.com/agentwallet/agentwallet/internal/signer"
	"github.com/agentwallet/agentwallet/internal/storage"
	"github.com/agentwallet/agentwallet/internal/txbuilder"
	"github.com/agentwallet/agentwallet/internal/validation"
	apperrors "github.com/agentwallet/agentwallet/pkg/errors"
)

// ShareStore fetches encrypted key shares by account
type ShareStore interface {
	GetByAccountID(ctx context.Context, accountID string) (*storage.KeyShare, error)
}

// TransferLog records submitted transfers and serves history reads. Only
// successful submissions are recorded; failed requests leave no partial
// state behind.
type TransferLog interface {
	Create(ctx context.Context, transfer *storage.Transfer) error
	GetByAccountID(ctx context.Context, accountID string, limit int) ([]*storage.Transfer, error)
}

// RPCProvider is the full RPC surface the pipeline consumes: build-time
// queries, the funds pre-flight and broadcast. It never supplies the chain
// identifier.
type RPCProvider interface {
	txbuilder.Provider
	GetBalance(ctx context.Context, address common.Address) (*big.Int, error)
	SendRawTransaction(ctx context.Context, signedTx *ethtypes.Transaction) (string, error)
}

// TransferService orchestrates the custodial signing pipeline
type TransferService struct {
	shares      ShareStore
	cipher      sharecipher.Cipher
	builder     *txbuilder.Builder
	provider    RPCProvider
	transferLog TransferLog
}

// NewTransferService creates a new TransferService
func NewTransferService(
	shares ShareStore,
	cipher sharecipher.Cipher,
	builder *txbuilder.Builder,
	provider RPCProvider,
	transferLog TransferLog,
) *TransferService {
	return &TransferService{
		shares:      shares,
		cipher:      cipher,
		builder:     builder,
		provider:    provider,
		transferLog: transferLog,
	}
}

// SendRequest is a validated-at-the-boundary transfer request. All fields
// are explicit request parameters; the pipeline never recovers the account
// from ambient state.
type SendRequest struct {
	AccountID string
	To        string
	Amount    string // decimal whole-coin units, e.g. "1.5"
}

// SendResult is returned after successful broadcast. TxHash acknowledges
// submission, not finality.
type SendResult struct {
	TxHash      string
	FromAddress string
	AmountWei   *big.Int
	Nonce       uint64
}

// Send runs one transfer request through the signing pipeline. Concurrent
// requests for the same account are not serialized here: both fetch a fresh
// nonce and the network arbitrates, so a nonce-conflict BroadcastFailed is
// retryable by rebuilding, never by resubmitting the same payload.
func (s *TransferService) Send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	result, err := s.send(ctx, req)
	metrics.RecordTransferOutcome(outcomeKind(err))
	return result, err
}

func (s *TransferService) send(ctx context.Context, req *SendRequest) (*SendResult, error) {
	// Boundary validation before any storage or RPC access. The front-end
	// runs the same checks but is untrusted.
	if err := validation.ValidateAccountID(req.AccountID); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if err := validation.ValidateRecipient(req.To); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	amountWei, err := validation.ParseAmount(req.Amount)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	p := newPipeline()
	defer func() {
		if p.current() != stateDone {
			p.fail()
		}
	}()

	// Share fetch
	start := time.Now()
	share, err := s.shares.GetByAccountID(ctx, req.AccountID)
	metrics.PipelineStepDuration.WithLabelValues("share_fetch").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("share fetch failed: %w", err)
	}
	if share == nil {
		return nil, apperrors.AccountNotProvisioned(req.AccountID)
	}
	if err := p.advance(stateShareFetched); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request cancelled: %w", err)
	}

	// Share decrypt. Plaintext is wiped on every exit path from here on.
	start = time.Now()
	plaintext, err := s.cipher.Decrypt(ctx, share.BlobEncrypted)
	metrics.PipelineStepDuration.WithLabelValues("share_decrypt").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, sharecipher.ErrDecryptionFailed) {
			return nil, apperrors.DecryptionFailed(err.Error())
		}
		return nil, fmt.Errorf("share decrypt failed: %w", err)
	}
	defer crypto.Zero(plaintext)
	if err := p.advance(stateShareDecrypted); err != nil {
		return nil, err
	}

	// Session open
	session, err := signer.Open(plaintext)
	if err != nil {
		if errors.Is(err, signer.ErrInvalidShare) {
			return nil, apperrors.InvalidShare(err.Error())
		}
		return nil, fmt.Errorf("session open failed: %w", err)
	}
	defer session.Close()
	if err := p.advance(stateSessionOpen); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request cancelled: %w", err)
	}

	// Envelope build: fresh nonce and fee, static chain ID
	from := session.Address()
	start = time.Now()
	envelope, err := s.builder.Build(ctx, from, req.To, amountWei)
	metrics.PipelineStepDuration.WithLabelValues("build").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if err := p.advance(stateEnvelopeBuilt); err != nil {
		return nil, err
	}

	// Funds pre-flight. The network would reject at broadcast anyway;
	// checking here avoids signing a transaction that cannot be accepted.
	balance, err := s.provider.GetBalance(ctx, from)
	if err != nil {
		return nil, apperrors.BuildFailed("balance lookup failed: " + err.Error())
	}
	required := new(big.Int).Mul(new(big.Int).SetUint64(envelope.GasLimit), envelope.GasPrice)
	required.Add(required, envelope.Value)
	if balance.Cmp(required) < 0 {
		return nil, apperrors.BroadcastFailed("insufficient funds for value and gas")
	}

	// Sign
	start = time.Now()
	signed, err := session.Sign(envelope)
	metrics.PipelineStepDuration.WithLabelValues("sign").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, apperrors.SigningFailed(err.Error())
	}
	if err := p.advance(stateSigned); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request cancelled: %w", err)
	}

	// Broadcast. Not retried: resubmitting an unmodified nonce after a
	// nonce conflict is unsafe without rebuilding the envelope.
	start = time.Now()
	txHash, err := s.provider.SendRawTransaction(ctx, signed.Tx)
	metrics.PipelineStepDuration.WithLabelValues("broadcast").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, apperrors.BroadcastFailed(err.Error())
	}
	if err := p.advance(stateSubmitted); err != nil {
		return nil, err
	}

	// Past the point of no return: the transaction is on the network.
	// The audit record is best effort and never fails the request.
	s.recordTransfer(ctx, req, envelope, txHash)

	if err := p.advance(stateDone); err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer submitted",
		"account_id", req.AccountID,
		"from", from.Hex(),
		"to", req.To,
		"nonce", envelope.Nonce,
		"tx_hash", txHash,
	)

	return &SendResult{
		TxHash:      txHash,
		FromAddress: from.Hex(),
		AmountWei:   amountWei,
		Nonce:       envelope.Nonce,
	}, nil
}

// History returns the submitted transfers on record for an account, newest
// first. Only broadcast transactions appear; there is no pending state.
func (s *TransferService) History(ctx context.Context, accountID string, limit int) ([]*storage.Transfer, error) {
	if err := validation.ValidateAccountID(accountID); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	if s.transferLog == nil {
		return nil, nil
	}

	transfers, err := s.transferLog.GetByAccountID(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("transfer history lookup failed: %w", err)
	}
	return transfers, nil
}

// recordTransfer writes the audit row for a submitted transfer
func (s *TransferService) recordTransfer(ctx context.Context, req *SendRequest, envelope *txbuilder.Envelope, txHash string) {
	if s.transferLog == nil {
		return
	}

	record := &storage.Transfer{
		ID:          uuid.New(),
		AccountID:   req.AccountID,
		FromAddress: envelope.From.Hex(),
		ToAddress:   envelope.To.Hex(),
		ValueWei:    envelope.Value.String(),
		Nonce:       int64(envelope.Nonce),
		GasLimit:    int64(envelope.GasLimit),
		GasPriceWei: envelope.GasPrice.String(),
		ChainID:     envelope.ChainID.Int64(),
		TxHash:      txHash,
	}

	if err := s.transferLog.Create(ctx, record); err != nil {
		logger.Warn(ctx, "failed to record submitted transfer",
			"account_id", req.AccountID,
			"tx_hash", txHash,
			"error", err,
		)
	}
}

// outcomeKind maps an error to its metrics label; nil means success
func outcomeKind(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.Kind(err)
}
