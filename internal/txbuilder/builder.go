// Package txbuilder assembles chain-valid transfer envelopes. Nonce and gas
// price are fetched fresh from the RPC provider on every build since stale
// values cause rejected or underpriced transactions; the chain ID is static
// configuration and never taken from the provider.
package txbuilder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/agentwallet/agentwallet/internal/validation"
	apperrors "github.com/agentwallet/agentwallet/pkg/errors"
)

// Provider is the subset of the RPC interface consumed at build time.
// It deliberately has no way to report a chain ID.
type Provider interface {
	// GetNonce returns the next pending nonce for an address
	GetNonce(ctx context.Context, address common.Address) (uint64, error)

	// SuggestGasPrice returns the current suggested gas price
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Builder builds transfer envelopes against one configured chain
type Builder struct {
	chainID  *big.Int
	gasLimit uint64
	provider Provider
}

// NewBuilder creates a Builder. chainID comes from deployment configuration;
// gasLimit is the flat limit for a plain transfer (21000 on EVM chains).
func NewBuilder(chainID int64, gasLimit uint64, provider Provider) *Builder {
	return &Builder{
		chainID:  big.NewInt(chainID),
		gasLimit: gasLimit,
		provider: provider,
	}
}

// ChainID returns the configured chain ID
func (b *Builder) ChainID() *big.Int {
	return new(big.Int).Set(b.chainID)
}

// Build assembles an envelope for a transfer of amountWei from -> to.
// Validation is fail-fast in order: recipient syntax, amount positivity,
// provider reachability. No provider call is made for invalid input.
func (b *Builder) Build(ctx context.Context, from common.Address, to string, amountWei *big.Int) (*Envelope, error) {
	if err := validation.ValidateRecipient(to); err != nil {
		return nil, apperrors.BuildFailed("invalid recipient: " + err.Error())
	}

	if amountWei == nil || amountWei.Sign() <= 0 {
		return nil, apperrors.BuildFailed("transfer amount must be positive")
	}

	nonce, err := b.provider.GetNonce(ctx, from)
	if err != nil {
		return nil, apperrors.BuildFailed("nonce lookup failed: " + err.Error())
	}

	gasPrice, err := b.provider.SuggestGasPrice(ctx)
	if err != nil {
		return nil, apperrors.BuildFailed("gas price lookup failed: " + err.Error())
	}

	return &Envelope{
		From:     from,
		To:       common.HexToAddress(to),
		Value:    new(big.Int).Set(amountWei),
		Nonce:    nonce,
		GasLimit: b.gasLimit,
		GasPrice: gasPrice,
		ChainID:  new(big.Int).Set(b.chainID),
	}, nil
}
