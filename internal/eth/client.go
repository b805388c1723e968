// Package eth wraps the go-ethereum RPC client behind the narrow interface
// the pipeline consumes: nonce and fee queries plus broadcast. The provider
// is treated as untrusted and possibly slow; in particular it is never used
// as a source of the chain identifier.
package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps an Ethereum RPC client
type Client struct {
	client *ethclient.Client
}

// NewClient connects to an RPC endpoint
func NewClient(rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL is required")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	return &Client{client: client}, nil
}

// VerifyChainID checks at startup that the endpoint serves the configured
// chain. This is a deployment sanity check only: envelopes always carry the
// configured chain ID, never the one the provider reports.
func (c *Client) VerifyChainID(ctx context.Context, expected int64) error {
	reported, err := c.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to query chain ID: %w", err)
	}

	if reported.Cmp(big.NewInt(expected)) != 0 {
		return fmt.Errorf("RPC endpoint serves chain %s, configured chain is %d", reported, expected)
	}
	return nil
}

// GetNonce returns the next pending nonce for an address
func (c *Client) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	nonce, err := c.client.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce: %w", err)
	}
	return nonce, nil
}

// SuggestGasPrice returns the suggested gas price
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

// GetBalance returns the balance of an address in wei
func (c *Client) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := c.client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// SendRawTransaction broadcasts a signed transaction and returns its hash.
// The hash acknowledges submission, not finality.
func (c *Client) SendRawTransaction(ctx context.Context, signedTx *ethtypes.Transaction) (string, error) {
	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return signedTx.Hash().Hex(), nil
}

// Close closes the client connection
func (c *Client) Close() {
	c.client.Close()
}
