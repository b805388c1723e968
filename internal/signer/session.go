// Package signer reconstructs an in-memory signing capability from a
// decrypted key share. A Session is request-scoped and single use: the
// caller opens it, signs, and closes it; Close wipes the reconstructed key.
package signer

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/agentwallet/agentwallet/internal/crypto"
	"github.com/agentwallet/agentwallet/internal/txbuilder"
)

// ErrInvalidShare is returned when decrypted share bytes are structurally
// unusable. Kept distinct from the cipher's ErrDecryptionFailed so the two
// failure modes stay distinguishable in diagnostics.
var ErrInvalidShare = errors.New("key share is structurally invalid")

// ErrSessionClosed is returned when a closed session is used
var ErrSessionClosed = errors.New("signer session is closed")

// sharePayloadVersion guards the on-disk share payload format
const sharePayloadVersion = 1

// sharePayload is the plaintext share format: a versioned container for the
// two Shamir fragments of the custodial key. It only ever exists decrypted
// inside an open Session's construction.
type sharePayload struct {
	Version int    `json:"version"`
	First   []byte `json:"first_fragment"`
	Second  []byte `json:"second_fragment"`
}

// EncodeShare serializes two Shamir fragments into a plaintext share payload.
// Used at provisioning time, immediately before encryption.
func EncodeShare(first, second []byte) ([]byte, error) {
	if len(first) == 0 || len(second) == 0 {
		return nil, fmt.Errorf("both key fragments are required")
	}

	payload, err := json.Marshal(sharePayload{
		Version: sharePayloadVersion,
		First:   first,
		Second:  second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode share payload: %w", err)
	}
	return payload, nil
}

// Session is a reconstructed signing capability bound to one custodial
// wallet address. Not safe for concurrent use; must not outlive the request
// that opened it.
type Session struct {
	key     *ecdsa.PrivateKey
	address common.Address
	closed  bool
}

// Open reconstructs a Session from a decrypted share payload. The plaintext
// input is not retained; intermediate key bytes are wiped before returning.
func Open(plaintextShare []byte) (*Session, error) {
	var payload sharePayload
	if err := json.Unmarshal(plaintextShare, &payload); err != nil {
		return nil, fmt.Errorf("%w: undecodable payload", ErrInvalidShare)
	}

	if payload.Version != sharePayloadVersion {
		return nil, fmt.Errorf("%w: unsupported payload version %d", ErrInvalidShare, payload.Version)
	}

	keyBytes, err := crypto.CombineShares(payload.First, payload.Second)
	crypto.Zero(payload.First)
	crypto.Zero(payload.Second)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}

	key, err := crypto.KeyFromBytes(keyBytes)
	crypto.Zero(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: reconstructed bytes are not a valid key", ErrInvalidShare)
	}

	return &Session{
		key:     key,
		address: crypto.AddressOf(key),
	}, nil
}

// Address returns the custodial wallet address bound to this session
func (s *Session) Address() common.Address {
	return s.address
}

// Sign signs a transfer envelope. Signing is deterministic: the same
// envelope under the same share always yields the same signature.
func (s *Session) Sign(env *txbuilder.Envelope) (*txbuilder.SignedEnvelope, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if env == nil || env.ChainID == nil {
		return nil, fmt.Errorf("envelope with chain ID is required")
	}

	ethSigner := ethtypes.NewLondonSigner(env.ChainID)
	signedTx, err := ethtypes.SignTx(env.Transaction(), ethSigner, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed transaction: %w", err)
	}

	return &txbuilder.SignedEnvelope{
		Tx:   signedTx,
		Raw:  raw,
		Hash: signedTx.Hash().Hex(),
	}, nil
}

// Close wipes the reconstructed key. Safe to call multiple times; every
// open session must be closed before the request returns, including on
// error paths.
func (s *Session) Close() {
	if s.closed {
		return
	}
	crypto.ZeroKey(s.key)
	s.key = nil
	s.closed = true
}
