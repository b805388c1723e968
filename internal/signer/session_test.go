package signer

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentwallet/agentwallet/internal/crypto"
	"github.com/agentwallet/agentwallet/internal/txbuilder"
)

// newTestShare generates a key, splits it, and returns the encoded plaintext
// share payload plus the expected wallet address.
func newTestShare(t *testing.T) ([]byte, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	first, second, err := crypto.SplitKey(crypto.KeyToBytes(key))
	require.NoError(t, err)

	share, err := EncodeShare(first, second)
	require.NoError(t, err)

	return share, crypto.AddressOf(key)
}

func testEnvelope(from common.Address) *txbuilder.Envelope {
	return &txbuilder.Envelope{
		From:     from,
		To:       common.HexToAddress("0xde0b295669a9fd93d5f28d9ec85e40f4cb697bae"),
		Value:    big.NewInt(1_500_000_000_000_000_000),
		Nonce:    7,
		GasLimit: 21000,
		GasPrice: big.NewInt(30_000_000_000),
		ChainID:  big.NewInt(80002),
	}
}

func TestOpenRecoversAddress(t *testing.T) {
	share, wantAddr := newTestShare(t)

	session, err := Open(share)
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, wantAddr, session.Address())
}

func TestOpenInvalidShares(t *testing.T) {
	tests := []struct {
		name  string
		share []byte
	}{
		{"not json", []byte("garbage")},
		{"empty", nil},
		{"missing fragments", []byte(`{"version":1}`)},
		{"wrong version", []byte(`{"version":9,"first_fragment":"AQID","second_fragment":"AQID"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.share)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidShare))
		})
	}
}

func TestOpenShareWithNonKeySecret(t *testing.T) {
	// Fragments that combine to bytes which are not a valid secp256k1 scalar
	first, second, err := crypto.SplitKey(make([]byte, 5))
	require.NoError(t, err)

	share, err := EncodeShare(first, second)
	require.NoError(t, err)

	_, err = Open(share)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidShare))
}

func TestSignIsDeterministic(t *testing.T) {
	share, addr := newTestShare(t)
	env := testEnvelope(addr)

	session1, err := Open(share)
	require.NoError(t, err)
	defer session1.Close()

	signed1, err := session1.Sign(env)
	require.NoError(t, err)

	session2, err := Open(share)
	require.NoError(t, err)
	defer session2.Close()

	signed2, err := session2.Sign(env)
	require.NoError(t, err)

	// Deterministic-nonce signing: byte-identical payloads and hashes
	assert.Equal(t, signed1.Raw, signed2.Raw)
	assert.Equal(t, signed1.Hash, signed2.Hash)
}

func TestSignedEnvelopeRecoverable(t *testing.T) {
	share, addr := newTestShare(t)

	session, err := Open(share)
	require.NoError(t, err)
	defer session.Close()

	env := testEnvelope(addr)
	signed, err := session.Sign(env)
	require.NoError(t, err)

	// The signature recovers to the custodial wallet address
	sender, err := ethSender(signed)
	require.NoError(t, err)
	assert.Equal(t, addr, sender)

	// Hash is a 32-byte hex string
	assert.Len(t, signed.Hash, 66)
	assert.Equal(t, "0x", signed.Hash[:2])

	// Envelope fields survive into the signed transaction
	assert.Equal(t, env.Nonce, signed.Tx.Nonce())
	assert.Equal(t, env.GasLimit, signed.Tx.Gas())
	assert.Zero(t, env.Value.Cmp(signed.Tx.Value()))
	assert.Zero(t, env.ChainID.Cmp(signed.Tx.ChainId()))
}

func TestSignAfterClose(t *testing.T) {
	share, addr := newTestShare(t)

	session, err := Open(share)
	require.NoError(t, err)

	session.Close()
	// Close is idempotent
	session.Close()

	_, err = session.Sign(testEnvelope(addr))
	assert.ErrorIs(t, err, ErrSessionClosed)

	// Address stays readable after close; it is not key material
	assert.NotEqual(t, common.Address{}, session.Address())
}

func TestSignRejectsEnvelopeWithoutChainID(t *testing.T) {
	share, addr := newTestShare(t)

	session, err := Open(share)
	require.NoError(t, err)
	defer session.Close()

	env := testEnvelope(addr)
	env.ChainID = nil
	_, err = session.Sign(env)
	assert.Error(t, err)

	_, err = session.Sign(nil)
	assert.Error(t, err)
}

// ethSender recovers the sender address from a signed envelope
func ethSender(signed *txbuilder.SignedEnvelope) (common.Address, error) {
	return ethtypes.Sender(ethtypes.NewLondonSigner(signed.Tx.ChainId()), signed.Tx)
}

func TestEncodeShare(t *testing.T) {
	t.Run("rejects missing fragments", func(t *testing.T) {
		_, err := EncodeShare(nil, []byte{1})
		assert.Error(t, err)
		_, err = EncodeShare([]byte{1}, nil)
		assert.Error(t, err)
	})

	t.Run("payload is versioned", func(t *testing.T) {
		share, err := EncodeShare([]byte{1, 2}, []byte{3, 4})
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(share, &payload))
		assert.EqualValues(t, 1, payload["version"])
	})
}
