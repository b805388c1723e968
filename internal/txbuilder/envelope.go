package txbuilder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Envelope is the unsigned description of a flat value transfer. The nonce
// is the sender's next expected nonce at build time, so an envelope is only
// valid for broadcast until another transaction from the same address takes
// that nonce.
type Envelope struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	Nonce    uint64
	GasLimit uint64
	GasPrice *big.Int
	ChainID  *big.Int
}

// Transaction renders the envelope as a legacy transaction ready for signing
func (e *Envelope) Transaction() *ethtypes.Transaction {
	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    e.Nonce,
		To:       &e.To,
		Value:    e.Value,
		Gas:      e.GasLimit,
		GasPrice: e.GasPrice,
	})
}

// SignedEnvelope is an envelope plus its signature. Immutable once produced
// and single use; rebroadcasting an already-mined payload is a network-level
// no-op, not an error this pipeline distinguishes.
type SignedEnvelope struct {
	Tx   *ethtypes.Transaction
	Raw  []byte
	Hash string
}
