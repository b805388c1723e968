// Package crypto handles custodial key material: secp256k1 key generation,
// address derivation, Shamir share split/combine and zeroization helpers.
package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GenerateKey generates a new secp256k1 private key
func GenerateKey() (*ecdsa.PrivateKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return privateKey, nil
}

// AddressOf derives the Ethereum address from a private key
func AddressOf(privateKey *ecdsa.PrivateKey) common.Address {
	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		panic("failed to cast public key to ECDSA")
	}
	return crypto.PubkeyToAddress(*publicKey)
}

// KeyToBytes serializes a private key to its 32-byte scalar
func KeyToBytes(privateKey *ecdsa.PrivateKey) []byte {
	return crypto.FromECDSA(privateKey)
}

// KeyFromBytes rebuilds a private key from its 32-byte scalar
func KeyFromBytes(b []byte) (*ecdsa.PrivateKey, error) {
	return crypto.ToECDSA(b)
}

// Zero overwrites a byte slice with zeros. Used to bound the lifetime of
// plaintext key material to the request that needed it.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroKey clears the private scalar of a reconstructed key
func ZeroKey(privateKey *ecdsa.PrivateKey) {
	if privateKey != nil && privateKey.D != nil {
		privateKey.D.SetInt64(0)
	}
}
