package crypto

import (
	"fmt"

	"github.com/hashicorp/vault/shamir"
)

// A custodial key is split 2-of-2: both fragments are needed to reconstruct
// the signing key, so neither fragment alone is spending authority.
const (
	shareThreshold = 2
	shareCount     = 2
)

// SplitKey splits a private key scalar into two Shamir fragments.
// The input is not modified; callers remain responsible for zeroizing it.
func SplitKey(key []byte) (first, second []byte, err error) {
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("key cannot be empty")
	}

	shares, err := shamir.Split(key, shareCount, shareThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("shamir split failed: %w", err)
	}
	return shares[0], shares[1], nil
}

// CombineShares reconstructs the private key scalar from both fragments.
// The caller owns the returned bytes and must zeroize them after use.
func CombineShares(first, second []byte) ([]byte, error) {
	if len(first) == 0 || len(second) == 0 {
		return nil, fmt.Errorf("both share fragments are required")
	}

	key, err := shamir.Combine([][]byte{first, second})
	if err != nil {
		return nil, fmt.Errorf("shamir combine failed: %w", err)
	}
	return key, nil
}
