// Package validation holds the boundary checks shared by the API layer and
// the pipeline orchestrator. The front-end performs the same pre-flight
// checks but is an untrusted collaborator, so everything is re-validated here.
package validation

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// WeiPerCoin is the number of base units per whole coin (10^18 on EVM chains)
var WeiPerCoin = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	amountPattern  = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// MaxAccountIDLength bounds caller-supplied account identifiers
const MaxAccountIDLength = 320

// ValidateAccountID checks a caller-supplied account identifier.
// The identifier is opaque (an email in the chat front-end); only presence
// and a sane length are enforced.
func ValidateAccountID(accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return fmt.Errorf("account ID cannot be empty")
	}
	if len(accountID) > MaxAccountIDLength {
		return fmt.Errorf("account ID too long: maximum %d characters", MaxAccountIDLength)
	}
	return nil
}

// ValidateRecipient validates a recipient address for the target chain
func ValidateRecipient(address string) error {
	if address == "" {
		return fmt.Errorf("recipient address cannot be empty")
	}

	if !addressPattern.MatchString(address) {
		return fmt.Errorf("invalid address format: must be 0x followed by 40 hex characters")
	}

	// Sending to the zero address burns funds; almost always a caller mistake
	if strings.EqualFold(address, zeroAddress) {
		return fmt.Errorf("cannot send to zero address")
	}

	return nil
}

// ParseAmount converts a decimal whole-coin amount string (e.g. "1.5") into
// base units (wei). The amount must be strictly positive and must not carry
// more than 18 decimal places.
func ParseAmount(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	if !amountPattern.MatchString(amount) {
		return nil, fmt.Errorf("invalid amount: must be a positive decimal number")
	}

	rat, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", amount)
	}

	rat.Mul(rat, new(big.Rat).SetInt(WeiPerCoin))
	if !rat.IsInt() {
		return nil, fmt.Errorf("invalid amount: more than 18 decimal places")
	}

	wei := rat.Num()
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return wei, nil
}
