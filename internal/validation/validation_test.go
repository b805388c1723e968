package validation

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccountID(t *testing.T) {
	tests := []struct {
		name      string
		accountID string
		wantErr   bool
	}{
		{"email identifier", "a@x.com", false},
		{"opaque identifier", "user-1234", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", MaxAccountIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccountID(tt.accountID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRecipient(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"valid lowercase", "0xde0b295669a9fd93d5f28d9ec85e40f4cb697bae", false},
		{"valid mixed case", "0xDe0B295669a9FD93d5F28D9Ec85E40f4cb697BAe", false},
		{"empty", "", true},
		{"missing prefix", "de0b295669a9fd93d5f28d9ec85e40f4cb697bae", true},
		{"too short", "0xde0b29", true},
		{"non-hex characters", "0xZZ0b295669a9fd93d5f28d9ec85e40f4cb697bae", true},
		{"zero address", "0x0000000000000000000000000000000000000000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecipient(tt.address)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	coin := func(s string) *big.Int {
		v, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		return v
	}

	tests := []struct {
		name    string
		amount  string
		want    *big.Int
		wantErr bool
	}{
		{"whole number", "1", coin("1000000000000000000"), false},
		{"decimal", "1.5", coin("1500000000000000000"), false},
		{"small fraction", "0.000000000000000001", big.NewInt(1), false},
		{"large amount", "1000000", coin("1000000000000000000000000"), false},
		{"surrounding whitespace", " 2 ", coin("2000000000000000000"), false},
		{"zero", "0", nil, true},
		{"zero decimal", "0.0", nil, true},
		{"negative", "-3", nil, true},
		{"non-numeric", "abc", nil, true},
		{"empty", "", nil, true},
		{"scientific notation", "1e18", nil, true},
		{"fraction syntax", "1/2", nil, true},
		{"too many decimals", "0.0000000000000000001", nil, true},
		{"trailing dot", "1.", nil, true},
		{"infinity", "Inf", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.amount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Zero(t, tt.want.Cmp(got), "want %s, got %s", tt.want, got)
		})
	}
}
