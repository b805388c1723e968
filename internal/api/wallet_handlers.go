package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/agentwallet/agentwallet/internal/storage"
	apperrors "github.com/agentwallet/agentwallet/pkg/errors"
)

// CreateWalletRequest represents the wallet provisioning request
type CreateWalletRequest struct {
	AccountID string `json:"account_id"`
}

// WalletResponse represents a wallet in API responses. The encrypted share
// never appears here; only the derived address is exposed.
type WalletResponse struct {
	AccountID string `json:"account_id"`
	Address   string `json:"address"`
	ChainID   int64  `json:"chain_id"`
	CreatedAt int64  `json:"created_at"` // Unix timestamp in milliseconds
}

func walletResponse(wallet *storage.Wallet) *WalletResponse {
	return &WalletResponse{
		AccountID: wallet.AccountID,
		Address:   wallet.Address,
		ChainID:   wallet.ChainID,
		CreatedAt: wallet.CreatedAt.UnixMilli(),
	}
}

// handleWallets handles wallet provisioning
func (s *Server) handleWallets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(r.Context(), w)
		return
	}

	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(r.Context(), w, apperrors.InvalidInput("malformed JSON body"))
		return
	}

	wallet, err := s.provisioner.Provision(r.Context(), req.AccountID)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, walletResponse(wallet))
}

// handleWalletByAccount handles wallet lookup by account ID
func (s *Server) handleWalletByAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(r.Context(), w)
		return
	}

	accountID := strings.TrimPrefix(r.URL.Path, "/v1/wallets/")
	if accountID == "" || strings.Contains(accountID, "/") {
		s.writeError(r.Context(), w, apperrors.ErrNotFound)
		return
	}

	wallet, err := s.provisioner.GetWallet(r.Context(), accountID)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, walletResponse(wallet))
}
