package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agentwallet/agentwallet/internal/app"
	"github.com/agentwallet/agentwallet/internal/storage"
	apperrors "github.com/agentwallet/agentwallet/pkg/errors"
)

// CreateTransferRequest represents a transfer submission
type CreateTransferRequest struct {
	AccountID string `json:"account_id"`
	To        string `json:"to"`
	Amount    string `json:"amount"` // decimal whole-coin units, e.g. "1.5"
}

// TransferResponse acknowledges a submitted transfer. The hash confirms
// network submission, not finality.
type TransferResponse struct {
	Message         string `json:"message"`
	TransactionHash string `json:"transaction_hash"`
	FromAddress     string `json:"from_address"`
	Nonce           uint64 `json:"nonce"`
}

// TransferRecord is one submitted transfer in history responses
type TransferRecord struct {
	TransactionHash string `json:"transaction_hash"`
	FromAddress     string `json:"from_address"`
	ToAddress       string `json:"to_address"`
	ValueWei        string `json:"value_wei"`
	Nonce           int64  `json:"nonce"`
	GasLimit        int64  `json:"gas_limit"`
	GasPriceWei     string `json:"gas_price_wei"`
	ChainID         int64  `json:"chain_id"`
	CreatedAt       int64  `json:"created_at"` // Unix timestamp in milliseconds
}

// ListTransfersResponse for transfer history listing
type ListTransfersResponse struct {
	Data []TransferRecord `json:"data"`
}

// handleTransfers handles transfer submission and history listing
func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransfer(w, r)
	case http.MethodGet:
		s.handleListTransfers(w, r)
	default:
		s.methodNotAllowed(r.Context(), w)
	}
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(r.Context(), w, apperrors.InvalidInput("malformed JSON body"))
		return
	}

	result, err := s.transfers.Send(r.Context(), &app.SendRequest{
		AccountID: req.AccountID,
		To:        req.To,
		Amount:    req.Amount,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, &TransferResponse{
		Message:         "Transaction sent successfully",
		TransactionHash: result.TxHash,
		FromAddress:     result.FromAddress,
		Nonce:           result.Nonce,
	})
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		s.writeError(r.Context(), w, apperrors.InvalidInput("account_id query parameter is required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(r.Context(), w, apperrors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	transfers, err := s.transfers.History(r.Context(), accountID, limit)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	resp := ListTransfersResponse{Data: make([]TransferRecord, 0, len(transfers))}
	for _, transfer := range transfers {
		resp.Data = append(resp.Data, transferRecord(transfer))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func transferRecord(transfer *storage.Transfer) TransferRecord {
	return TransferRecord{
		TransactionHash: transfer.TxHash,
		FromAddress:     transfer.FromAddress,
		ToAddress:       transfer.ToAddress,
		ValueWei:        transfer.ValueWei,
		Nonce:           transfer.Nonce,
		GasLimit:        transfer.GasLimit,
		GasPriceWei:     transfer.GasPriceWei,
		ChainID:         transfer.ChainID,
		CreatedAt:       transfer.CreatedAt.UnixMilli(),
	}
}
