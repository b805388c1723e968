// Package errors defines the application error kinds surfaced by the signing
// pipeline. Each kind carries an HTTP status so the API layer can distinguish
// client-input failures from server/environment failures, while the Message
// stays generic enough to return to callers verbatim.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application-level error with HTTP status code
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for the transfer pipeline, ordered by where they are detected
const (
	ErrCodeInvalidInput              = "invalid_input"
	ErrCodeAccountNotProvisioned     = "account_not_provisioned"
	ErrCodeAccountAlreadyProvisioned = "account_already_provisioned"
	ErrCodeDecryptionFailed          = "decryption_failed"
	ErrCodeInvalidShare              = "invalid_share"
	ErrCodeBuildFailed               = "build_failed"
	ErrCodeSigningFailed             = "signing_failed"
	ErrCodeBroadcastFailed           = "broadcast_failed"
)

// Ambient error codes
const (
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeNotFound      = "not_found"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeRateLimited   = "rate_limited"
	ErrCodeInternalError = "internal_error"
)

// Predefined errors
var (
	ErrUnauthorized = &AppError{
		Code:       ErrCodeUnauthorized,
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrNotFound = &AppError{
		Code:       ErrCodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrRateLimited = &AppError{
		Code:       ErrCodeRateLimited,
		Message:    "Too many requests",
		StatusCode: http.StatusTooManyRequests,
	}

	ErrInternalError = &AppError{
		Code:       ErrCodeInternalError,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithDetail creates a new AppError with additional detail.
// Detail is for logs and metrics only; the API layer never serializes it.
func NewWithDetail(code, message, detail string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Detail:     detail,
		StatusCode: statusCode,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidInput,
		Message:    "Invalid request parameters",
		Detail:     detail,
		StatusCode: http.StatusBadRequest,
	}
}

// AccountNotProvisioned creates an error for accounts with no key share on record
func AccountNotProvisioned(accountID string) *AppError {
	return &AppError{
		Code:       ErrCodeAccountNotProvisioned,
		Message:    "No wallet found for this account. Provision a wallet first.",
		Detail:     fmt.Sprintf("account_id: %s", accountID),
		StatusCode: http.StatusNotFound,
	}
}

// AccountAlreadyProvisioned creates an error for repeated provisioning attempts
func AccountAlreadyProvisioned(accountID string) *AppError {
	return &AppError{
		Code:       ErrCodeAccountAlreadyProvisioned,
		Message:    "A wallet already exists for this account",
		Detail:     fmt.Sprintf("account_id: %s", accountID),
		StatusCode: http.StatusConflict,
	}
}

// DecryptionFailed creates a cipher-layer error. Indicates secret rotation or
// data corruption; kept distinct from InvalidShare in diagnostics.
func DecryptionFailed(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeDecryptionFailed,
		Message:    "Unable to process this request",
		Detail:     detail,
		StatusCode: http.StatusInternalServerError,
	}
}

// InvalidShare creates an error for structurally unusable decrypted shares
func InvalidShare(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidShare,
		Message:    "Unable to process this request",
		Detail:     detail,
		StatusCode: http.StatusInternalServerError,
	}
}

// BuildFailed creates an error for envelope construction failures
func BuildFailed(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeBuildFailed,
		Message:    "Unable to prepare the transaction",
		Detail:     detail,
		StatusCode: http.StatusBadGateway,
	}
}

// SigningFailed creates an error for internal signer failures
func SigningFailed(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeSigningFailed,
		Message:    "Unable to process this request",
		Detail:     detail,
		StatusCode: http.StatusInternalServerError,
	}
}

// BroadcastFailed creates an error for network-level rejects (nonce conflict,
// insufficient funds, underpriced). Callers may rebuild and resubmit; the
// pipeline never retries the same signed payload.
func BroadcastFailed(detail string) *AppError {
	return &AppError{
		Code:       ErrCodeBroadcastFailed,
		Message:    "The network rejected the transaction",
		Detail:     detail,
		StatusCode: http.StatusBadGateway,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Kind returns the error code of an AppError, or internal_error for anything else
func Kind(err error) string {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternalError
}
