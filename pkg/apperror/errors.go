package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Logic ----

func ErrInsufficientBalance() *AppError {
	return New("INSUFFICIENT_BALANCE", "Insufficient balance", http.StatusUnprocessableEntity)
}

func ErrAccountNotFound() *AppError {
	return New("ACCOUNT_NOT_FOUND", "Account not found or inactive", http.StatusNotFound)
}

func ErrAssetMismatch() *AppError {
	return New("ASSET_MISMATCH", "Accounts do not share the same asset type", http.StatusBadRequest)
}

func ErrDuplicateReference() *AppError {
	return New("DUPLICATE_REFERENCE", "Reference has already been used by another transaction", http.StatusConflict)
}

// Validation returns a VALIDATION_ERROR with a per-field detail message.
func Validation(message string) *AppError {
	return New("VALIDATION_ERROR", message, http.StatusBadRequest)
}

// ---- Rate Limiting ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_LIMITED", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure ----

// ErrSystemAccountMissing signals a misconfigured deployment: a well-known
// system counterparty account does not exist for the requested asset.
func ErrSystemAccountMissing(externalID string) *AppError {
	return New("CONFIGURATION_ERROR", fmt.Sprintf("system account %s is not configured", externalID), http.StatusInternalServerError)
}

func ErrStoreUnavailable(err error) *AppError {
	return Wrap("STORE_UNAVAILABLE", "Storage backend unavailable", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as an INTERNAL_ERROR.
func InternalError(err error) *AppError {
	return Wrap("INTERNAL_ERROR", "Internal server error", http.StatusInternalServerError, err)
}
