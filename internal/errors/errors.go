// Package errors provides custom error types for the fund ledger API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Registry errors.
var (
	ErrFundNotFound        = &AppError{Code: "FUND_NOT_FOUND", Message: "Fund not found", StatusCode: http.StatusNotFound}
	ErrIssuerNotFound      = &AppError{Code: "ISSUER_NOT_FOUND", Message: "Issuer not found", StatusCode: http.StatusNotFound}
	ErrShareClassNotFound  = &AppError{Code: "SHARE_CLASS_NOT_FOUND", Message: "Share class not found", StatusCode: http.StatusNotFound}
	ErrSecurityKeyNotFound = &AppError{Code: "SECURITY_KEY_NOT_FOUND", Message: "Security key does not resolve to a registered fund, issuer and share class", StatusCode: http.StatusNotFound}
)

// Ledger errors.
var (
	ErrLotNotFound      = &AppError{Code: "LOT_NOT_FOUND", Message: "Purchase lot not found", StatusCode: http.StatusNotFound}
	ErrDisposalNotFound = &AppError{Code: "DISPOSAL_NOT_FOUND", Message: "Disposal not found", StatusCode: http.StatusNotFound}

	// ErrInsufficientInventory is raised when a disposal's quantity exceeds
	// the inventory available as of its trade date. It is never auto-corrected
	// and never partially applied.
	ErrInsufficientInventory = &AppError{Code: "INSUFFICIENT_INVENTORY", Message: "Disposal quantity exceeds available purchase lots as of the trade date", StatusCode: http.StatusBadRequest}

	// ErrStaleLedger means an unapplied corporate action or out-of-order
	// insert was detected mid-computation. The caller must trigger a
	// recompute before retrying.
	ErrStaleLedger = &AppError{Code: "STALE_LEDGER", Message: "Ledger has unapplied corporate actions; recompute required", StatusCode: http.StatusConflict}

	ErrInvalidRatio = &AppError{Code: "INVALID_RATIO", Message: "Corporate action ratio terms must be positive integers", StatusCode: http.StatusBadRequest}

	// ErrConcurrencyTimeout is returned when the per-security-key lock could
	// not be acquired within the caller's deadline. Safe to retry.
	ErrConcurrencyTimeout = &AppError{Code: "CONCURRENCY_TIMEOUT", Message: "Timed out waiting for the security key lock; retry the request", StatusCode: http.StatusServiceUnavailable}

	ErrUnsupportedAction = &AppError{Code: "UNSUPPORTED_ACTION", Message: "Corporate action kind has no defined rescaling rule", StatusCode: http.StatusBadRequest}

	ErrDuplicateTransaction = &AppError{Code: "DUPLICATE_TRANSACTION", Message: "An identical transaction has already been recorded", StatusCode: http.StatusConflict}
)
