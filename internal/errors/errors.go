// Package errors provides custom error types for the Cuentas API.
// All service-layer errors should use AppError so that responses stay
// consistent and never leak internal details to clients.
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
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
	ErrInvalidResetToken  = &AppError{Code: "INVALID_RESET_TOKEN", Message: "Invalid or expired reset token", StatusCode: http.StatusBadRequest}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Transaction errors. Lookups are always scoped to the caller, so a record
// that exists but belongs to someone else reports the same not-found code.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidKind         = &AppError{Code: "INVALID_KIND", Message: "Transaction kind must be income or expense", StatusCode: http.StatusBadRequest}
	ErrNegativeAmount      = &AppError{Code: "NEGATIVE_AMOUNT", Message: "Amount must not be negative", StatusCode: http.StatusBadRequest}
)

// Period errors.
var (
	ErrInvalidMonth = &AppError{Code: "INVALID_MONTH", Message: "Month must be in YYYY-MM format", StatusCode: http.StatusBadRequest}
)

// Upload errors.
var (
	ErrUnsupportedFileType = &AppError{Code: "UNSUPPORTED_FILE_TYPE", Message: "Only image files are allowed", StatusCode: http.StatusBadRequest}
)

// Report errors.
var (
	ErrReportGeneration = &AppError{Code: "REPORT_GENERATION_FAILED", Message: "Failed to generate report", StatusCode: http.StatusInternalServerError}
)
