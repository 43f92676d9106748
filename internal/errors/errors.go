// Package errors defines the typed outcome taxonomy returned by the economy core.
//
// Business-rule failures carry one of the codes below and are never retried.
// Storage contention that survives the retry budget surfaces as CodeUnavailable.
package errors

import stderrors "errors"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown marks errors that are not part of the taxonomy.
	CodeUnknown Code = "UNKNOWN"
	// CodeNotFound marks a missing account, gift, code or map.
	CodeNotFound Code = "NOT_FOUND"
	// CodeConflict marks a duplicate identity.
	CodeConflict Code = "CONFLICT"
	// CodeInsufficientFunds marks an operation that would drive a balance negative.
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	// CodeLimitExceeded marks exhausted code uses or gift stock.
	CodeLimitExceeded Code = "LIMIT_EXCEEDED"
	// CodeInvalidArgument marks malformed input.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeUnavailable marks a transaction aborted after bounded contention retries.
	CodeUnavailable Code = "UNAVAILABLE"
)

// Sentinels for errors.Is checks. Matching is by code only.
var (
	ErrNotFound          = New(CodeNotFound, "not found")
	ErrConflict          = New(CodeConflict, "conflict")
	ErrInsufficientFunds = New(CodeInsufficientFunds, "insufficient funds")
	ErrLimitExceeded     = New(CodeLimitExceeded, "limit exceeded")
	ErrInvalidArgument   = New(CodeInvalidArgument, "invalid argument")
	ErrUnavailable       = New(CodeUnavailable, "unavailable")
)

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable detail
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NotFound builds a CodeNotFound error.
func NotFound(message string) *Error { return New(CodeNotFound, message) }

// Conflict builds a CodeConflict error.
func Conflict(message string) *Error { return New(CodeConflict, message) }

// InsufficientFunds builds a CodeInsufficientFunds error.
func InsufficientFunds(message string) *Error { return New(CodeInsufficientFunds, message) }

// LimitExceeded builds a CodeLimitExceeded error.
func LimitExceeded(message string) *Error { return New(CodeLimitExceeded, message) }

// InvalidArgument builds a CodeInvalidArgument error.
func InvalidArgument(message string) *Error { return New(CodeInvalidArgument, message) }

// CodeOf returns the code of the first domain error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// IsBusiness reports whether err is a business-rule outcome that must not be retried.
func IsBusiness(err error) bool {
	switch CodeOf(err) {
	case CodeNotFound, CodeConflict, CodeInsufficientFunds, CodeLimitExceeded, CodeInvalidArgument:
		return true
	default:
		return false
	}
}

// Retryable reports whether a caller may retry the operation later.
// Business codes always describe a definitive outcome.
func (c Code) Retryable() bool {
	return c == CodeUnavailable
}
