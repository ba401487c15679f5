// Package apperr defines the error taxonomy shared by the mobile core.
// Every failure surfaced to a caller carries a Kind the UI layer can branch
// on (retry affordance vs. terminal message) plus the backend-compatible
// error code when one exists.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for caller branching.
type Kind string

const (
	// KindInvalidInput marks caller mistakes detected before any I/O.
	KindInvalidInput Kind = "invalid_input"

	// KindNetwork marks connectivity failures and timeouts. Retryable.
	KindNetwork Kind = "network"

	// KindAuthRejected marks explicit credential rejection by the backend.
	// Not retryable; triggers logout semantics.
	KindAuthRejected Kind = "auth_rejected"

	// KindStorage marks local persistence failures. Callers degrade
	// gracefully; storage errors never crash an enclosing operation.
	KindStorage Kind = "storage"

	// KindServer marks non-2xx responses not covered by the kinds above.
	KindServer Kind = "server"
)

// Error codes preserved from the mobile client for backend compatibility.
const (
	CodeMissingCredentials = "MISSING_CREDENTIALS"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeInvalidPhone       = "INVALID_PHONE"
	CodeInvalidDeviceInfo  = "INVALID_DEVICE_INFO"
	CodeLoginFailed        = "LOGIN_FAILED"
	CodeRegistrationFailed = "REGISTRATION_FAILED"
	CodeNoRefreshToken     = "NO_REFRESH_TOKEN"
	CodeRefreshFailed      = "REFRESH_FAILED"
	CodeNetworkError       = "NETWORK_ERROR"
)

// Error is a classified failure.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Code is the machine-readable error code, when one applies.
	Code string

	// Field names the offending input field for validation failures.
	Field string

	// Message is a human-readable description safe to present.
	Message string

	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. A nil cause returns nil.
func Wrap(kind Kind, code, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf returns the Kind of err, or KindServer when err carries none.
// A nil error has no kind; KindOf(nil) returns the empty Kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeOf returns the error code of err, or "" when err carries none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
