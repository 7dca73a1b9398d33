// Package errors defines the structured error taxonomy for the tokenforge
// subsystem. Verification failures carry a distinct Kind so that callers can
// branch on the failure class instead of matching message strings.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ================================================================================
// Error Kinds
// ================================================================================

// Kind classifies an error. Verification kinds map one-to-one onto the
// failure classes a token parser can produce.
type Kind string

const (
	// KindExpired indicates the token's expiry has passed
	KindExpired Kind = "token_expired"

	// KindBadSignature indicates the signature did not verify
	KindBadSignature Kind = "bad_signature"

	// KindMalformed indicates the token could not be parsed
	KindMalformed Kind = "malformed"

	// KindUnsupported indicates an unexpected signing algorithm or token form
	KindUnsupported Kind = "unsupported"

	// KindEmpty indicates an empty token string
	KindEmpty Kind = "empty_token"

	// KindRevoked indicates the token was explicitly invalidated
	KindRevoked Kind = "token_revoked"

	// KindNotFound indicates the requested record does not exist
	KindNotFound Kind = "not_found"

	// KindStore indicates a backing store failure (unreachable backend,
	// serialization error). Callers treat affected tokens as invalid.
	KindStore Kind = "store_failure"

	// KindConfig indicates a configuration problem
	KindConfig Kind = "config_error"

	// KindInternal indicates an unexpected internal failure
	KindInternal Kind = "internal_error"
)

// ================================================================================
// AuthError Interface
// ================================================================================

// AuthError is the structured error type used throughout the subsystem.
type AuthError interface {
	error

	// Kind returns the failure class
	Kind() Kind

	// HTTPStatus returns the HTTP status code this error maps to
	HTTPStatus() int

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause attaches an underlying error
	WithCause(cause error) AuthError

	// WithMetadata attaches context metadata
	WithMetadata(key string, value interface{}) AuthError

	// Metadata returns all attached metadata
	Metadata() map[string]interface{}
}

type baseError struct {
	kind       Kind
	httpStatus int
	message    string
	cause      error
	metadata   map[string]interface{}
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Kind() Kind      { return e.kind }
func (e *baseError) HTTPStatus() int { return e.httpStatus }
func (e *baseError) Unwrap() error   { return e.cause }

func (e *baseError) WithCause(cause error) AuthError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) AuthError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} { return e.metadata }

// Is makes two AuthErrors comparable by kind via errors.Is.
func (e *baseError) Is(target error) bool {
	var ae AuthError
	if stderrors.As(target, &ae) {
		return e.kind == ae.Kind()
	}
	return false
}

// New creates a new AuthError with the given kind, HTTP status, and message.
func New(kind Kind, httpStatus int, message string) AuthError {
	return &baseError{
		kind:       kind,
		httpStatus: httpStatus,
		message:    message,
	}
}

// ================================================================================
// Predefined Constructors
// ================================================================================

// ErrTokenExpired creates an expired-token verification error.
func ErrTokenExpired() AuthError {
	return New(KindExpired, http.StatusUnauthorized, "token has expired")
}

// ErrBadSignature creates a signature verification error.
func ErrBadSignature() AuthError {
	return New(KindBadSignature, http.StatusUnauthorized, "token signature verification failed")
}

// ErrMalformed creates a malformed-token verification error.
func ErrMalformed(reason string) AuthError {
	return New(KindMalformed, http.StatusUnauthorized, fmt.Sprintf("token is malformed: %s", reason))
}

// ErrUnsupported creates an unsupported-algorithm verification error.
func ErrUnsupported(alg string) AuthError {
	return New(KindUnsupported, http.StatusUnauthorized, fmt.Sprintf("unsupported signing method: %s", alg)).
		WithMetadata("alg", alg)
}

// ErrEmptyToken creates an empty-token verification error.
func ErrEmptyToken() AuthError {
	return New(KindEmpty, http.StatusUnauthorized, "token string is empty")
}

// ErrTokenRevoked creates a revoked-token error.
func ErrTokenRevoked(reason string) AuthError {
	e := New(KindRevoked, http.StatusUnauthorized, "token has been revoked")
	if reason != "" {
		e.WithMetadata("reason", reason)
	}
	return e
}

// ErrRecordNotFound creates a not-found error for a token record.
func ErrRecordNotFound(tokenHash string) AuthError {
	return New(KindNotFound, http.StatusNotFound, "token record not found").
		WithMetadata("token_hash", tokenHash)
}

// ErrStoreFailure wraps a backing store failure.
func ErrStoreFailure(op string, cause error) AuthError {
	return New(KindStore, http.StatusServiceUnavailable, fmt.Sprintf("store operation %q failed", op)).
		WithCause(cause)
}

// ErrConfig creates a configuration error.
func ErrConfig(message string) AuthError {
	return New(KindConfig, http.StatusInternalServerError, message)
}

// ErrInternal creates an internal error.
func ErrInternal(message string) AuthError {
	return New(KindInternal, http.StatusInternalServerError, message)
}

// ================================================================================
// Inspection Helpers
// ================================================================================

// AsAuthError attempts to extract an AuthError from an error chain.
func AsAuthError(err error) (AuthError, bool) {
	var ae AuthError
	ok := stderrors.As(err, &ae)
	return ae, ok
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	if ae, ok := AsAuthError(err); ok {
		return ae.Kind() == kind
	}
	return false
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsExpired reports whether err is an expired-token error.
func IsExpired(err error) bool { return IsKind(err, KindExpired) }

// IsVerificationError reports whether err belongs to the verification
// taxonomy. Verification errors are always recoverable at the caller: the
// request is rejected as unauthenticated, never treated as a process fault.
func IsVerificationError(err error) bool {
	ae, ok := AsAuthError(err)
	if !ok {
		return false
	}
	switch ae.Kind() {
	case KindExpired, KindBadSignature, KindMalformed, KindUnsupported, KindEmpty, KindRevoked:
		return true
	}
	return false
}

// IsStoreError reports whether err is a backing store failure.
func IsStoreError(err error) bool { return IsKind(err, KindStore) }

// ================================================================================
// Standard Library Re-exports
// ================================================================================

// Is delegates to the standard library errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As delegates to the standard library errors.As.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }
