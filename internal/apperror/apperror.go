// Package apperror defines the domain error kinds returned by the service layer.
//
// Every failure the account service can produce maps to exactly one sentinel
// below. Constructors wrap a sentinel in an *AppError carrying the
// human-readable message; the HTTP layer uses errors.Is to pick a status
// code and never inspects message text. Messages must never contain password
// hashes or the signing secret.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicate              = errors.New("duplicate")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrMissingCurrentPassword = errors.New("missing current password")
	ErrValidation             = errors.New("validation error")
	ErrCrypto                 = errors.New("crypto failure")
	ErrStore                  = errors.New("store failure")
	ErrConfig                 = errors.New("config failure")
)

type AppError struct {
	Err     error  // sentinel identifying the kind (possibly with a wrapped cause)
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Duplicate reports a uniqueness violation, e.g. signing up with an email
// that already belongs to an account.
func Duplicate(resource, field string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: fmt.Sprintf("%s already exists with this %s", resource, field),
		Field:   field,
	}
}

// InvalidCredentials carries a fixed message on purpose — it must not reveal
// whether the email or the password was the wrong half.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid credentials",
	}
}

func MissingCurrentPassword() *AppError {
	return &AppError{
		Err:     ErrMissingCurrentPassword,
		Message: "provide your current password with 'currentPassword' before you can update your password",
		Field:   "currentPassword",
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Crypto wraps an internal hashing failure. The cause stays in the chain for
// logs; the message shown to callers is generic.
func Crypto(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrCrypto, cause),
		Message: "internal cryptographic error",
	}
}

// Store wraps a persistence failure. Not retried — writes like insert may
// not be idempotent, so the caller sees the failure as-is.
func Store(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrStore, cause),
		Message: "storage error",
	}
}

// Config reports missing or invalid startup configuration. Fatal at process
// start, never returned per-request.
func Config(message string) *AppError {
	return &AppError{
		Err:     ErrConfig,
		Message: message,
	}
}
