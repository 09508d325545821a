package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Fields carries per-field detail for
// validation failures so the transport layer can report all of them at once.
type Error struct {
	Code    ErrorCode
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewValidationError builds a validation error carrying field-level detail.
func NewValidationError(message string, fields ...string) *Error {
	return &Error{Code: ErrCodeValidation, Message: message, Fields: fields}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
//
// ErrInvalidCredentials covers every authentication failure mode: unknown
// user, wrong password, malformed/expired token, token for a deleted user.
// Callers must not be able to tell these apart.
//
// ErrTaskNotFound covers both a task that does not exist and a task owned by
// someone else; the two are deliberately indistinguishable.
var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "task not found")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "could not validate credentials")
	ErrEmailTaken         = NewError(ErrCodeConflict, "email already registered")
	ErrUsernameTaken      = NewError(ErrCodeConflict, "username already taken")
	ErrStoreUnavailable   = NewError(ErrCodeUnavailable, "storage unavailable")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
