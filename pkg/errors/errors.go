package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrAlreadyRegistered
	ErrInvalidCredentials
	ErrNotVerified
	ErrConflict
	ErrUnavailable
	ErrPartialCompletion
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

// Validation reports bad input. It is raised before any write is attempted
// and is never worth retrying.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

// AlreadyRegistered reports a sign-up against an email that already has an
// account. The caller should offer resend/sign-in, not a fresh sign-up.
func AlreadyRegistered(email string) *AppError {
	return &AppError{
		Code:    ErrAlreadyRegistered,
		Message: fmt.Sprintf("email %s is already registered", email),
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Code:    ErrInvalidCredentials,
		Message: "invalid credentials",
	}
}

func NotVerified() *AppError {
	return &AppError{
		Code:    ErrNotVerified,
		Message: "email address not verified",
	}
}

// Conflict reports a state transition refused because the record is not in
// the expected state. No state changed.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
	}
}

// Unavailable reports that the backing store or identity provider could not
// be reached. Safe to retry: writes behind it are either idempotent or
// tolerate duplication.
func Unavailable(err error) *AppError {
	return &AppError{
		Code:    ErrUnavailable,
		Message: "service unavailable",
		Err:     err,
	}
}

// PartialCompletion reports that a multi-step write committed partway and
// left related records inconsistent. It must reach an operator, never be
// swallowed. CommittedStep names the last write that succeeded.
func PartialCompletion(committedStep string, err error) *AppError {
	return &AppError{
		Code:    ErrPartialCompletion,
		Message: fmt.Sprintf("operation partially completed (last committed step: %s), reconciliation required", committedStep),
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from err, or ErrInternal if err is not an
// AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}
