// Package apperror defines the error kinds services return and the stable
// codes clients see for them. Mapping kinds to HTTP statuses is left to the
// handler layer.
package apperror

import (
	"errors"
	"fmt"
)

// Kinds. Match with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
	ErrConflict   = errors.New("already exists")
	ErrForbidden  = errors.New("forbidden")
	ErrStorage    = errors.New("storage unavailable")
)

// Codes reported in the "error" field of a JSON error body.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeForbidden    = "forbidden"
	CodeStorage      = "storage_unavailable"
	CodeUnauthorized = "unauthorized"
	CodeUpstream     = "upstream_error"
	CodeInternal     = "internal_error"
)

type AppError struct {
	Err     error  // one of the Err* kinds
	Message string // safe to show to clients
	Field   string // request field at fault, validation only
	Cause   error  // driver failure; logged, never shown
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the kind and, when set, the cause.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Code returns the client-facing code for err, or CodeInternal when err
// carries no known kind.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrStorage):
		return CodeStorage
	}
	return CodeInternal
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q already exists", resource, id),
	}
}

func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// Storage reports that the store failed while performing op.
func Storage(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("storage failure while %s", op),
		Cause:   cause,
	}
}
