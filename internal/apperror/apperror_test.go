package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// Every constructor must be recognisable with errors.Is so handlers can map
// it to a status code.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("activity", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("name", "name is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("activity", "abc123"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("activity", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "ValidationFailed does NOT match ErrNotFound",
			err:       ValidationFailed("name", "too long"),
			target:    ErrNotFound,
			wantMatch: false,
		},
		{
			name:      "Storage wraps ErrStorage",
			err:       Storage("inserting activity", errors.New("disk I/O error")),
			target:    ErrStorage,
			wantMatch: true,
		},
		{
			name:      "Storage does NOT match ErrNotFound",
			err:       Storage("listing users", errors.New("database is locked")),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("activity", "abc123"),
			wantMessage: `activity "abc123" not found`,
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("name", "name is required"),
			wantMessage: "name is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("user", "alice"),
			wantMessage: `user "alice" already exists`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("activity", "abc123")

	if got := err.Unwrap(); len(got) != 1 || got[0] != ErrNotFound {
		t.Errorf("Unwrap() = %v, want [%v]", got, ErrNotFound)
	}
}

func TestStorageCauseIsReachable(t *testing.T) {
	cause := errors.New("database is locked")
	err := fmt.Errorf("service: %w", Storage("updating points", cause))

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if !errors.Is(err, ErrStorage) {
		t.Error("errors.Is(err, ErrStorage) = false, want true")
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ValidationFailed("kwh", "bad"), CodeValidation},
		{NotFound("user", "u1"), CodeNotFound},
		{Conflict("user", "alice"), CodeConflict},
		{Forbidden("no"), CodeForbidden},
		{fmt.Errorf("wrapped: %w", Storage("listing", errors.New("io"))), CodeStorage},
		{errors.New("boom"), CodeInternal},
	}

	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestStorageKeepsCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := Storage("updating points", cause)

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if got, want := err.Error(), "storage failure while updating points"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("distance", "distance must not be negative")

	if err.Field != "distance" {
		t.Errorf("Field = %q, want %q", err.Field, "distance")
	}
}
