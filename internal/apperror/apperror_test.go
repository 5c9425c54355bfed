package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// Each case checks that errors.Is() classifies a constructed error correctly.
func TestErrorsIs(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("restaurant", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("text", "comment must be at least 10 characters"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "alice"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("not your comment"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid username or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "QueryFailed wraps ErrStorage",
			err:       QueryFailed("find restaurants", cause),
			target:    ErrStorage,
			wantMatch: true,
		},
		{
			name:      "QueryFailed keeps the cause in the chain",
			err:       QueryFailed("find restaurants", cause),
			target:    cause,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("loading detail: %w", NotFound("restaurant", "x")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrForbidden",
			err:       NotFound("comment", "abc123"),
			target:    ErrForbidden,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrNotFound",
			err:       Forbidden("not your comment"),
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
			err:         NotFound("restaurant", "abc123"),
			wantMessage: "restaurant not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("rating", "rating must be between 1 and 5"),
			wantMessage: "rating must be between 1 and 5",
		},
		{
			name:        "QueryFailed carries the cause message",
			err:         QueryFailed("count restaurants", errors.New("server selection timeout")),
			wantMessage: "count restaurants failed: server selection timeout",
		},
		{
			name:        "QueryFailed without cause",
			err:         QueryFailed("count restaurants", nil),
			wantMessage: "count restaurants failed",
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

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("text", "comment is too short")

	if err.Field != "text" {
		t.Errorf("Field = %q, want %q", err.Field, "text")
	}
}

func TestErrorsAs(t *testing.T) {
	err := fmt.Errorf("service: %w", Forbidden("you can only edit your own comments"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As() did not find *AppError in the chain")
	}
	if appErr.Message != "you can only edit your own comments" {
		t.Errorf("Message = %q", appErr.Message)
	}
}
