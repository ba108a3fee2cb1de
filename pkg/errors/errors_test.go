package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConflict, "draw %s is running", "abc")

	if err.Code != ErrCodeConflict {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeConflict)
	}
	if err.Message != "draw abc is running" {
		t.Errorf("Message = %v, want %v", err.Message, "draw abc is running")
	}
	expected := "CONFLICT: draw abc is running"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeInternal, cause, "save settings")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestInvalid(t *testing.T) {
	err := Invalid("empty", "please enter at least one name")

	if err.Code() != ErrCodeInvalidInput {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeInvalidInput)
	}
	if Reason(err) != "empty" {
		t.Errorf("Reason() = %q, want empty", Reason(err))
	}
	wrapped := fmt.Errorf("start draw: %w", err)
	if Reason(wrapped) != "empty" {
		t.Errorf("Reason(wrapped) = %q, want empty", Reason(wrapped))
	}
	if !Is(wrapped, ErrCodeInvalidInput) {
		t.Error("Is(wrapped, INVALID_INPUT) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeNotFound, "test"),
			code:     ErrCodeNotFound,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeNotFound, "test"),
			code:     ErrCodeConflict,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInternal, New(ErrCodeNotFound, "inner"), "outer"),
			code:     ErrCodeInternal,
			expected: true,
		},
		{
			name:     "validation error",
			err:      Invalid("count-below-one", "too few"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeNotFound, "draw not found"),
			expected: "draw not found",
		},
		{
			name:     "validation error",
			err:      Invalid("empty", "please enter at least one name"),
			expected: "please enter at least one name",
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}
