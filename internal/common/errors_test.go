package common

import (
	"errors"
	"testing"
)

func TestAppErrorUnwraps(t *testing.T) {
	err := NewAppError("DB_ERROR", "insert scan", ErrDatabase)

	if !errors.Is(err, ErrDatabase) {
		t.Fatal("AppError should unwrap to its cause")
	}
	if got := err.Error(); got != "DB_ERROR: insert scan: database error" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewAppError("CONFIG_ERROR", "missing addr", nil)
	if got := err.Error(); got != "CONFIG_ERROR: missing addr" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Fatal("wrapping nil should stay nil")
	}
	wrapped := WrapError(ErrNotFound, "load scan")
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatal("wrapped error should match the sentinel")
	}
	if got := wrapped.Error(); got != "load scan: resource not found" {
		t.Fatalf("Error() = %q", got)
	}
}
