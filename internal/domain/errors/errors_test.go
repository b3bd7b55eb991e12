package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrAlreadyExists,
		ErrNotFound,
		ErrInvalidCredentials,
		ErrInvalidTransition,
		ErrConflict,
		ErrAlreadyPaid,
		ErrInvalidCoordinates,
		ErrInvalidAmount,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && stderrors.Is(a, b) {
				t.Fatalf("sentinel %v unexpectedly matches %v", a, b)
			}
		}
	}
}

func TestWrappedSentinelMatches(t *testing.T) {
	wrapped := fmt.Errorf("update order: %w", ErrInvalidTransition)
	if !stderrors.Is(wrapped, ErrInvalidTransition) {
		t.Fatal("expected wrapped error to match sentinel")
	}
}
