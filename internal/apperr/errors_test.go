package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestTransientMatchesSentinel(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("expand: %w", Transient("get template", cause))
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if Transient("noop", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"capacity": "must be > 0", "arrival": "required"}}
	want := "validation failed: arrival: required; capacity: must be > 0"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

func TestCapacityExceededAs(t *testing.T) {
	var err error = fmt.Errorf("book: %w", &CapacityExceededError{TripID: "t1", Requested: 2, Remaining: 1})
	var ce *CapacityExceededError
	if !errors.As(err, &ce) || ce.Remaining != 1 {
		t.Fatalf("expected CapacityExceededError with remaining 1, got %v", err)
	}
}
