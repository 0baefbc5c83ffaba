// Package apperr defines the error taxonomy shared by the scheduling,
// inventory and booking packages.  Handlers translate these values into
// HTTP responses; see handler.writeError.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingContext is returned when a required company, agency or trip
// identifier is absent from a request.
var ErrMissingContext = errors.New("missing context")

// ErrInvalidTransition is returned when a reservation cannot move to the
// requested status from its current one.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrTransient matches every TransientError through errors.Is.
var ErrTransient = errors.New("transient store failure")

// ValidationError lists the rejected input fields with a short reason
// each.  Nothing has been written when it is returned.
type ValidationError struct {
	Fields map[string]string
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CapacityExceededError reports a booking that does not fit into the
// remaining seats of a trip instance.
type CapacityExceededError struct {
	TripID    string
	Requested int
	Remaining int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded on trip %s: requested %d, remaining %d", e.TripID, e.Requested, e.Remaining)
}

// TransientError wraps an I/O failure of the persistent store.  The
// operation may be retried.
type TransientError struct {
	Op  string
	Err error
}

// Transient wraps err as a TransientError unless it is nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

func (e *TransientError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }
