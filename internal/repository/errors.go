// Package repository defines the persistent store consumed by the
// scheduling, inventory and booking packages, and its MySQL
// implementation.  The sentinel values below allow higher layers such
// as handlers to distinguish between different failure scenarios.
package repository

import "errors"

// ErrNotFound is returned when a template, trip instance, reservation,
// company, agency or counter does not exist.  Handlers translate it into
// an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a create would violate a uniqueness
// constraint, such as a second trip instance with the same composite key
// or a reused request id.
var ErrConflict = errors.New("conflict")
