package core

import (
	"errors"
	"fmt"
)

// Domain errors carry enough context for the HTTP layer to pick a status
// code and a human-readable message. Unexpected store failures stay plain
// wrapped errors and surface as internal errors.

// NotFoundError reports a referenced entity id that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConflictError reports a delete blocked by existing references.
type ConflictError struct {
	Entity     string
	ID         int64
	Dependents string
	Count      int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot delete %s %d: %d %s still reference it",
		e.Entity, e.ID, e.Count, e.Dependents)
}

// ValidationError reports a missing or malformed field in a payload.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
