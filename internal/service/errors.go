package service

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested resource (or a referenced foreign
// key target) does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError represents a bad-request condition (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError represents a conflict condition (HTTP 409), e.g. a
// delete blocked by existing children.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// DuplicateKeyError represents a unique-constraint violation, naming
// the conflicting field.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

// PermissionDeniedError indicates the actor lacks the required role or
// does not own the resource.
type PermissionDeniedError struct {
	Message string
}

func (e *PermissionDeniedError) Error() string { return e.Message }
