// Package apperr holds the error sentinels shared by every concept.
// Concept-specific failures (waiver preconditions, access checks) live with
// their concept; these cover the storage collaborator.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
	// ErrStorageUnavailable is returned when the storage collaborator fails.
	// It is fatal to the current operation and is never retried.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
