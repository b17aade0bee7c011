package repo_errors

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStaleState is returned when a conditional update matched no row:
	// the record's current status differs from the expected one, usually
	// because a concurrent caller transitioned it first.
	ErrStaleState = errors.New("record is not in the expected state")
)
