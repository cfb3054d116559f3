package store

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an insert loses the race on the
	// scheduled-slot uniqueness constraint. Callers may retry after a
	// fresh availability read.
	ErrConflict = errors.New("slot uniqueness conflict")

	// ErrStaleStatus is returned when a status update targets an
	// appointment that has already left the scheduled state.
	ErrStaleStatus = errors.New("appointment already in a terminal state")
)
