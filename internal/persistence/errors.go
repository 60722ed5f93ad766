package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrIntervalTaken is returned when a confirmed reservation already holds
	// the exact same room and interval.
	ErrIntervalTaken = errors.New("persistence: room interval already reserved")
	// ErrConstraint is returned for foreign key and check constraint violations.
	ErrConstraint = errors.New("persistence: constraint violation")
)
