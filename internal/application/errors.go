package application

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnauthorized is returned when the acting user may not perform an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when a referenced booking, room or user does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when the requested interval is already occupied.
	ErrConflict = errors.New("application: conflict")
	// ErrInfrastructure is returned when a backing store or collaborator fails.
	ErrInfrastructure = errors.New("application: infrastructure failure")
	// ErrEmptyUpdate is returned when an update request carries no fields.
	ErrEmptyUpdate = errors.New("application: nothing to update")
)

// FieldError is a single named validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	Fields []FieldError

	cause error
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(v.Messages(), "; ")
}

// Unwrap exposes a sentinel such as ErrEmptyUpdate when one was attached.
func (v *ValidationError) Unwrap() error {
	if v == nil {
		return nil
	}
	return v.cause
}

// Messages returns the recorded messages in insertion order.
func (v *ValidationError) Messages() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		out[i] = f.Message
	}
	return out
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

func (v *ValidationError) add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

func (v *ValidationError) addf(field, format string, args ...any) {
	v.add(field, fmt.Sprintf(format, args...))
}

func (v *ValidationError) merge(other *ValidationError) {
	if other == nil {
		return
	}
	v.Fields = append(v.Fields, other.Fields...)
	if v.cause == nil {
		v.cause = other.cause
	}
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// ConflictError reports that a room is already booked for an overlapping interval.
type ConflictError struct {
	ResourceID int64
	Start      time.Time
	End        time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %d is already booked between %s and %s",
		e.ResourceID, e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339))
}

// Is matches ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError reports a missing booking, room or user.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AuthorizationError reports that the actor is not the booking's creator.
type AuthorizationError struct {
	ActorID   int64
	BookingID int64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not allowed to modify booking %d", e.ActorID, e.BookingID)
}

// Is matches ErrUnauthorized.
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// InfrastructureError wraps a failure of a store or collaborator.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Is matches ErrInfrastructure.
func (e *InfrastructureError) Is(target error) bool {
	return target == ErrInfrastructure
}

func infrastructureError(op string, err error) error {
	if err == nil {
		return nil
	}
	var infra *InfrastructureError
	if errors.As(err, &infra) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}
