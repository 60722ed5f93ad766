package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/scheduler"
)

const (
	// MinBookingDuration is the shortest bookable interval.
	MinBookingDuration = 15 * time.Minute
	// MaxBookingDuration is the longest bookable interval.
	MaxBookingDuration = 8 * time.Hour

	maxTitleLength = 200
)

// ResourceDirectory exposes room lookups. Implementations never return soft-deleted rooms.
type ResourceDirectory interface {
	FindResource(ctx context.Context, id int64) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
}

// NormalizedBooking is a validated creation payload.
type NormalizedBooking struct {
	Resource    Resource
	Title       string
	Description string
	Interval    scheduler.Interval
	Attendees   []Attendee
}

// PartialUpdate is a validated update payload overlaid on the stored booking.
type PartialUpdate struct {
	ResourceID  int64
	Interval    scheduler.Interval
	Title       *string
	Description *string
	Status      *BookingStatus
	Attendees   *[]Attendee

	ResourceChanged bool
	TimingChanged   bool
}

// Cancels reports whether the update moves the booking to cancelled.
func (u PartialUpdate) Cancels() bool {
	return u.Status != nil && *u.Status == BookingStatusCancelled
}

// BookingValidator normalizes and validates creation and update payloads.
type BookingValidator struct {
	resources ResourceDirectory
	now       func() time.Time
}

// NewBookingValidator constructs a validator backed by the resource directory.
func NewBookingValidator(resources ResourceDirectory, now func() time.Time) *BookingValidator {
	if now == nil {
		now = time.Now
	}
	return &BookingValidator{resources: resources, now: now}
}

// ValidateCreate checks a full creation payload. A well formed room id is
// resolved first, so a missing room is reported as NotFoundError even when the
// rest of the payload is invalid. Shape errors are then reported together.
func (v *BookingValidator) ValidateCreate(ctx context.Context, input BookingInput) (NormalizedBooking, error) {
	now := v.now()
	vErr := &ValidationError{}

	var resource Resource
	if input.ResourceID > 0 {
		found, err := v.findResource(ctx, input.ResourceID)
		if err != nil {
			return NormalizedBooking{}, err
		}
		resource = found
	} else {
		validateResourceID(vErr, input.ResourceID)
	}

	if input.Start.IsZero() {
		vErr.add("start", "Start time is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "End time is required")
	}
	interval := scheduler.Interval{Start: input.Start, End: input.End}
	if !input.Start.IsZero() && !input.End.IsZero() {
		validateInterval(vErr, interval)
	}
	if !input.Start.IsZero() && input.Start.Before(now) {
		vErr.add("start", "Start time cannot be in the past")
	}

	title := strings.TrimSpace(input.Title)
	validateTitle(vErr, title)

	attendees := normalizeAttendees(vErr, input.Attendees, nil, now)

	if vErr.HasErrors() {
		return NormalizedBooking{}, vErr
	}

	if len(attendees) > 0 {
		if err := checkCapacity(resource, len(attendees)); err != nil {
			return NormalizedBooking{}, err
		}
	}

	return NormalizedBooking{
		Resource:    resource,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Interval:    interval,
		Attendees:   attendees,
	}, nil
}

// ValidateUpdate checks the supplied fields of patch against the stored booking.
// Timing rules apply to the effective interval, i.e. the stored bounds overlaid
// with whichever bounds the patch supplies.
func (v *BookingValidator) ValidateUpdate(ctx context.Context, patch BookingPatch, current Booking) (PartialUpdate, error) {
	now := v.now()
	vErr := &ValidationError{}

	for _, field := range patch.Restricted {
		vErr.addf(field, "Field %s cannot be updated", field)
	}
	if vErr.HasErrors() {
		return PartialUpdate{}, vErr
	}
	if patch.IsEmpty() {
		empty := newValidationError("update", "At least one field is required for update")
		empty.cause = ErrEmptyUpdate
		return PartialUpdate{}, empty
	}

	if current.Status == BookingStatusCancelled {
		return PartialUpdate{}, newValidationError("status", "Cancelled bookings cannot be modified")
	}

	update := PartialUpdate{
		ResourceID: current.ResourceID,
		Interval:   current.Interval(),
	}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			vErr.add("status", "Invalid status provided")
		} else {
			status := *patch.Status
			update.Status = &status
		}
	}

	if patch.ResourceID != nil {
		validateResourceID(vErr, *patch.ResourceID)
		update.ResourceID = *patch.ResourceID
		update.ResourceChanged = *patch.ResourceID != current.ResourceID
	}

	if patch.Start != nil || patch.End != nil {
		if patch.Start != nil {
			update.Interval.Start = *patch.Start
			if patch.Start.Before(now) {
				vErr.add("start", "Start time cannot be in the past")
			}
		}
		if patch.End != nil {
			update.Interval.End = *patch.End
			if patch.End.Before(now) {
				vErr.add("end", "End time cannot be in the past")
			}
		}
		validateInterval(vErr, update.Interval)
		update.TimingChanged = !update.Interval.Equal(current.Interval())
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		validateTitle(vErr, title)
		update.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		update.Description = &description
	}

	if patch.Attendees != nil {
		attendees := normalizeAttendees(vErr, *patch.Attendees, current.Attendees, now)
		update.Attendees = &attendees
	}

	if vErr.HasErrors() {
		return PartialUpdate{}, vErr
	}

	attendeeCount := len(current.Attendees)
	if update.Attendees != nil {
		attendeeCount = len(*update.Attendees)
	}

	if update.ResourceChanged || (update.Attendees != nil && attendeeCount > 0) {
		resource, err := v.findResource(ctx, update.ResourceID)
		if err != nil {
			return PartialUpdate{}, err
		}
		if attendeeCount > 0 {
			if err := checkCapacity(resource, attendeeCount); err != nil {
				return PartialUpdate{}, err
			}
		}
	}

	return update, nil
}

func (v *BookingValidator) findResource(ctx context.Context, id int64) (Resource, error) {
	if v.resources == nil {
		return Resource{}, infrastructureError("find room", errors.New("resource directory not configured"))
	}
	resource, err := v.resources.FindResource(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return Resource{}, &NotFoundError{Entity: "room", ID: id}
		}
		return Resource{}, infrastructureError("find room", err)
	}
	if resource.IsDeleted {
		return Resource{}, &NotFoundError{Entity: "room", ID: id}
	}
	return resource, nil
}

func validateResourceID(vErr *ValidationError, id int64) {
	switch {
	case id == 0:
		vErr.add("resourceId", "Room ID is required")
	case id < 0:
		vErr.add("resourceId", "Invalid Room ID format")
	}
}

func validateInterval(vErr *ValidationError, interval scheduler.Interval) {
	if !interval.Valid() {
		vErr.add("start", "Start time cannot be after end time")
		return
	}
	if d := interval.Duration(); d < MinBookingDuration {
		vErr.add("end", "The meeting duration cannot be less than 15 minutes")
	} else if d > MaxBookingDuration {
		vErr.add("end", "The meeting duration cannot exceed 8 hours")
	}
}

func validateTitle(vErr *ValidationError, title string) {
	if utf8.RuneCountInString(title) > maxTitleLength {
		vErr.addf("title", "Title cannot exceed %d characters", maxTitleLength)
	}
}

func checkCapacity(resource Resource, count int) error {
	if count > resource.Capacity {
		return newValidationError("attendees", fmt.Sprintf("Maximum %d attendees are allowed per booking", resource.Capacity))
	}
	return nil
}

// normalizeAttendees validates inputs and builds attendee records. An
// accepted attendee keeps the acceptance time recorded in previous.
func normalizeAttendees(vErr *ValidationError, inputs []AttendeeInput, previous []Attendee, now time.Time) []Attendee {
	if len(inputs) == 0 {
		return []Attendee{}
	}

	acceptedAt := make(map[int64]*time.Time, len(previous))
	for _, p := range previous {
		if p.Status == AttendeeStatusAccepted && p.AcceptedAt != nil {
			acceptedAt[p.UserID] = p.AcceptedAt
		}
	}

	seen := make(map[int64]struct{}, len(inputs))
	duplicate := false
	attendees := make([]Attendee, 0, len(inputs))
	for i, in := range inputs {
		position := i + 1
		if in.UserID <= 0 {
			vErr.addf("attendees", "Attendee %d: Invalid user ID", position)
		} else if _, ok := seen[in.UserID]; ok {
			duplicate = true
		} else {
			seen[in.UserID] = struct{}{}
		}

		name := strings.TrimSpace(in.Name)
		if name == "" {
			vErr.addf("attendees", "Attendee %d: Name is required", position)
		}

		status := in.Status
		if status == "" {
			status = AttendeeStatusInvited
		}
		if !status.Valid() {
			vErr.addf("attendees", "Attendee %d: Invalid status", position)
		}

		attendee := Attendee{UserID: in.UserID, Name: name, Status: status}
		if status == AttendeeStatusAccepted {
			if prev, ok := acceptedAt[in.UserID]; ok {
				attendee.AcceptedAt = prev
			} else {
				stamp := now
				attendee.AcceptedAt = &stamp
			}
		}
		attendees = append(attendees, attendee)
	}

	if duplicate {
		vErr.add("attendees", "Duplicate attendees are not allowed")
	}
	return attendees
}

func isNotFound(err error) bool {
	return errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound)
}
