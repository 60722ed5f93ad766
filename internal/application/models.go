package application

import (
	"time"

	"github.com/example/roombooking/internal/scheduler"
)

// BookingSequence is the counter name used to allocate booking identifiers.
const BookingSequence = "bookingid"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	// BookingStatusConfirmed is the initial state of every booking.
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusCancelled is terminal.
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled
}

// AttendeeStatus is an attendee's response to an invitation.
type AttendeeStatus string

const (
	AttendeeStatusInvited  AttendeeStatus = "invited"
	AttendeeStatusAccepted AttendeeStatus = "accepted"
	AttendeeStatusDeclined AttendeeStatus = "declined"
)

// Valid reports whether s is a known attendee status.
func (s AttendeeStatus) Valid() bool {
	switch s {
	case AttendeeStatusInvited, AttendeeStatusAccepted, AttendeeStatusDeclined:
		return true
	}
	return false
}

// Creator is the snapshot of the booking's creator taken at creation time.
type Creator struct {
	ID   int64
	Name string
}

// Attendee is an invited participant of a booking.
type Attendee struct {
	UserID     int64
	Name       string
	Status     AttendeeStatus
	AcceptedAt *time.Time
}

// Booking is a time-bounded claim on one room by one creator.
type Booking struct {
	ID          int64
	ResourceID  int64
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Status      BookingStatus
	Creator     Creator
	Attendees   []Attendee
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Interval returns the booking's half-open time range.
func (b Booking) Interval() scheduler.Interval {
	return scheduler.Interval{Start: b.Start, End: b.End}
}

// Resource is a bookable room owned by the resource directory.
type Resource struct {
	ID        int64
	Name      string
	Location  string
	Capacity  int
	IsDeleted bool
}

// Identity is a user known to the identity store.
type Identity struct {
	ID        int64
	Name      string
	Email     string
	IsDeleted bool
}

// AttendeeInput captures caller provided attendee fields.
type AttendeeInput struct {
	UserID int64
	Name   string
	Status AttendeeStatus
}

// BookingInput captures caller provided fields for a new booking.
type BookingInput struct {
	ResourceID  int64
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []AttendeeInput
}

// BookingPatch carries the fields supplied for an update. Nil means "not supplied".
type BookingPatch struct {
	ResourceID  *int64
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	Status      *BookingStatus
	Attendees   *[]AttendeeInput

	// Restricted lists immutable fields that were present in the raw payload.
	Restricted []string
}

// IsEmpty reports whether no updatable field was supplied.
func (p BookingPatch) IsEmpty() bool {
	return p.ResourceID == nil && p.Title == nil && p.Description == nil &&
		p.Start == nil && p.End == nil && p.Status == nil && p.Attendees == nil
}

// CreateBookingParams bundles the acting user with the creation input.
type CreateBookingParams struct {
	ActorID int64
	Input   BookingInput
}

// UpdateBookingParams bundles the acting user with the target booking and patch.
type UpdateBookingParams struct {
	ActorID   int64
	BookingID int64
	Patch     BookingPatch
}

// AvailabilityParams describes a room availability search.
type AvailabilityParams struct {
	Start       time.Time
	End         time.Time
	MinCapacity int
}

// BookingSummary is the payload handed to the notifier.
type BookingSummary struct {
	BookingID   int64
	ResourceID  int64
	Title       string
	Start       time.Time
	End         time.Time
	OrganizerID int64
	Organizer   string
}
