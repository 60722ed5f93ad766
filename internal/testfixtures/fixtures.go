package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
)

var (
	roomCounter    int64
	userCounter    int64
	bookingCounter int64
)

var referenceTime = time.Date(2030, time.May, 6, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic room record that can be materialised
// for application or persistence tests.
type RoomFixture struct {
	ID        int64
	Name      string
	Location  string
	Capacity  int
	IsDeleted bool
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a room fixture with a process-unique id.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddInt64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:       idx,
		Name:     fmt.Sprintf("Room %03d", idx),
		Location: fmt.Sprintf("%dF", idx%10+1),
		Capacity: 8,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithRoomID(id int64) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithRoomDeleted marks the room as soft-deleted.
func WithRoomDeleted() RoomOption {
	return func(f *RoomFixture) {
		f.IsDeleted = true
	}
}

// Persistence converts the fixture into a persistence.Room.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		IsDeleted: f.IsDeleted,
	}
}

// Resource converts the fixture into an application.Resource.
func (f RoomFixture) Resource() application.Resource {
	return application.Resource{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		IsDeleted: f.IsDeleted,
	}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic directory user.
type UserFixture struct {
	ID        int64
	Name      string
	Email     string
	IsDeleted bool
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user fixture with a process-unique id.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddInt64(&userCounter, 1)
	fixture := UserFixture{
		ID:    idx,
		Name:  fmt.Sprintf("User %03d", idx),
		Email: fmt.Sprintf("user-%03d@example.com", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUserID(id int64) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserEmail overrides the generated email address. An empty address
// means the user cannot be notified.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDeleted marks the user as soft-deleted.
func WithUserDeleted() UserOption {
	return func(f *UserFixture) {
		f.IsDeleted = true
	}
}

// Persistence converts the fixture into a persistence.User.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{ID: f.ID, Name: f.Name, Email: f.Email, IsDeleted: f.IsDeleted}
}

// Identity converts the fixture into an application.Identity.
func (f UserFixture) Identity() application.Identity {
	return application.Identity{ID: f.ID, Name: f.Name, Email: f.Email, IsDeleted: f.IsDeleted}
}

// ----------------------------- Booking fixtures -----------------------------

// AttendeeFixture is one participant of a BookingFixture.
type AttendeeFixture struct {
	UserID     int64
	Name       string
	Status     string
	AcceptedAt *time.Time
}

// BookingFixture represents a deterministic booking. Generated bookings do
// not overlap one another: each starts one hour after the previous one.
type BookingFixture struct {
	ID          int64
	RoomID      int64
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Status      string
	CreatorID   int64
	CreatorName string
	Attendees   []AttendeeFixture
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a confirmed one-hour booking on room 1.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddInt64(&bookingCounter, 1)
	start := referenceTime.Add(24*time.Hour + time.Duration(idx)*time.Hour)
	fixture := BookingFixture{
		ID:          idx,
		RoomID:      1,
		Title:       fmt.Sprintf("Booking %03d", idx),
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      string(application.BookingStatusConfirmed),
		CreatorID:   1,
		CreatorName: "Creator",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithBookingID(id int64) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

func WithBookingRoom(roomID int64) BookingOption {
	return func(f *BookingFixture) {
		f.RoomID = roomID
	}
}

// WithBookingInterval sets the half-open interval [start, end).
func WithBookingInterval(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

func WithBookingStatus(status application.BookingStatus) BookingOption {
	return func(f *BookingFixture) {
		f.Status = string(status)
	}
}

func WithBookingCreator(id int64, name string) BookingOption {
	return func(f *BookingFixture) {
		f.CreatorID = id
		f.CreatorName = name
	}
}

func WithBookingAttendees(attendees ...AttendeeFixture) BookingOption {
	return func(f *BookingFixture) {
		f.Attendees = append([]AttendeeFixture(nil), attendees...)
	}
}

// Persistence converts the fixture into a persistence.Reservation.
func (f BookingFixture) Persistence() persistence.Reservation {
	var attendees []persistence.Attendee
	for _, a := range f.Attendees {
		attendees = append(attendees, persistence.Attendee{
			UserID:     a.UserID,
			Name:       a.Name,
			Status:     a.Status,
			AcceptedAt: a.AcceptedAt,
		})
	}
	return persistence.Reservation{
		ID:          f.ID,
		RoomID:      f.RoomID,
		Title:       f.Title,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Status:      f.Status,
		CreatorID:   f.CreatorID,
		CreatorName: f.CreatorName,
		Attendees:   attendees,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Booking converts the fixture into an application.Booking.
func (f BookingFixture) Booking() application.Booking {
	attendees := make([]application.Attendee, 0, len(f.Attendees))
	for _, a := range f.Attendees {
		attendees = append(attendees, application.Attendee{
			UserID:     a.UserID,
			Name:       a.Name,
			Status:     application.AttendeeStatus(a.Status),
			AcceptedAt: a.AcceptedAt,
		})
	}
	return application.Booking{
		ID:          f.ID,
		ResourceID:  f.RoomID,
		Title:       f.Title,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Status:      application.BookingStatus(f.Status),
		Creator:     application.Creator{ID: f.CreatorID, Name: f.CreatorName},
		Attendees:   attendees,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
