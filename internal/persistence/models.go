package persistence

import "time"

// Room represents a bookable meeting room.
type Room struct {
	ID        int64
	Name      string
	Location  string
	Capacity  int
	IsDeleted bool
}

// User represents a person who can create or attend reservations.
type User struct {
	ID        int64
	Name      string
	Email     string
	IsDeleted bool
}

// Attendee is a participant row attached to a reservation.
type Attendee struct {
	UserID     int64
	Name       string
	Status     string
	AcceptedAt *time.Time
}

// Reservation represents a booking stored in persistence.
type Reservation struct {
	ID          int64
	RoomID      int64
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Status      string
	CreatorID   int64
	CreatorName string
	Attendees   []Attendee
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReservationSlot is the interval projection of a reservation.
type ReservationSlot struct {
	ID     int64
	RoomID int64
	Start  time.Time
	End    time.Time
	Status string
}

// ReservationChanges lists the columns an update writes. Nil fields are left untouched.
type ReservationChanges struct {
	RoomID      *int64
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	Status      *string
	Attendees   *[]Attendee
	UpdatedAt   time.Time
}

// SortColumn names a sortable reservation column.
type SortColumn string

const (
	SortStart   SortColumn = "start"
	SortEnd     SortColumn = "end"
	SortStatus  SortColumn = "status"
	SortCreator SortColumn = "creator"
	SortRoom    SortColumn = "room"
	SortID      SortColumn = "id"
)

// SortTerm is one ORDER BY term.
type SortTerm struct {
	Column SortColumn
	Desc   bool
}

// SlotQuery selects active reservations overlapping [Start, End). A zero
// RoomID selects every room.
type SlotQuery struct {
	RoomID int64
	Start  time.Time
	End    time.Time
}

// ReservationFilter narrows reservation listings. A nil Status excludes
// cancelled reservations. From/To bound the interval; Inclusive switches
// from strict overlap to touching semantics.
type ReservationFilter struct {
	RoomID    *int64
	CreatorID *int64
	Status    *string
	From      *time.Time
	To        *time.Time
	Inclusive bool
	Sort      []SortTerm
	Limit     int
	Offset    int
}
