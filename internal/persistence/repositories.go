package persistence

import "context"

// RoomRepository reads the room directory. Soft-deleted rooms are never returned.
type RoomRepository interface {
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	UpsertRoom(ctx context.Context, room Room) error
}

// UserRepository reads the identity store. Soft-deleted users are never returned.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (User, error)
	GetUsers(ctx context.Context, ids []int64) ([]User, error)
	UpsertUser(ctx context.Context, user User) error
}

// ReservationRepository stores reservations and their attendees.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	UpdateReservation(ctx context.Context, id int64, changes ReservationChanges) error
	ListActiveSlots(ctx context.Context, query SlotQuery) ([]ReservationSlot, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, int, error)
}

// SequenceRepository allocates monotonically increasing identifiers.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
	Seed(ctx context.Context, name string, value int64) error
}
