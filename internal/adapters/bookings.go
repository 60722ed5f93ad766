package adapters

import (
	"context"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/scheduler"
)

// BookingRepository serves application.BookingRepository and
// application.BookingLister from a persistence.ReservationRepository.
type BookingRepository struct {
	repo persistence.ReservationRepository
}

var (
	_ application.BookingRepository = (*BookingRepository)(nil)
	_ application.BookingLister     = (*BookingRepository)(nil)
)

func NewBookingRepository(repo persistence.ReservationRepository) *BookingRepository {
	return &BookingRepository{repo: repo}
}

func (a *BookingRepository) ListActiveReservations(ctx context.Context, query application.ActiveReservationQuery) ([]scheduler.Reservation, error) {
	slots, err := a.repo.ListActiveSlots(ctx, persistence.SlotQuery{
		RoomID: query.ResourceID,
		Start:  query.Window.Start,
		End:    query.Window.End,
	})
	if err != nil {
		return nil, err
	}
	out := make([]scheduler.Reservation, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSchedulerReservation(s))
	}
	return out, nil
}

// CreateBooking stores the booking and reads it back so that the caller sees
// the stored representation.
func (a *BookingRepository) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(booking)); err != nil {
		return application.Booking{}, err
	}
	return a.GetBooking(ctx, booking.ID)
}

func (a *BookingRepository) GetBooking(ctx context.Context, id int64) (application.Booking, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *BookingRepository) UpdateBooking(ctx context.Context, id int64, changes application.BookingChanges) (application.Booking, error) {
	if err := a.repo.UpdateReservation(ctx, id, toPersistenceChanges(changes)); err != nil {
		return application.Booking{}, err
	}
	return a.GetBooking(ctx, id)
}

func (a *BookingRepository) ListBookings(ctx context.Context, query application.BookingListQuery) ([]application.Booking, int, error) {
	stored, total, err := a.repo.ListReservations(ctx, toReservationFilter(query))
	if err != nil {
		return nil, 0, err
	}
	out := make([]application.Booking, 0, len(stored))
	for _, r := range stored {
		out = append(out, toApplicationBooking(r))
	}
	return out, total, nil
}
