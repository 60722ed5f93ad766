package application

import (
	"context"
	"errors"

	"github.com/example/roombooking/internal/scheduler"
)

// ActiveReservationQuery selects non-cancelled reservations whose interval
// overlaps Window. A zero ResourceID selects every room.
type ActiveReservationQuery struct {
	ResourceID int64
	Window     scheduler.Interval
}

// ReservationReader loads the candidate set for conflict and availability checks.
type ReservationReader interface {
	ListActiveReservations(ctx context.Context, query ActiveReservationQuery) ([]scheduler.Reservation, error)
}

// Recorder receives operational measurements. *metrics.Metrics satisfies it.
type Recorder interface {
	BookingOutcome(operation, outcome string)
	ConflictChecked(conflict bool)
}

// ConflictDetector answers whether a proposed room interval is free.
type ConflictDetector struct {
	reservations ReservationReader
	recorder     Recorder
}

// NewConflictDetector constructs a detector over the reservation reader.
func NewConflictDetector(reservations ReservationReader, recorder Recorder) *ConflictDetector {
	return &ConflictDetector{reservations: reservations, recorder: recorder}
}

// HasConflict reports whether an active reservation other than excludeID
// overlaps [interval.Start, interval.End) on the room.
func (d *ConflictDetector) HasConflict(ctx context.Context, resourceID int64, interval scheduler.Interval, excludeID int64) (bool, error) {
	if d == nil || d.reservations == nil {
		return false, infrastructureError("check conflicts", errors.New("reservation reader not configured"))
	}

	candidates, err := d.reservations.ListActiveReservations(ctx, ActiveReservationQuery{
		ResourceID: resourceID,
		Window:     interval,
	})
	if err != nil {
		return false, infrastructureError("check conflicts", err)
	}

	conflict := scheduler.HasConflict(candidates, scheduler.Reservation{
		ID:         excludeID,
		ResourceID: resourceID,
		Interval:   interval,
	})
	if d.recorder != nil {
		d.recorder.ConflictChecked(conflict)
	}
	return conflict, nil
}

// Ensure returns a *ConflictError when the interval is taken.
func (d *ConflictDetector) Ensure(ctx context.Context, resourceID int64, interval scheduler.Interval, excludeID int64) error {
	conflict, err := d.HasConflict(ctx, resourceID, interval, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return &ConflictError{ResourceID: resourceID, Start: interval.Start, End: interval.End}
	}
	return nil
}
