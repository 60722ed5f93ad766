package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/example/roombooking/internal/scheduler"
)

// AvailabilityService answers which rooms are free for a window.
type AvailabilityService struct {
	reservations ReservationReader
	resources    ResourceDirectory
	now          func() time.Time
	logger       *zap.Logger
}

// NewAvailabilityService wires dependencies for availability queries.
func NewAvailabilityService(reservations ReservationReader, resources ResourceDirectory, now func() time.Time, logger *zap.Logger) *AvailabilityService {
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		reservations: reservations,
		resources:    resources,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// AvailableResources returns every non-deleted room with no confirmed booking
// overlapping [Start, End), ordered by room id. The result is advisory: a
// concurrent writer may take a listed room before the caller books it.
func (s *AvailabilityService) AvailableResources(ctx context.Context, params AvailabilityParams) (rooms []Resource, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "AvailabilityService", "AvailableResources",
		zap.Time("start", params.Start),
		zap.Time("end", params.End),
	)
	defer func() {
		if err != nil {
			logger.Error("failed to search availability", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
			return
		}
		logger.Debug("availability computed", zap.Int("available", len(rooms)))
	}()

	window := scheduler.Interval{Start: params.Start, End: params.End}
	vErr := &ValidationError{}
	if params.Start.IsZero() {
		vErr.add("start", "Start time is required")
	}
	if params.End.IsZero() {
		vErr.add("end", "End time is required")
	}
	if !params.Start.IsZero() && !params.End.IsZero() && !window.Valid() {
		vErr.add("start", "Start time cannot be after end time")
	}
	if !params.Start.IsZero() && params.Start.Before(s.now()) {
		vErr.add("start", "Start time cannot be in the past")
	}
	if params.MinCapacity < 0 {
		vErr.add("capacity", "Capacity must be a positive number")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.reservations == nil || s.resources == nil {
		err = infrastructureError("search availability", errors.New("repositories not configured"))
		return
	}

	active, err := s.reservations.ListActiveReservations(ctx, ActiveReservationQuery{Window: window})
	if err != nil {
		err = infrastructureError("list reservations", err)
		return
	}
	busy := make(map[int64]struct{})
	for _, id := range scheduler.BusyResources(active, window) {
		busy[id] = struct{}{}
	}

	all, err := s.resources.ListResources(ctx)
	if err != nil {
		err = infrastructureError("list rooms", err)
		return
	}

	rooms = make([]Resource, 0, len(all))
	for _, room := range all {
		if room.IsDeleted || room.Capacity < params.MinCapacity {
			continue
		}
		if _, taken := busy[room.ID]; taken {
			continue
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}
