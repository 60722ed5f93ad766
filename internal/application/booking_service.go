package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/roombooking/internal/persistence"
)

// BookingChanges lists the columns an update writes. Nil fields are left untouched.
type BookingChanges struct {
	ResourceID  *int64
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	Status      *BookingStatus
	Attendees   *[]Attendee
	UpdatedAt   time.Time
}

// BookingRepository captures the persistence interactions needed by the lifecycle.
type BookingRepository interface {
	ReservationReader
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	UpdateBooking(ctx context.Context, id int64, changes BookingChanges) (Booking, error)
}

// IdentityStore exposes user lookups. Implementations never return soft-deleted users.
type IdentityStore interface {
	FindIdentity(ctx context.Context, id int64) (Identity, error)
	// FindIdentities returns the users that exist among ids; missing ids are omitted.
	FindIdentities(ctx context.Context, ids []int64) ([]Identity, error)
}

// SequenceAllocator issues monotonically increasing identifiers per sequence name.
type SequenceAllocator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Transactor runs fn inside a single store transaction carried by the context.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ResourceLocker serializes writers on one room across processes.
type ResourceLocker interface {
	LockResource(ctx context.Context, resourceID int64) (release func(ctx context.Context) error, err error)
}

// Notifier delivers booking invitations. Failures never affect the booking.
type Notifier interface {
	Notify(ctx context.Context, email string, summary BookingSummary) error
}

type lockObserver interface {
	LockAcquired(wait time.Duration, acquired bool)
}

// BookingService orchestrates validation, conflict detection, id allocation
// and persistence for bookings. It owns the confirmed -> cancelled state machine.
type BookingService struct {
	bookings   BookingRepository
	identities IdentityStore
	sequence   SequenceAllocator
	validator  *BookingValidator
	conflicts  *ConflictDetector
	tx         Transactor
	locker     ResourceLocker
	notifier   Notifier
	recorder   Recorder
	now        func() time.Time
	logger     *zap.Logger
}

// BookingServiceOption customizes a BookingService.
type BookingServiceOption func(*BookingService)

// WithTransactor runs every create and update inside one store transaction.
func WithTransactor(tx Transactor) BookingServiceOption {
	return func(s *BookingService) { s.tx = tx }
}

// WithResourceLocker holds a per-room lock around every create and update.
func WithResourceLocker(locker ResourceLocker) BookingServiceOption {
	return func(s *BookingService) { s.locker = locker }
}

// WithNotifier sets the invitation sender.
func WithNotifier(notifier Notifier) BookingServiceOption {
	return func(s *BookingService) { s.notifier = notifier }
}

// WithRecorder sets the metrics sink.
func WithRecorder(recorder Recorder) BookingServiceOption {
	return func(s *BookingService) { s.recorder = recorder }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *zap.Logger) BookingServiceOption {
	return func(s *BookingService) { s.logger = defaultLogger(logger) }
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingRepository, resources ResourceDirectory, identities IdentityStore, sequence SequenceAllocator, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{
		bookings:   bookings,
		identities: identities,
		sequence:   sequence,
		now:        time.Now,
		logger:     defaultLogger(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = NewBookingValidator(resources, s.now)
	s.conflicts = NewConflictDetector(bookings, s.recorder)
	return s
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, fields...)
}

// CreateBooking validates the request, checks the room for overlapping
// bookings, allocates an id and persists the booking as confirmed.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		zap.Int64("actor_id", params.ActorID),
		zap.Int64("room_id", params.Input.ResourceID),
	)
	defer func() {
		s.recordOutcome("create", err)
		if err != nil {
			logger.Error("failed to create booking", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
			return
		}
		logger.Info("booking created", zap.Int64("booking_id", booking.ID))
	}()

	var actor Identity
	actor, err = s.resolveActor(ctx, params.ActorID)
	if err != nil {
		return
	}

	var unlock func()
	unlock, err = s.lockResource(ctx, logger, params.Input.ResourceID)
	if err != nil {
		return
	}
	defer unlock()

	var invitees []Identity
	err = s.withinTransaction(ctx, func(ctx context.Context) error {
		normalized, err := s.validator.ValidateCreate(ctx, params.Input)
		if err != nil {
			return err
		}

		invitees, err = s.ensureIdentities(ctx, normalized.Attendees)
		if err != nil {
			return err
		}

		if err := s.conflicts.Ensure(ctx, normalized.Resource.ID, normalized.Interval, 0); err != nil {
			return err
		}

		id, err := s.sequence.Next(ctx, BookingSequence)
		if err != nil {
			return infrastructureError("allocate booking id", err)
		}

		now := s.now()
		candidate := Booking{
			ID:          id,
			ResourceID:  normalized.Resource.ID,
			Title:       normalized.Title,
			Description: normalized.Description,
			Start:       normalized.Interval.Start,
			End:         normalized.Interval.End,
			Status:      BookingStatusConfirmed,
			Creator:     Creator{ID: actor.ID, Name: actor.Name},
			Attendees:   normalized.Attendees,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		persisted, err := s.bookings.CreateBooking(ctx, candidate)
		if err != nil {
			return mapBookingRepoError(err, candidate.ID, candidate.ResourceID, normalized.Interval.Start, normalized.Interval.End)
		}
		booking = persisted
		return nil
	})
	if err != nil {
		err = classify("create booking", err)
		booking = Booking{}
		return
	}

	s.notifyAttendees(ctx, logger, booking, invitees)
	return
}

// UpdateBooking applies a partial update on behalf of the booking's creator.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (booking Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		zap.Int64("actor_id", params.ActorID),
		zap.Int64("booking_id", params.BookingID),
	)
	defer func() {
		s.recordOutcome("update", err)
		if err != nil {
			logger.Error("failed to update booking", zap.Error(err), zap.String("error_kind", ErrorKind(err)))
			return
		}
		logger.Info("booking updated", zap.String("status", string(booking.Status)))
	}()

	var existing Booking
	existing, err = s.loadForUpdate(ctx, params)
	if err != nil {
		return
	}

	target := existing.ResourceID
	if params.Patch.ResourceID != nil && *params.Patch.ResourceID > 0 {
		target = *params.Patch.ResourceID
	}

	var unlock func()
	unlock, err = s.lockResource(ctx, logger, target)
	if err != nil {
		return
	}
	defer unlock()

	err = s.withinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.loadForUpdate(ctx, params)
		if err != nil {
			return err
		}

		update, err := s.validator.ValidateUpdate(ctx, params.Patch, current)
		if err != nil {
			return err
		}

		if update.Attendees != nil {
			if _, err := s.ensureIdentities(ctx, *update.Attendees); err != nil {
				return err
			}
		}

		if (update.TimingChanged || update.ResourceChanged) && !update.Cancels() {
			if err := s.conflicts.Ensure(ctx, update.ResourceID, update.Interval, current.ID); err != nil {
				return err
			}
		}

		changes := BookingChanges{
			Title:       update.Title,
			Description: update.Description,
			Status:      update.Status,
			Attendees:   update.Attendees,
			UpdatedAt:   s.now(),
		}
		if update.ResourceChanged {
			resourceID := update.ResourceID
			changes.ResourceID = &resourceID
		}
		if params.Patch.Start != nil {
			start := update.Interval.Start
			changes.Start = &start
		}
		if params.Patch.End != nil {
			end := update.Interval.End
			changes.End = &end
		}

		persisted, err := s.bookings.UpdateBooking(ctx, current.ID, changes)
		if err != nil {
			return mapBookingRepoError(err, current.ID, update.ResourceID, update.Interval.Start, update.Interval.End)
		}
		booking = persisted
		return nil
	})
	if err != nil {
		err = classify("update booking", err)
		booking = Booking{}
	}
	return
}

// GetBooking returns a booking by id regardless of its status.
func (s *BookingService) GetBooking(ctx context.Context, id int64) (Booking, error) {
	if s == nil {
		return Booking{}, fmt.Errorf("BookingService is nil")
	}
	if id <= 0 {
		return Booking{}, &NotFoundError{Entity: "booking", ID: id}
	}
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return Booking{}, mapBookingRepoError(err, id, 0, time.Time{}, time.Time{})
	}
	return booking, nil
}

func (s *BookingService) loadForUpdate(ctx context.Context, params UpdateBookingParams) (Booking, error) {
	current, err := s.GetBooking(ctx, params.BookingID)
	if err != nil {
		return Booking{}, err
	}
	if current.Creator.ID != params.ActorID {
		return Booking{}, &AuthorizationError{ActorID: params.ActorID, BookingID: current.ID}
	}
	return current, nil
}

func (s *BookingService) resolveActor(ctx context.Context, actorID int64) (Identity, error) {
	if s.identities == nil {
		return Identity{}, infrastructureError("find user", errors.New("identity store not configured"))
	}
	if actorID <= 0 {
		return Identity{}, &NotFoundError{Entity: "user", ID: actorID}
	}
	actor, err := s.identities.FindIdentity(ctx, actorID)
	if err != nil {
		if isNotFound(err) {
			return Identity{}, &NotFoundError{Entity: "user", ID: actorID}
		}
		return Identity{}, infrastructureError("find user", err)
	}
	if actor.IsDeleted {
		return Identity{}, &NotFoundError{Entity: "user", ID: actorID}
	}
	return actor, nil
}

// ensureIdentities checks that every attendee references an existing user and
// returns those users in attendee order.
func (s *BookingService) ensureIdentities(ctx context.Context, attendees []Attendee) ([]Identity, error) {
	if len(attendees) == 0 {
		return nil, nil
	}
	if s.identities == nil {
		return nil, infrastructureError("find users", errors.New("identity store not configured"))
	}

	ids := make([]int64, len(attendees))
	for i, a := range attendees {
		ids[i] = a.UserID
	}

	found, err := s.identities.FindIdentities(ctx, ids)
	if err != nil {
		return nil, infrastructureError("find users", err)
	}

	byID := make(map[int64]Identity, len(found))
	for _, identity := range found {
		if !identity.IsDeleted {
			byID[identity.ID] = identity
		}
	}

	out := make([]Identity, 0, len(ids))
	for _, id := range ids {
		identity, ok := byID[id]
		if !ok {
			return nil, &NotFoundError{Entity: "user", ID: id}
		}
		out = append(out, identity)
	}
	return out, nil
}

func (s *BookingService) lockResource(ctx context.Context, logger *zap.Logger, resourceID int64) (func(), error) {
	if s.locker == nil || resourceID <= 0 {
		return func() {}, nil
	}

	started := time.Now()
	release, err := s.locker.LockResource(ctx, resourceID)
	if observer, ok := s.recorder.(lockObserver); ok {
		observer.LockAcquired(time.Since(started), err == nil)
	}
	if err != nil {
		return nil, infrastructureError("lock room", err)
	}

	return func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			logger.Warn("failed to release room lock", zap.Int64("room_id", resourceID), zap.Error(rerr))
		}
	}, nil
}

func (s *BookingService) withinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinTransaction(ctx, fn)
}

func (s *BookingService) notifyAttendees(ctx context.Context, logger *zap.Logger, booking Booking, invitees []Identity) {
	if s.notifier == nil || len(invitees) == 0 {
		return
	}

	summary := BookingSummary{
		BookingID:   booking.ID,
		ResourceID:  booking.ResourceID,
		Title:       booking.Title,
		Start:       booking.Start,
		End:         booking.End,
		OrganizerID: booking.Creator.ID,
		Organizer:   booking.Creator.Name,
	}
	for _, invitee := range invitees {
		if invitee.Email == "" {
			continue
		}
		if err := s.notifier.Notify(ctx, invitee.Email, summary); err != nil {
			logger.Warn("failed to notify attendee",
				zap.Int64("booking_id", booking.ID),
				zap.Int64("user_id", invitee.ID),
				zap.Error(err),
			)
		}
	}
}

func (s *BookingService) recordOutcome(operation string, err error) {
	if s.recorder != nil {
		s.recorder.BookingOutcome(operation, outcomeLabel(err))
	}
}

func mapBookingRepoError(err error, bookingID, resourceID int64, start, end time.Time) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrIntervalTaken):
		return &ConflictError{ResourceID: resourceID, Start: start, End: end}
	case isNotFound(err):
		return &NotFoundError{Entity: "booking", ID: bookingID}
	default:
		return infrastructureError("persist booking", err)
	}
}

// classify leaves taxonomy errors untouched and wraps anything else, such as
// a failed commit, as an infrastructure error.
func classify(op string, err error) error {
	if ErrorKind(err) == "unexpected" {
		return infrastructureError(op, err)
	}
	return err
}
