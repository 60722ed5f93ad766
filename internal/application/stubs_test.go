package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/scheduler"
)

// referenceNow is the fixed "current time" used by service tests.
var referenceNow = time.Date(2030, time.May, 6, 8, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return referenceNow }

func at(hour, minute int) time.Time {
	return time.Date(2030, time.May, 6, hour, minute, 0, 0, time.UTC)
}

type bookingRepoFake struct {
	mu        sync.Mutex
	bookings  map[int64]Booking
	createErr error
	updateErr error
	listErr   error
	// skipOverlapQuery hides existing bookings from the conflict query so the
	// store level uniqueness check is exercised.
	skipOverlapQuery bool
	lastChanges      BookingChanges
	listQueries      []ActiveReservationQuery
}

func newBookingRepoFake(existing ...Booking) *bookingRepoFake {
	repo := &bookingRepoFake{bookings: make(map[int64]Booking)}
	for _, b := range existing {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (r *bookingRepoFake) ListActiveReservations(ctx context.Context, q ActiveReservationQuery) ([]scheduler.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listQueries = append(r.listQueries, q)
	if r.listErr != nil {
		return nil, r.listErr
	}
	if r.skipOverlapQuery {
		return nil, nil
	}
	var out []scheduler.Reservation
	for _, b := range r.bookings {
		if b.Status == BookingStatusCancelled {
			continue
		}
		if q.ResourceID != 0 && b.ResourceID != q.ResourceID {
			continue
		}
		if !b.Interval().Overlaps(q.Window) {
			continue
		}
		out = append(out, scheduler.Reservation{ID: b.ID, ResourceID: b.ResourceID, Interval: b.Interval()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *bookingRepoFake) CreateBooking(ctx context.Context, booking Booking) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return Booking{}, r.createErr
	}
	for _, existing := range r.bookings {
		if existing.Status == BookingStatusConfirmed && existing.ResourceID == booking.ResourceID &&
			existing.Start.Equal(booking.Start) && existing.End.Equal(booking.End) {
			return Booking{}, persistence.ErrIntervalTaken
		}
	}
	r.bookings[booking.ID] = booking
	return booking, nil
}

func (r *bookingRepoFake) GetBooking(ctx context.Context, id int64) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	return b, nil
}

func (r *bookingRepoFake) UpdateBooking(ctx context.Context, id int64, changes BookingChanges) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastChanges = changes
	if r.updateErr != nil {
		return Booking{}, r.updateErr
	}
	b, ok := r.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	if changes.ResourceID != nil {
		b.ResourceID = *changes.ResourceID
	}
	if changes.Title != nil {
		b.Title = *changes.Title
	}
	if changes.Description != nil {
		b.Description = *changes.Description
	}
	if changes.Start != nil {
		b.Start = *changes.Start
	}
	if changes.End != nil {
		b.End = *changes.End
	}
	if changes.Status != nil {
		b.Status = *changes.Status
	}
	if changes.Attendees != nil {
		b.Attendees = *changes.Attendees
	}
	b.UpdatedAt = changes.UpdatedAt
	r.bookings[id] = b
	return b, nil
}

func (r *bookingRepoFake) get(id int64) (Booking, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	return b, ok
}

type resourceDirectoryStub struct {
	rooms   map[int64]Resource
	err     error
	listErr error
	lookups int
	lists   int
}

func newResourceDirectoryStub(rooms ...Resource) *resourceDirectoryStub {
	stub := &resourceDirectoryStub{rooms: make(map[int64]Resource)}
	for _, r := range rooms {
		stub.rooms[r.ID] = r
	}
	return stub
}

func (d *resourceDirectoryStub) FindResource(ctx context.Context, id int64) (Resource, error) {
	d.lookups++
	if d.err != nil {
		return Resource{}, d.err
	}
	r, ok := d.rooms[id]
	if !ok {
		return Resource{}, persistence.ErrNotFound
	}
	return r, nil
}

func (d *resourceDirectoryStub) ListResources(ctx context.Context) ([]Resource, error) {
	d.lists++
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]Resource, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, r)
	}
	// unordered on purpose; callers must sort.
	return out, nil
}

type identityStoreStub struct {
	users map[int64]Identity
	err   error
}

func newIdentityStoreStub(users ...Identity) *identityStoreStub {
	stub := &identityStoreStub{users: make(map[int64]Identity)}
	for _, u := range users {
		stub.users[u.ID] = u
	}
	return stub
}

func (s *identityStoreStub) FindIdentity(ctx context.Context, id int64) (Identity, error) {
	if s.err != nil {
		return Identity{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return Identity{}, persistence.ErrNotFound
	}
	return u, nil
}

func (s *identityStoreStub) FindIdentities(ctx context.Context, ids []int64) ([]Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Identity
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type sequenceStub struct {
	mu    sync.Mutex
	next  int64
	err   error
	calls int
}

func (s *sequenceStub) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.next++
	return s.next, nil
}

type recorderStub struct {
	mu        sync.Mutex
	outcomes  []string
	conflicts []bool
	locks     []bool
}

func (r *recorderStub) BookingOutcome(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, operation+":"+outcome)
}

func (r *recorderStub) ConflictChecked(conflict bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts = append(r.conflicts, conflict)
}

func (r *recorderStub) LockAcquired(wait time.Duration, acquired bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, acquired)
}

type lockerStub struct {
	mu       sync.Mutex
	err      error
	locked   []int64
	released []int64
}

func (l *lockerStub) LockResource(ctx context.Context, id int64) (func(ctx context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, id)
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released = append(l.released, id)
		return nil
	}, nil
}

type notifierStub struct {
	err  error
	sent []string
}

func (n *notifierStub) Notify(ctx context.Context, email string, summary BookingSummary) error {
	n.sent = append(n.sent, email)
	return n.err
}

type transactorStub struct {
	calls     int
	commitErr error
}

func (t *transactorStub) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return t.commitErr
}

var errStoreDown = errors.New("store unavailable")

func defaultRooms() *resourceDirectoryStub {
	return newResourceDirectoryStub(
		Resource{ID: 1, Name: "Everest", Capacity: 3},
		Resource{ID: 2, Name: "K2", Capacity: 10},
		Resource{ID: 3, Name: "Closed", Capacity: 10, IsDeleted: true},
	)
}

func defaultIdentities() *identityStoreStub {
	return newIdentityStoreStub(
		Identity{ID: 100, Name: "Alice", Email: "alice@example.com"},
		Identity{ID: 101, Name: "Bob", Email: "bob@example.com"},
		Identity{ID: 102, Name: "Carol", Email: "carol@example.com"},
		Identity{ID: 103, Name: "Dave"},
	)
}

func confirmedBooking(id, resourceID int64, start, end time.Time) Booking {
	return Booking{
		ID:         id,
		ResourceID: resourceID,
		Title:      "Existing",
		Start:      start,
		End:        end,
		Status:     BookingStatusConfirmed,
		Creator:    Creator{ID: 100, Name: "Alice"},
		Attendees:  []Attendee{},
		CreatedAt:  referenceNow.Add(-time.Hour),
		UpdatedAt:  referenceNow.Add(-time.Hour),
	}
}

func ptr[T any](v T) *T { return &v }
