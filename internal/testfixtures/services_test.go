package testfixtures

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/example/roombooking/internal/application"
)

func day(hour, minute int) time.Time {
	return time.Date(2030, time.May, 7, hour, minute, 0, 0, time.UTC)
}

func newSeededServices(t *testing.T) (*SQLiteHarness, Services) {
	t.Helper()
	h := NewSQLiteHarness(t)
	h.SeedRooms(t,
		NewRoomFixture(WithRoomID(1), WithRoomName("Room A"), WithRoomCapacity(4)),
		NewRoomFixture(WithRoomID(2), WithRoomName("Room B"), WithRoomCapacity(10)),
	)
	h.SeedUsers(t,
		NewUserFixture(WithUserID(100), WithUserName("Alice")),
		NewUserFixture(WithUserID(101), WithUserName("Bob")),
	)
	return h, NewServiceFactory().NewServices(h)
}

func create(t *testing.T, svc Services, actor, room int64, start, end time.Time) (application.Booking, error) {
	t.Helper()
	return svc.Bookings.CreateBooking(context.Background(), application.CreateBookingParams{
		ActorID: actor,
		Input: application.BookingInput{
			ResourceID: room,
			Title:      "Sync",
			Start:      start,
			End:        end,
			Attendees:  []application.AttendeeInput{{UserID: 101, Name: "Bob"}},
		},
	})
}

func TestServicesBookingLifecycleOverSQLite(t *testing.T) {
	_, svc := newSeededServices(t)
	ctx := context.Background()

	first, err := create(t, svc, 100, 1, day(10, 0), day(11, 0))
	if err != nil {
		t.Fatalf("create first booking: %v", err)
	}
	if first.ID == 0 || first.Status != application.BookingStatusConfirmed {
		t.Fatalf("unexpected booking %+v", first)
	}
	if first.Creator.Name != "Alice" || len(first.Attendees) != 1 || first.Attendees[0].Status != application.AttendeeStatusInvited {
		t.Fatalf("unexpected creator or attendees %+v", first)
	}

	if _, err := create(t, svc, 100, 1, day(10, 30), day(11, 30)); !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected conflict for overlapping interval, got %v", err)
	}

	touching, err := create(t, svc, 100, 1, day(11, 0), day(12, 0))
	if err != nil {
		t.Fatalf("touching interval should be accepted: %v", err)
	}
	if touching.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d after %d", touching.ID, first.ID)
	}

	if _, err := create(t, svc, 100, 2, day(10, 30), day(11, 30)); err != nil {
		t.Fatalf("other room should not conflict: %v", err)
	}

	rooms, err := svc.Availability.AvailableResources(ctx, application.AvailabilityParams{Start: day(13, 0), End: day(14, 0)})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected both rooms free in the afternoon, got %+v", rooms)
	}
	rooms, err = svc.Availability.AvailableResources(ctx, application.AvailabilityParams{Start: day(11, 15), End: day(11, 45)})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("expected no free room at 11:15, got %+v", rooms)
	}

	title := "Hijack"
	if _, err := svc.Bookings.UpdateBooking(ctx, application.UpdateBookingParams{
		ActorID:   101,
		BookingID: first.ID,
		Patch:     application.BookingPatch{Title: &title},
	}); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected unauthorized update by attendee, got %v", err)
	}

	cancelled := application.BookingStatusCancelled
	updated, err := svc.Bookings.UpdateBooking(ctx, application.UpdateBookingParams{
		ActorID:   100,
		BookingID: first.ID,
		Patch:     application.BookingPatch{Status: &cancelled},
	})
	if err != nil {
		t.Fatalf("cancel booking: %v", err)
	}
	if updated.Status != application.BookingStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", updated.Status)
	}

	if _, err := create(t, svc, 100, 1, day(10, 0), day(11, 0)); err != nil {
		t.Fatalf("cancelled interval should be bookable again: %v", err)
	}

	stored, err := svc.Bookings.GetBooking(ctx, first.ID)
	if err != nil {
		t.Fatalf("get cancelled booking: %v", err)
	}
	if stored.Status != application.BookingStatusCancelled {
		t.Fatalf("expected cancelled booking to remain readable, got %s", stored.Status)
	}

	room := int64(1)
	confirmed := application.BookingStatusConfirmed
	page, err := svc.Queries.ListBookings(ctx, application.ListBookingsParams{ResourceID: &room, Status: &confirmed})
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if page.TotalCount != 2 {
		t.Fatalf("expected 2 active bookings on room 1, got %d", page.TotalCount)
	}
	if !page.Items[0].Start.Equal(day(10, 0)) || !page.Items[1].Start.Equal(day(11, 0)) {
		t.Fatalf("expected bookings ordered by start, got %v and %v", page.Items[0].Start, page.Items[1].Start)
	}

	page, err = svc.Queries.ListBookings(ctx, application.ListBookingsParams{Status: &cancelled})
	if err != nil {
		t.Fatalf("list cancelled bookings: %v", err)
	}
	if page.TotalCount != 1 || page.Items[0].ID != first.ID {
		t.Fatalf("expected only the cancelled booking, got %+v", page)
	}
}

func TestServicesUpdateExcludesItselfOverSQLite(t *testing.T) {
	_, svc := newSeededServices(t)
	ctx := context.Background()

	booking, err := create(t, svc, 100, 1, day(9, 0), day(10, 0))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if _, err := create(t, svc, 100, 1, day(11, 0), day(12, 0)); err != nil {
		t.Fatalf("create neighbour: %v", err)
	}

	start, end := day(9, 30), day(10, 30)
	moved, err := svc.Bookings.UpdateBooking(ctx, application.UpdateBookingParams{
		ActorID:   100,
		BookingID: booking.ID,
		Patch:     application.BookingPatch{Start: &start, End: &end},
	})
	if err != nil {
		t.Fatalf("moving within its own interval should succeed: %v", err)
	}
	if !moved.Start.Equal(start) || !moved.End.Equal(end) {
		t.Fatalf("unexpected interval %v - %v", moved.Start, moved.End)
	}

	start, end = day(10, 30), day(11, 30)
	if _, err := svc.Bookings.UpdateBooking(ctx, application.UpdateBookingParams{
		ActorID:   100,
		BookingID: booking.ID,
		Patch:     application.BookingPatch{Start: &start, End: &end},
	}); !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected conflict with the neighbour, got %v", err)
	}
}

func TestServiceFactoryUsesFactoryClock(t *testing.T) {
	h := NewSQLiteHarness(t)
	h.SeedRooms(t, NewRoomFixture(WithRoomID(1)))
	h.SeedUsers(t, NewUserFixture(WithUserID(100)), NewUserFixture(WithUserID(101)))

	clock := NewClock(day(12, 0))
	svc := NewServiceFactory(WithClock(clock)).NewServices(h)

	if _, err := create(t, svc, 100, 1, day(10, 0), day(11, 0)); err == nil {
		t.Fatalf("expected a start before the factory clock to be rejected")
	}

	booking, err := create(t, svc, 100, 1, day(13, 0), day(14, 0))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if !booking.CreatedAt.Equal(clock.Peek()) {
		t.Fatalf("expected createdAt %v, got %v", clock.Peek(), booking.CreatedAt)
	}
}

func TestServiceFactoryLocationDrivesDateFilter(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	h := NewSQLiteHarness(t)
	h.SeedRooms(t, NewRoomFixture(WithRoomID(1)))
	h.SeedUsers(t, NewUserFixture(WithUserID(100)), NewUserFixture(WithUserID(101)))

	utcServices := NewServiceFactory().NewServices(h)
	jstServices := NewServiceFactory(WithLocation(jst)).NewServices(h)

	if _, err := create(t, utcServices, 100, 1, day(16, 0), day(17, 0)); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	ctx := context.Background()
	may8 := time.Date(2030, time.May, 8, 0, 0, 0, 0, jst)

	page, err := jstServices.Queries.ListBookings(ctx, application.ListBookingsParams{Date: &may8})
	if err != nil {
		t.Fatalf("list in JST: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected the 01:00 JST booking on May 8th, got %d", page.TotalCount)
	}

	may8UTC := time.Date(2030, time.May, 8, 0, 0, 0, 0, time.UTC)
	page, err = utcServices.Queries.ListBookings(ctx, application.ListBookingsParams{Date: &may8UTC})
	if err != nil {
		t.Fatalf("list in UTC: %v", err)
	}
	if page.TotalCount != 0 {
		t.Fatalf("expected no UTC booking on May 8th, got %d", page.TotalCount)
	}
}

func TestServicesStampUpdatesWithLaterTime(t *testing.T) {
	h := NewSQLiteHarness(t)
	h.SeedRooms(t, NewRoomFixture(WithRoomID(1)))
	h.SeedUsers(t, NewUserFixture(WithUserID(100)), NewUserFixture(WithUserID(101)))

	clock := NewSteppingClock(day(8, 0), time.Second)
	svc := NewServiceFactory(WithClock(clock)).NewServices(h)

	booking, err := create(t, svc, 100, 1, day(10, 0), day(11, 0))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	title := "Renamed"
	updated, err := svc.Bookings.UpdateBooking(context.Background(), application.UpdateBookingParams{
		ActorID:   100,
		BookingID: booking.ID,
		Patch:     application.BookingPatch{Title: &title},
	})
	if err != nil {
		t.Fatalf("update booking: %v", err)
	}
	if !updated.CreatedAt.Equal(booking.CreatedAt) {
		t.Fatalf("createdAt changed from %v to %v", booking.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(booking.UpdatedAt) {
		t.Fatalf("expected updatedAt after %v, got %v", booking.UpdatedAt, updated.UpdatedAt)
	}
}

func TestServicesPagesPastTheEndAreEmptyOverSQLite(t *testing.T) {
	_, svc := newSeededServices(t)
	ctx := context.Background()

	if _, err := create(t, svc, 100, 1, day(10, 0), day(11, 0)); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	limit := 10
	for _, requested := range []int{2, math.MaxInt / 5, math.MaxInt} {
		pageNumber := requested
		page, err := svc.Queries.ListBookings(ctx, application.ListBookingsParams{Page: &pageNumber, Limit: &limit})
		if err != nil {
			t.Fatalf("page %d: %v", requested, err)
		}
		if len(page.Items) != 0 {
			t.Fatalf("page %d: expected no items, got %d", requested, len(page.Items))
		}
		if page.Page != requested || page.TotalPages != 1 || page.TotalCount != 1 {
			t.Fatalf("page %d: unexpected metadata %+v", requested, page)
		}
		if page.HasNextPage || !page.HasPreviousPage {
			t.Fatalf("page %d: unexpected navigation flags %+v", requested, page)
		}
	}
}

func TestServicesConcurrentOverlappingCreatesOverSQLite(t *testing.T) {
	_, svc := newSeededServices(t)
	ctx := context.Background()

	const callers = 20
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			offset := time.Duration(i%4) * 10 * time.Minute
			_, errs[i] = create(t, svc, 100, 1, day(10, 0).Add(offset), day(11, 0).Add(offset))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, application.ErrConflict):
		default:
			t.Fatalf("caller %d: expected success or conflict, got %v", i, err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one overlapping booking to win, got %d", succeeded)
	}

	room := int64(1)
	confirmed := application.BookingStatusConfirmed
	limit := 100
	page, err := svc.Queries.ListBookings(ctx, application.ListBookingsParams{ResourceID: &room, Status: &confirmed, Limit: &limit})
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected one confirmed booking on room 1, got %d", page.TotalCount)
	}
	for i, a := range page.Items {
		for _, b := range page.Items[i+1:] {
			if a.Start.Before(b.End) && b.Start.Before(a.End) {
				t.Fatalf("bookings %d and %d overlap", a.ID, b.ID)
			}
		}
	}
}
