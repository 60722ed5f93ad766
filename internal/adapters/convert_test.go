package adapters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
)

func TestReservationConversionRoundTrip(t *testing.T) {
	start := time.Date(2030, time.May, 7, 9, 0, 0, 0, time.UTC)
	accepted := start.Add(-time.Hour)
	booking := application.Booking{
		ID:          3,
		ResourceID:  2,
		Title:       "Planning",
		Description: "Quarterly",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      application.BookingStatusConfirmed,
		Creator:     application.Creator{ID: 10, Name: "Alice"},
		Attendees: []application.Attendee{
			{UserID: 11, Name: "Bob", Status: application.AttendeeStatusAccepted, AcceptedAt: &accepted},
		},
		CreatedAt: start.Add(-24 * time.Hour),
		UpdatedAt: start.Add(-24 * time.Hour),
	}

	stored := toPersistenceReservation(booking)
	assert.Equal(t, int64(2), stored.RoomID)
	assert.Equal(t, "confirmed", stored.Status)
	assert.Equal(t, "Alice", stored.CreatorName)
	require.Len(t, stored.Attendees, 1)
	assert.Equal(t, "accepted", stored.Attendees[0].Status)

	assert.Equal(t, booking, toApplicationBooking(stored))
}

func TestToApplicationBookingNeverReturnsNilAttendees(t *testing.T) {
	got := toApplicationBooking(persistence.Reservation{ID: 1})
	assert.NotNil(t, got.Attendees)
	assert.Empty(t, got.Attendees)
}

func TestToPersistenceChanges(t *testing.T) {
	updated := time.Date(2030, time.May, 6, 8, 0, 0, 0, time.UTC)

	t.Run("only supplied fields are carried", func(t *testing.T) {
		title := "Renamed"
		got := toPersistenceChanges(application.BookingChanges{Title: &title, UpdatedAt: updated})
		require.NotNil(t, got.Title)
		assert.Equal(t, "Renamed", *got.Title)
		assert.Nil(t, got.Status)
		assert.Nil(t, got.Attendees)
		assert.Nil(t, got.RoomID)
		assert.Equal(t, updated, got.UpdatedAt)
	})

	t.Run("status and attendees are converted", func(t *testing.T) {
		status := application.BookingStatusCancelled
		attendees := []application.Attendee{{UserID: 5, Name: "Eve", Status: application.AttendeeStatusDeclined}}
		got := toPersistenceChanges(application.BookingChanges{Status: &status, Attendees: &attendees, UpdatedAt: updated})
		require.NotNil(t, got.Status)
		assert.Equal(t, "cancelled", *got.Status)
		require.NotNil(t, got.Attendees)
		assert.Equal(t, []persistence.Attendee{{UserID: 5, Name: "Eve", Status: "declined"}}, *got.Attendees)
	})

	t.Run("an emptied attendee list stays non-nil", func(t *testing.T) {
		attendees := []application.Attendee{}
		got := toPersistenceChanges(application.BookingChanges{Attendees: &attendees})
		require.NotNil(t, got.Attendees)
		assert.Empty(t, *got.Attendees)
	})
}

func TestToSchedulerReservation(t *testing.T) {
	start := time.Date(2030, time.May, 7, 9, 0, 0, 0, time.UTC)
	slot := persistence.ReservationSlot{ID: 1, RoomID: 4, Start: start, End: start.Add(time.Hour), Status: "confirmed"}

	got := toSchedulerReservation(slot)
	assert.Equal(t, int64(4), got.ResourceID)
	assert.False(t, got.Cancelled)
	assert.True(t, got.Interval.Start.Equal(start))

	slot.Status = "cancelled"
	assert.True(t, toSchedulerReservation(slot).Cancelled)
}

func TestToReservationFilter(t *testing.T) {
	room := int64(2)
	status := application.BookingStatusCancelled
	from := time.Date(2030, time.May, 7, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	got := toReservationFilter(application.BookingListQuery{
		ResourceID: &room,
		Status:     &status,
		Range:      application.TimeRange{From: &from, To: &to, Inclusive: true},
		Sort: []application.SortField{
			{Key: application.SortByResource},
			{Key: application.SortByStart, Desc: true},
		},
		Limit:  20,
		Offset: 40,
	})

	assert.Equal(t, &room, got.RoomID)
	require.NotNil(t, got.Status)
	assert.Equal(t, "cancelled", *got.Status)
	assert.True(t, got.Inclusive)
	assert.Equal(t, []persistence.SortTerm{
		{Column: persistence.SortRoom},
		{Column: persistence.SortStart, Desc: true},
	}, got.Sort)
	assert.Equal(t, 20, got.Limit)
	assert.Equal(t, 40, got.Offset)
}
