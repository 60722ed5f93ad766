package adapters

import (
	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/scheduler"
)

func toApplicationBooking(r persistence.Reservation) application.Booking {
	attendees := make([]application.Attendee, 0, len(r.Attendees))
	for _, a := range r.Attendees {
		attendees = append(attendees, application.Attendee{
			UserID:     a.UserID,
			Name:       a.Name,
			Status:     application.AttendeeStatus(a.Status),
			AcceptedAt: a.AcceptedAt,
		})
	}
	return application.Booking{
		ID:          r.ID,
		ResourceID:  r.RoomID,
		Title:       r.Title,
		Description: r.Description,
		Start:       r.Start,
		End:         r.End,
		Status:      application.BookingStatus(r.Status),
		Creator:     application.Creator{ID: r.CreatorID, Name: r.CreatorName},
		Attendees:   attendees,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toPersistenceReservation(b application.Booking) persistence.Reservation {
	return persistence.Reservation{
		ID:          b.ID,
		RoomID:      b.ResourceID,
		Title:       b.Title,
		Description: b.Description,
		Start:       b.Start,
		End:         b.End,
		Status:      string(b.Status),
		CreatorID:   b.Creator.ID,
		CreatorName: b.Creator.Name,
		Attendees:   toPersistenceAttendees(b.Attendees),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func toPersistenceAttendees(attendees []application.Attendee) []persistence.Attendee {
	out := make([]persistence.Attendee, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, persistence.Attendee{
			UserID:     a.UserID,
			Name:       a.Name,
			Status:     string(a.Status),
			AcceptedAt: a.AcceptedAt,
		})
	}
	return out
}

func toPersistenceChanges(c application.BookingChanges) persistence.ReservationChanges {
	changes := persistence.ReservationChanges{
		RoomID:      c.ResourceID,
		Title:       c.Title,
		Description: c.Description,
		Start:       c.Start,
		End:         c.End,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Status != nil {
		status := string(*c.Status)
		changes.Status = &status
	}
	if c.Attendees != nil {
		attendees := toPersistenceAttendees(*c.Attendees)
		changes.Attendees = &attendees
	}
	return changes
}

func toSchedulerReservation(s persistence.ReservationSlot) scheduler.Reservation {
	return scheduler.Reservation{
		ID:         s.ID,
		ResourceID: s.RoomID,
		Interval:   scheduler.Interval{Start: s.Start, End: s.End},
		Cancelled:  s.Status == string(application.BookingStatusCancelled),
	}
}

func toResource(r persistence.Room) application.Resource {
	return application.Resource{
		ID:        r.ID,
		Name:      r.Name,
		Location:  r.Location,
		Capacity:  r.Capacity,
		IsDeleted: r.IsDeleted,
	}
}

func toIdentity(u persistence.User) application.Identity {
	return application.Identity{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsDeleted: u.IsDeleted,
	}
}

var sortColumns = map[application.SortKey]persistence.SortColumn{
	application.SortByStart:    persistence.SortStart,
	application.SortByEnd:      persistence.SortEnd,
	application.SortByStatus:   persistence.SortStatus,
	application.SortByCreator:  persistence.SortCreator,
	application.SortByResource: persistence.SortRoom,
	application.SortByID:       persistence.SortID,
}

func toReservationFilter(q application.BookingListQuery) persistence.ReservationFilter {
	filter := persistence.ReservationFilter{
		RoomID:    q.ResourceID,
		CreatorID: q.CreatorID,
		From:      q.Range.From,
		To:        q.Range.To,
		Inclusive: q.Range.Inclusive,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if q.Status != nil {
		status := string(*q.Status)
		filter.Status = &status
	}
	for _, f := range q.Sort {
		column, ok := sortColumns[f.Key]
		if !ok {
			column = persistence.SortColumn(f.Key)
		}
		filter.Sort = append(filter.Sort, persistence.SortTerm{Column: column, Desc: f.Desc})
	}
	return filter
}
