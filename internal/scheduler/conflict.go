package scheduler

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval has a strictly positive length.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that only touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Equal reports whether both bounds match.
func (i Interval) Equal(other Interval) bool {
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}

// Reservation is the minimal view of a booking needed for conflict detection.
type Reservation struct {
	ID         int64
	ResourceID int64
	Interval   Interval
	Cancelled  bool
}

// Conflict details an overlapping reservation relation that callers can present to users.
type Conflict struct {
	WithReservationID int64
	ResourceID        int64
	Interval          Interval
}

// DetectConflicts identifies active reservations on the candidate's resource
// whose interval overlaps the candidate. The candidate's own ID is skipped so
// that an update never conflicts with the row it replaces.
func DetectConflicts(existing []Reservation, candidate Reservation) []Conflict {
	var conflicts []Conflict
	for _, other := range existing {
		if other.Cancelled || other.ResourceID != candidate.ResourceID {
			continue
		}
		if candidate.ID != 0 && other.ID == candidate.ID {
			continue
		}
		if !candidate.Interval.Overlaps(other.Interval) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithReservationID: other.ID,
			ResourceID:        other.ResourceID,
			Interval:          other.Interval,
		})
	}
	return conflicts
}

// HasConflict reports whether DetectConflicts would return at least one conflict.
func HasConflict(existing []Reservation, candidate Reservation) bool {
	return len(DetectConflicts(existing, candidate)) > 0
}

// BusyResources returns the distinct resource IDs, in ascending order, that
// hold an active reservation overlapping the window.
func BusyResources(existing []Reservation, window Interval) []int64 {
	seen := make(map[int64]struct{})
	for _, r := range existing {
		if r.Cancelled || !window.Overlaps(r.Interval) {
			continue
		}
		seen[r.ResourceID] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DayBounds expands a calendar date into [00:00:00.000, 23:59:59.999] in loc.
// Both bounds are inclusive, so End is one millisecond before the next midnight.
func DayBounds(day time.Time, loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return Interval{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Millisecond)}
}
