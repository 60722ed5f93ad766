package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/roombooking/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository.
type ReservationRepository struct {
	store *Store
}

// NewReservationRepository creates a reservation repository over the store.
func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

const reservationColumns = `id, room_id, title, description, start_ms, end_ms, status, creator_id, creator_name, created_ms, updated_ms`

type reservationRow struct {
	ID          int64  `db:"id"`
	RoomID      int64  `db:"room_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	StartMS     int64  `db:"start_ms"`
	EndMS       int64  `db:"end_ms"`
	Status      string `db:"status"`
	CreatorID   int64  `db:"creator_id"`
	CreatorName string `db:"creator_name"`
	CreatedMS   int64  `db:"created_ms"`
	UpdatedMS   int64  `db:"updated_ms"`
}

func (r reservationRow) toReservation() persistence.Reservation {
	return persistence.Reservation{
		ID:          r.ID,
		RoomID:      r.RoomID,
		Title:       r.Title,
		Description: r.Description,
		Start:       fromMillis(r.StartMS),
		End:         fromMillis(r.EndMS),
		Status:      r.Status,
		CreatorID:   r.CreatorID,
		CreatorName: r.CreatorName,
		CreatedAt:   fromMillis(r.CreatedMS),
		UpdatedAt:   fromMillis(r.UpdatedMS),
	}
}

type attendeeRow struct {
	ReservationID int64         `db:"reservation_id"`
	UserID        int64         `db:"user_id"`
	Name          string        `db:"name"`
	Status        string        `db:"status"`
	AcceptedMS    sql.NullInt64 `db:"accepted_ms"`
}

func (a attendeeRow) toAttendee() persistence.Attendee {
	attendee := persistence.Attendee{UserID: a.UserID, Name: a.Name, Status: a.Status}
	if a.AcceptedMS.Valid {
		t := fromMillis(a.AcceptedMS.Int64)
		attendee.AcceptedAt = &t
	}
	return attendee
}

// CreateReservation inserts a reservation and its attendees atomically.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID <= 0 {
		return fmt.Errorf("%w: reservation id must be positive", persistence.ErrConstraint)
	}
	if !reservation.Start.Before(reservation.End) {
		return fmt.Errorf("%w: start must be before end", persistence.ErrConstraint)
	}

	return r.store.inTx(ctx, func(ctx context.Context) error {
		q := r.store.queryer(ctx)
		query := q.Rebind(`INSERT INTO reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if _, err := q.ExecContext(ctx, query,
			reservation.ID,
			reservation.RoomID,
			reservation.Title,
			reservation.Description,
			toMillis(reservation.Start),
			toMillis(reservation.End),
			reservation.Status,
			reservation.CreatorID,
			reservation.CreatorName,
			toMillis(reservation.CreatedAt),
			toMillis(reservation.UpdatedAt),
		); err != nil {
			return mapError(err)
		}
		return insertAttendees(ctx, q, reservation.ID, reservation.Attendees)
	})
}

// GetReservation loads a reservation of any status with its attendees.
func (r *ReservationRepository) GetReservation(ctx context.Context, id int64) (persistence.Reservation, error) {
	q := r.store.queryer(ctx)
	var row reservationRow
	query := q.Rebind(`SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`)
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	reservation := row.toReservation()
	attendees, err := loadAttendees(ctx, q, []int64{id})
	if err != nil {
		return persistence.Reservation{}, err
	}
	reservation.Attendees = attendees[id]
	return reservation, nil
}

// MaxID returns the highest reservation id ever stored, or 0 for an empty table.
func (r *ReservationRepository) MaxID(ctx context.Context) (int64, error) {
	q := r.store.queryer(ctx)
	var id int64
	if err := sqlx.GetContext(ctx, q, &id, `SELECT COALESCE(MAX(id), 0) FROM reservations`); err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// UpdateReservation writes the non-nil fields of changes. The attendee list is
// replaced as a whole when supplied.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, id int64, changes persistence.ReservationChanges) error {
	sets := []string{"updated_ms = ?"}
	args := []any{toMillis(changes.UpdatedAt)}
	if changes.RoomID != nil {
		sets = append(sets, "room_id = ?")
		args = append(args, *changes.RoomID)
	}
	if changes.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *changes.Title)
	}
	if changes.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *changes.Description)
	}
	if changes.Start != nil {
		sets = append(sets, "start_ms = ?")
		args = append(args, toMillis(*changes.Start))
	}
	if changes.End != nil {
		sets = append(sets, "end_ms = ?")
		args = append(args, toMillis(*changes.End))
	}
	if changes.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *changes.Status)
	}
	args = append(args, id)

	return r.store.inTx(ctx, func(ctx context.Context) error {
		q := r.store.queryer(ctx)
		query := q.Rebind(`UPDATE reservations SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
		result, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return mapError(err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: reservation %d", persistence.ErrNotFound, id)
		}

		if changes.Attendees == nil {
			return nil
		}
		if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM reservation_attendees WHERE reservation_id = ?`), id); err != nil {
			return mapError(err)
		}
		return insertAttendees(ctx, q, id, *changes.Attendees)
	})
}

// ListActiveSlots returns the confirmed reservations whose interval strictly
// overlaps the query window.
func (r *ReservationRepository) ListActiveSlots(ctx context.Context, slot persistence.SlotQuery) ([]persistence.ReservationSlot, error) {
	conditions := []string{"status = 'confirmed'", "start_ms < ?", "end_ms > ?"}
	args := []any{toMillis(slot.End), toMillis(slot.Start)}
	if slot.RoomID != 0 {
		conditions = append(conditions, "room_id = ?")
		args = append(args, slot.RoomID)
	}

	q := r.store.queryer(ctx)
	query := q.Rebind(`SELECT id, room_id, start_ms, end_ms, status FROM reservations WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY start_ms ASC, id ASC`)
	var rows []reservationRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}
	slots := make([]persistence.ReservationSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, persistence.ReservationSlot{
			ID:     row.ID,
			RoomID: row.RoomID,
			Start:  fromMillis(row.StartMS),
			End:    fromMillis(row.EndMS),
			Status: row.Status,
		})
	}
	return slots, nil
}

// ListReservations returns one page of reservations matching filter and the
// total number of matches.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, int, error) {
	where, args := buildFilter(filter)
	q := r.store.queryer(ctx)

	var total int
	countQuery := q.Rebind(`SELECT COUNT(*) FROM reservations` + where)
	if err := sqlx.GetContext(ctx, q, &total, countQuery, args...); err != nil {
		return nil, 0, mapError(err)
	}
	if total == 0 || (filter.Limit > 0 && filter.Offset >= total) {
		return []persistence.Reservation{}, total, nil
	}

	orderBy, err := buildOrderBy(filter.Sort)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations` + where + orderBy
	pageArgs := append([]any{}, args...)
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		pageArgs = append(pageArgs, filter.Limit, filter.Offset)
	}

	var rows []reservationRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), pageArgs...); err != nil {
		return nil, 0, mapError(err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	attendees, err := loadAttendees(ctx, q, ids)
	if err != nil {
		return nil, 0, err
	}

	reservations := make([]persistence.Reservation, 0, len(rows))
	for _, row := range rows {
		reservation := row.toReservation()
		reservation.Attendees = attendees[row.ID]
		reservations = append(reservations, reservation)
	}
	return reservations, total, nil
}

func buildFilter(filter persistence.ReservationFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.RoomID != nil {
		conditions = append(conditions, "room_id = ?")
		args = append(args, *filter.RoomID)
	}
	if filter.CreatorID != nil {
		conditions = append(conditions, "creator_id = ?")
		args = append(args, *filter.CreatorID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	} else {
		conditions = append(conditions, "status <> 'cancelled'")
	}

	// Inclusive ranges match reservations touching the bounds.
	if filter.To != nil {
		op := "<"
		if filter.Inclusive {
			op = "<="
		}
		conditions = append(conditions, "start_ms "+op+" ?")
		args = append(args, toMillis(*filter.To))
	}
	if filter.From != nil {
		op := ">"
		if filter.Inclusive {
			op = ">="
		}
		conditions = append(conditions, "end_ms "+op+" ?")
		args = append(args, toMillis(*filter.From))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var sortColumns = map[persistence.SortColumn]string{
	persistence.SortStart:   "start_ms",
	persistence.SortEnd:     "end_ms",
	persistence.SortStatus:  "status",
	persistence.SortCreator: "creator_id",
	persistence.SortRoom:    "room_id",
	persistence.SortID:      "id",
}

// buildOrderBy renders sort terms. id is appended as a tiebreaker so pages are stable.
func buildOrderBy(terms []persistence.SortTerm) (string, error) {
	if len(terms) == 0 {
		terms = []persistence.SortTerm{{Column: persistence.SortStart}}
	}
	parts := make([]string, 0, len(terms)+1)
	hasID := false
	for _, term := range terms {
		column, ok := sortColumns[term.Column]
		if !ok {
			return "", fmt.Errorf("%w: unsupported sort column %q", persistence.ErrConstraint, term.Column)
		}
		direction := "ASC"
		if term.Desc {
			direction = "DESC"
		}
		parts = append(parts, column+" "+direction)
		hasID = hasID || term.Column == persistence.SortID
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func insertAttendees(ctx context.Context, q sqlx.ExtContext, reservationID int64, attendees []persistence.Attendee) error {
	if len(attendees) == 0 {
		return nil
	}
	query := q.Rebind(`INSERT INTO reservation_attendees (reservation_id, ordinal, user_id, name, status, accepted_ms) VALUES (?, ?, ?, ?, ?, ?)`)
	for i, attendee := range attendees {
		var accepted sql.NullInt64
		if attendee.AcceptedAt != nil {
			accepted = sql.NullInt64{Int64: toMillis(*attendee.AcceptedAt), Valid: true}
		}
		if _, err := q.ExecContext(ctx, query, reservationID, i, attendee.UserID, attendee.Name, attendee.Status, accepted); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func loadAttendees(ctx context.Context, q sqlx.ExtContext, ids []int64) (map[int64][]persistence.Attendee, error) {
	result := make(map[int64][]persistence.Attendee, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`
		SELECT reservation_id, user_id, name, status, accepted_ms
		FROM reservation_attendees
		WHERE reservation_id IN (?)
		ORDER BY reservation_id ASC, ordinal ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build attendees query: %w", err)
	}
	var rows []attendeeRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, mapError(err)
	}
	for _, row := range rows {
		result[row.ReservationID] = append(result[row.ReservationID], row.toAttendee())
	}
	return result, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

var _ persistence.ReservationRepository = (*ReservationRepository)(nil)
