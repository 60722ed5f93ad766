package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/roombooking/internal/persistence"
)

// DirectoryRepository implements persistence.RoomRepository and
// persistence.UserRepository.
type DirectoryRepository struct {
	store *Store
}

// NewDirectoryRepository creates a room and user directory over the store.
func NewDirectoryRepository(store *Store) *DirectoryRepository {
	return &DirectoryRepository{store: store}
}

type roomRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Location  string `db:"location"`
	Capacity  int    `db:"capacity"`
	IsDeleted bool   `db:"is_deleted"`
}

func (r roomRow) toRoom() persistence.Room {
	return persistence.Room{ID: r.ID, Name: r.Name, Location: r.Location, Capacity: r.Capacity, IsDeleted: r.IsDeleted}
}

type userRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	IsDeleted bool   `db:"is_deleted"`
}

func (u userRow) toUser() persistence.User {
	return persistence.User{ID: u.ID, Name: u.Name, Email: u.Email, IsDeleted: u.IsDeleted}
}

// GetRoom loads a room that has not been soft-deleted.
func (r *DirectoryRepository) GetRoom(ctx context.Context, id int64) (persistence.Room, error) {
	q := r.store.queryer(ctx)
	var row roomRow
	query := q.Rebind(`SELECT id, name, location, capacity, is_deleted FROM rooms WHERE id = ? AND is_deleted = FALSE`)
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		return persistence.Room{}, mapError(err)
	}
	return row.toRoom(), nil
}

// ListRooms returns every room that has not been soft-deleted, ordered by id.
func (r *DirectoryRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	q := r.store.queryer(ctx)
	var rows []roomRow
	query := `SELECT id, name, location, capacity, is_deleted FROM rooms WHERE is_deleted = FALSE ORDER BY id ASC`
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, mapError(err)
	}
	rooms := make([]persistence.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, row.toRoom())
	}
	return rooms, nil
}

// UpsertRoom inserts or replaces a room record.
func (r *DirectoryRepository) UpsertRoom(ctx context.Context, room persistence.Room) error {
	if room.ID <= 0 {
		return fmt.Errorf("%w: room id must be positive", persistence.ErrConstraint)
	}
	q := r.store.queryer(ctx)
	query := q.Rebind(`
		INSERT INTO rooms (id, name, location, capacity, is_deleted)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			location = excluded.location,
			capacity = excluded.capacity,
			is_deleted = excluded.is_deleted`)
	if _, err := q.ExecContext(ctx, query, room.ID, room.Name, room.Location, room.Capacity, room.IsDeleted); err != nil {
		return mapError(err)
	}
	return nil
}

// GetUser loads a user that has not been soft-deleted.
func (r *DirectoryRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	q := r.store.queryer(ctx)
	var row userRow
	query := q.Rebind(`SELECT id, name, email, is_deleted FROM users WHERE id = ? AND is_deleted = FALSE`)
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		return persistence.User{}, mapError(err)
	}
	return row.toUser(), nil
}

// GetUsers loads the active users among ids. Unknown or deleted ids are omitted.
func (r *DirectoryRepository) GetUsers(ctx context.Context, ids []int64) ([]persistence.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, email, is_deleted FROM users WHERE id IN (?) AND is_deleted = FALSE ORDER BY id ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build users query: %w", err)
	}
	q := r.store.queryer(ctx)
	var rows []userRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, mapError(err)
	}
	users := make([]persistence.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

// UpsertUser inserts or replaces a user record.
func (r *DirectoryRepository) UpsertUser(ctx context.Context, user persistence.User) error {
	if user.ID <= 0 {
		return fmt.Errorf("%w: user id must be positive", persistence.ErrConstraint)
	}
	q := r.store.queryer(ctx)
	query := q.Rebind(`
		INSERT INTO users (id, name, email, is_deleted)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			is_deleted = excluded.is_deleted`)
	if _, err := q.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.IsDeleted); err != nil {
		return mapError(err)
	}
	return nil
}

var (
	_ persistence.RoomRepository = (*DirectoryRepository)(nil)
	_ persistence.UserRepository = (*DirectoryRepository)(nil)
)
