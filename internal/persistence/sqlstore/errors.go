package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/example/roombooking/internal/persistence"
)

const intervalConstraint = "reservations_room_interval_key"

// mapError translates driver errors into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", persistence.ErrNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == intervalConstraint {
				return fmt.Errorf("%w: %w", persistence.ErrIntervalTaken, err)
			}
			return fmt.Errorf("%w: %w", persistence.ErrDuplicate, err)
		case "23503", "23514", "23502":
			return fmt.Errorf("%w: %w", persistence.ErrConstraint, err)
		}
		return err
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return uniqueViolation(err)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3lib.SQLITE_CONSTRAINT_CHECK, sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %w", persistence.ErrConstraint, err)
		}
	}

	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "unique constraint failed"):
		return uniqueViolation(err)
	case strings.Contains(message, "foreign key constraint failed"),
		strings.Contains(message, "check constraint failed"):
		return fmt.Errorf("%w: %w", persistence.ErrConstraint, err)
	}
	return err
}

// uniqueViolation tells the interval index apart from primary keys. SQLite
// reports the indexed columns rather than the index name.
func uniqueViolation(err error) error {
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "reservations.room_id") || strings.Contains(message, intervalConstraint) {
		return fmt.Errorf("%w: %w", persistence.ErrIntervalTaken, err)
	}
	return fmt.Errorf("%w: %w", persistence.ErrDuplicate, err)
}
