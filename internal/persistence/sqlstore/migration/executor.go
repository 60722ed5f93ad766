package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Executor applies migrations and maintains the schema_migrations table.
type Executor struct {
	db *sqlx.DB
}

// NewExecutor creates a new migration executor.
func NewExecutor(db *sqlx.DB) *Executor {
	return &Executor{db: db}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_ms BIGINT NOT NULL,
			checksum TEXT NOT NULL,
			execution_time_ms BIGINT NOT NULL
		)`
	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewDatabaseError("", createTableSQL, "create schema_migrations table", err)
	}
	return nil
}

// Execute runs every statement of m and records it in one transaction.
func (e *Executor) Execute(ctx context.Context, m Migration) (err error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return NewMigrationError(m.Version, m.FilePath, "parse SQL", fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	started := time.Now()
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewDatabaseError(m.Version, "", "begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	for i, stmt := range statements {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			return NewDatabaseError(m.Version, stmt, fmt.Sprintf("execute statement %d", i+1), execErr)
		}
	}

	insertSQL := tx.Rebind(`INSERT INTO schema_migrations (version, applied_ms, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`)
	if _, execErr := tx.ExecContext(ctx, insertSQL, m.Version, time.Now().UTC().UnixMilli(), m.Checksum, time.Since(started).Milliseconds()); execErr != nil {
		return NewDatabaseError(m.Version, insertSQL, "record migration", execErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return NewDatabaseError(m.Version, "", "commit transaction", commitErr)
	}
	return nil
}

type appliedRow struct {
	Version         string `db:"version"`
	AppliedMS       int64  `db:"applied_ms"`
	Checksum        string `db:"checksum"`
	ExecutionTimeMS int64  `db:"execution_time_ms"`
}

// Applied returns every applied migration ordered by version.
func (e *Executor) Applied(ctx context.Context) ([]AppliedMigration, error) {
	const querySQL = `SELECT version, applied_ms, checksum, execution_time_ms FROM schema_migrations ORDER BY version ASC`
	var rows []appliedRow
	if err := e.db.SelectContext(ctx, &rows, querySQL); err != nil {
		return nil, NewDatabaseError("", querySQL, "get applied versions", err)
	}
	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		applied = append(applied, AppliedMigration{
			Version:       row.Version,
			AppliedAt:     time.UnixMilli(row.AppliedMS).UTC(),
			ExecutionTime: time.Duration(row.ExecutionTimeMS) * time.Millisecond,
			Checksum:      row.Checksum,
		})
	}
	return applied, nil
}
