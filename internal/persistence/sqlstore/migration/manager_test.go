package migration

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestManager_RunAppliesPendingOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"sql/001_create.sql": {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY);")},
		"sql/002_seed.sql":   {Data: []byte("INSERT INTO items (id) VALUES (1);\nINSERT INTO items (id) VALUES (2);")},
	}
	manager := NewManager(NewScanner(fsys, "sql"), NewExecutor(db), zaptest.NewLogger(t))

	require.NoError(t, manager.Run(ctx))
	require.NoError(t, manager.Run(ctx))

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM items"))
	assert.Equal(t, 2, count)

	status, err := manager.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "002", status.CurrentVersion)
	assert.Empty(t, status.Pending)
	require.Len(t, status.Applied, 2)
	assert.Equal(t, "001", status.Applied[0].Version)
}

func TestManager_RunRollsBackFailedMigration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"sql/001_create.sql": {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY);")},
		"sql/002_broken.sql": {Data: []byte("INSERT INTO items (id) VALUES (1);\nINSERT INTO missing (id) VALUES (1);")},
	}
	manager := NewManager(NewScanner(fsys, "sql"), NewExecutor(db), nil)

	err := manager.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigrationFailed)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM items"))
	assert.Equal(t, 0, count)

	status, err := manager.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "001", status.CurrentVersion)
	require.Len(t, status.Pending, 1)
	assert.Equal(t, "002", status.Pending[0].Version)
}

func TestManager_StatusDetectsEditedMigration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	original := fstest.MapFS{"sql/001_create.sql": {Data: []byte("CREATE TABLE items (id INTEGER);")}}
	require.NoError(t, NewManager(NewScanner(original, "sql"), NewExecutor(db), nil).Run(ctx))

	edited := fstest.MapFS{"sql/001_create.sql": {Data: []byte("CREATE TABLE items (id INTEGER, name TEXT);")}}
	_, err := NewManager(NewScanner(edited, "sql"), NewExecutor(db), nil).Status(ctx)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestManager_EmbeddedSchemaApplies(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	manager := NewManager(NewScanner(Files, Dir), NewExecutor(db), nil)
	require.NoError(t, manager.Run(ctx))

	for _, table := range []string{"rooms", "users", "reservations", "reservation_attendees", "counters"} {
		var name string
		err := db.GetContext(ctx, &name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		require.NoError(t, err, table)
	}
}
