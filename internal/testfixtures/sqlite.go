package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/example/roombooking/internal/persistence/sqlstore"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style tests.
type SQLiteHarness struct {
	Store        *sqlstore.Store
	Directory    *sqlstore.DirectoryRepository
	Reservations *sqlstore.ReservationRepository
	Sequences    *sqlstore.SequenceRepository
	Tx           *sqlstore.TxManager

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	path := filepath.Join(tb.TempDir(), "roombooking.db")

	store, err := sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: "file:" + path})
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(ctx, zap.NewNop()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store:        store,
		Directory:    sqlstore.NewDirectoryRepository(store),
		Reservations: sqlstore.NewReservationRepository(store),
		Sequences:    sqlstore.NewSequenceRepository(store),
		Tx:           sqlstore.NewTxManager(store),
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedRooms upserts the rooms into the directory.
func (h *SQLiteHarness) SeedRooms(tb testing.TB, rooms ...RoomFixture) {
	tb.Helper()
	for _, room := range rooms {
		if err := h.Directory.UpsertRoom(context.Background(), room.Persistence()); err != nil {
			tb.Fatalf("failed to seed room %d: %v", room.ID, err)
		}
	}
}

// SeedUsers upserts the users into the directory.
func (h *SQLiteHarness) SeedUsers(tb testing.TB, users ...UserFixture) {
	tb.Helper()
	for _, user := range users {
		if err := h.Directory.UpsertUser(context.Background(), user.Persistence()); err != nil {
			tb.Fatalf("failed to seed user %d: %v", user.ID, err)
		}
	}
}

// SeedBookings stores the bookings directly, bypassing the lifecycle rules.
func (h *SQLiteHarness) SeedBookings(tb testing.TB, bookings ...BookingFixture) {
	tb.Helper()
	for _, booking := range bookings {
		if err := h.Reservations.CreateReservation(context.Background(), booking.Persistence()); err != nil {
			tb.Fatalf("failed to seed booking %d: %v", booking.ID, err)
		}
	}
}
