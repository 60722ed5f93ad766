package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/roombooking/internal/persistence"
)

// SequenceRepository allocates identifiers from the counters table.
type SequenceRepository struct {
	store *Store
}

// NewSequenceRepository creates a counter-backed sequence allocator.
func NewSequenceRepository(store *Store) *SequenceRepository {
	return &SequenceRepository{store: store}
}

// Next increments the named counter and returns the new value. The first
// call for a name returns 1.
func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	q := r.store.queryer(ctx)
	query := q.Rebind(`
		INSERT INTO counters (name, seq) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq`)
	var seq int64
	if err := sqlx.GetContext(ctx, q, &seq, query, name); err != nil {
		return 0, fmt.Errorf("next %s: %w", name, mapError(err))
	}
	return seq, nil
}

// Seed sets the counter to value unless it already exists.
func (r *SequenceRepository) Seed(ctx context.Context, name string, value int64) error {
	q := r.store.queryer(ctx)
	query := q.Rebind(`INSERT INTO counters (name, seq) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`)
	if _, err := q.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("seed %s: %w", name, mapError(err))
	}
	return nil
}

var _ persistence.SequenceRepository = (*SequenceRepository)(nil)
