package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// TxManager runs functions inside a database transaction carried by the context.
type TxManager struct {
	store *Store
}

// NewTxManager creates a TxManager for the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// WithinTransaction runs fn inside a transaction. A transaction already present
// in ctx is reused. The transaction commits when fn returns nil and rolls back
// on error or panic.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	opts := &sql.TxOptions{}
	if m.store.driver == DriverPostgres {
		opts.Isolation = sql.LevelSerializable
	}
	tx, err := m.store.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// queryer returns the transaction in ctx, or the database handle when there is none.
func (s *Store) queryer(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

// inTx runs fn in the ambient transaction or a fresh one.
func (s *Store) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return NewTxManager(s).WithinTransaction(ctx, fn)
}
