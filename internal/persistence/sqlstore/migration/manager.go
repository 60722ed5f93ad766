package migration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Manager applies pending migrations in version order.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	logger   *zap.Logger
}

// NewManager creates a Manager. A nil logger discards output.
func NewManager(scanner *Scanner, executor *Executor, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.Named("migration")}
}

// Run applies every pending migration. It stops at the first failure.
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	m.logger.Info("schema version",
		zap.String("current_version", status.CurrentVersion),
		zap.Int("pending", len(status.Pending)),
	)
	if len(status.Pending) == 0 {
		return nil
	}

	for i, migration := range status.Pending {
		m.logger.Info("applying migration",
			zap.String("version", migration.Version),
			zap.String("description", migration.Description),
			zap.Int("step", i+1),
			zap.Int("total", len(status.Pending)),
		)
		if err := m.executor.Execute(ctx, migration); err != nil {
			m.logger.Error("migration failed", zap.String("version", migration.Version), zap.Error(err))
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration", fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
	}

	m.logger.Info("migrations completed",
		zap.Int("applied", len(status.Pending)),
		zap.Duration("duration", time.Since(started)),
	)
	return nil
}

// Status compares the scanned files with the schema_migrations table.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}
	available, err := m.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	appliedByVersion := make(map[string]AppliedMigration, len(applied))
	status := &Status{Applied: applied}
	maxVersion := -1
	for _, a := range applied {
		appliedByVersion[a.Version] = a
		if v, err := strconv.Atoi(a.Version); err == nil && v > maxVersion {
			maxVersion = v
			status.CurrentVersion = a.Version
		}
	}

	for _, migration := range available {
		a, ok := appliedByVersion[migration.Version]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if a.Checksum != migration.Checksum {
			return nil, NewMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return status, nil
}
