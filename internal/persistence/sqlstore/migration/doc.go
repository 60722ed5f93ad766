// Package migration applies versioned schema files to the booking database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_initial_schema.sql") and are read from an fs.FS, normally the
// embedded Files set. Applied versions are tracked in a schema_migrations
// table so each file runs exactly once. Every file runs inside its own
// transaction and is rolled back on failure.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(migration.Files, "sql"), migration.NewExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
