package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations is the registry every migration file adds itself to.
var Migrations = migrate.NewMigrations()

// Apply initializes the migration tables and runs all pending migrations.
// Used by tests and by "serve --auto-migrate".
func Apply(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return group, nil
}

// dropTable drops a table, cascading on PostgreSQL.
func dropTable(ctx context.Context, db *bun.DB, table string) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
	if IsPostgreSQL(db) {
		query += " CASCADE"
	}
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop %s: %w", table, err)
	}
	return nil
}
