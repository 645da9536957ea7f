package database

import (
	"context"
	"embed"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed schema
var schemaFS embed.FS

// migrations records applied versions in schema_migrations.
var migrations = migrate.MigrationSet{TableName: "schema_migrations"}

// Source returns the versioned migrations for the dialect, one directory
// per dialect under schema/.
func Source(d Dialect) (migrate.MigrationSource, error) {
	switch d {
	case MySQL, Postgres:
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", d)
	}
	return migrate.EmbedFileSystemMigrationSource{FileSystem: schemaFS, Root: "schema/" + string(d)}, nil
}

// Migrate applies pending up migrations and returns how many ran.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	src, err := Source(db.Dialect)
	if err != nil {
		return 0, err
	}
	n, err := migrations.ExecContext(ctx, db.DB.DB, string(db.Dialect), src, migrate.Up)
	if err != nil {
		return n, fmt.Errorf("migrate %s: %w", db.Dialect, err)
	}
	return n, nil
}
