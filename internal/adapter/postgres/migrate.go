package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/focus-backend/migrations"
)

// Migrate applies all pending embedded migrations to the database at dsn.
// goose needs *sql.DB, so a short-lived database/sql handle is opened.
func Migrate(ctx context.Context, dsn string) ([]*goose.MigrationResult, error) {
	provider, closeDB, err := newProvider(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	results, err := provider.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("goose up: %w", err)
	}
	return results, nil
}

// MigrationStatus reports applied/pending state of every embedded migration.
func MigrationStatus(ctx context.Context, dsn string) ([]*goose.MigrationStatus, error) {
	provider, closeDB, err := newProvider(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	return provider.Status(ctx)
}

func newProvider(ctx context.Context, dsn string) (*goose.Provider, func(), error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("goose new provider: %w", err)
	}

	return provider, func() { _ = db.Close() }, nil
}
