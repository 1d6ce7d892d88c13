// Package db holds session persistence for the analysis service on SQLite.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/striderun/strider/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Queries wraps a database handle with the session query set.
type Queries struct {
	db *sql.DB
}

// New creates a Queries backed by the given database handle.
func New(sqlDB *sql.DB) *Queries {
	return &Queries{db: sqlDB}
}

// Configure sets up SQLite for concurrent access: WAL journaling for
// concurrent reads, a busy timeout instead of immediate lock failures, and a
// single-connection pool.
func Configure(sqlDB *sql.DB) error {
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("setting busy timeout: %w", err)
	}
	// NORMAL is safe with WAL and faster than FULL.
	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("setting synchronous mode: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	logging.Logger.Debug().
		Str("journal_mode", "WAL").
		Str("busy_timeout", "5000ms").
		Msg("SQLite configured")
	return nil
}

// Migrate applies all embedded schema migrations.
func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, sub)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for _, r := range results {
		logging.Logger.Debug().
			Int64("version", r.Source.Version).
			Str("path", r.Source.Path).
			Msg("migration applied")
	}
	logging.Logger.Debug().Int("applied", len(results)).Msg("database migrations completed")
	return nil
}
