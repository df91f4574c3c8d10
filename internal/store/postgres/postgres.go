package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/musui/musui-server/internal/store/sqlstore"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) *sqlstore.Store { return sqlstore.New(db, sqlstore.Postgres) }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS archives (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        is_public BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS archives_user_created_idx ON archives (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS archives_public_created_idx ON archives (is_public, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS archive_items (
        archive_id TEXT NOT NULL REFERENCES archives(id) ON DELETE CASCADE,
        item_index INTEGER NOT NULL,
        course_id TEXT NOT NULL,
        laps TEXT,
        mood TEXT NOT NULL DEFAULT '',
        memo TEXT NOT NULL DEFAULT '',
        photo_url TEXT,
        tea_name TEXT,
        tea_type TEXT,
        origin TEXT,
        brand_or_purchase TEXT,
        infusion_notes TEXT NOT NULL DEFAULT '[]',
        PRIMARY KEY (archive_id, item_index)
    )`,
	`CREATE TABLE IF NOT EXISTS profiles (
        id TEXT PRIMARY KEY,
        email TEXT,
        display_name TEXT,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS profiles_display_name_idx ON profiles (display_name)`,
}

// EnsureSchema creates the tables when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	return nil
}

// Bootstrap performs a connectivity check to ensure Postgres is reachable.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.PingContext(ctx)
}
