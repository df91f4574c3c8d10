package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/musui/musui-server/internal/store/sqlstore"
)

// Open opens (or creates) a SQLite database at the given path with WAL journal
// mode and foreign keys enabled.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer at a time; sqlite serialises writes anyway
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite store over db.
func NewWithDB(db *sql.DB) *sqlstore.Store { return sqlstore.New(db, sqlstore.SQLite) }

// EnsureSchema creates the tables when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS archives (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            is_public BOOLEAN NOT NULL DEFAULT 0,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS archives_user_created_idx ON archives (user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS archives_public_created_idx ON archives (is_public, created_at);`,
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
        );`,
		`CREATE TABLE IF NOT EXISTS profiles (
            id TEXT PRIMARY KEY,
            email TEXT,
            display_name TEXT,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS profiles_display_name_idx ON profiles (display_name);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}
