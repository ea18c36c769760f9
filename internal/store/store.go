package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rnwolfe/devlog/internal/config"
	_ "modernc.org/sqlite"
)

// TimeLayout is the fixed-width UTC layout used for every timestamp column,
// so that text comparison in SQL matches chronological order.
const TimeLayout = "2006-01-02 15:04:05.000000"

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the devlog database under the XDG data dir.
func Open() (*DB, error) {
	paths := config.GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating data dirs: %w", err)
	}
	return OpenPath(paths.DBFile)
}

// OpenPath opens the database at path and runs migrations.
func OpenPath(path string) (*DB, error) {
	// _pragma applies to every pooled connection, not just the first.
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the raw sql.DB for direct queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// migrate runs all schema migrations.
func (db *DB) migrate() error {
	migrations := []string{
		// Dev log posts; created_at is the activity event.
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			category TEXT NOT NULL,
			project TEXT DEFAULT '',
			duration_min INTEGER DEFAULT 0,
			link_url TEXT DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts(user_id, created_at)`,
		// One derived streak row per user, always overwritten from posts.
		`CREATE TABLE IF NOT EXISTS streak_aggregates (
			user_id TEXT PRIMARY KEY,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_activity_date TEXT,
			total_logs INTEGER NOT NULL DEFAULT 0,
			recomputed_at TEXT NOT NULL
		)`,
		// Admin challenge windows.
		`CREATE TABLE IF NOT EXISTS challenge_windows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			total_days INTEGER NOT NULL CHECK (total_days >= 1),
			required_days INTEGER NOT NULL CHECK (required_days >= 1 AND required_days <= total_days),
			is_active INTEGER NOT NULL DEFAULT 0,
			created_by TEXT DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		// At most one active window.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_challenge_windows_single_active
			ON challenge_windows(is_active) WHERE is_active = 1`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	// ALTER TABLE migrations cannot use IF NOT EXISTS; duplicate-column errors are ignored.
	// SQLite raises "duplicate column name: X" when a column already exists.
	alterMigrations := []string{
		`ALTER TABLE posts ADD COLUMN updated_at TEXT`,
	}
	for _, m := range alterMigrations {
		if _, err := db.conn.Exec(m); err != nil {
			if !strings.Contains(err.Error(), "duplicate column name") {
				return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
			}
		}
	}

	return nil
}
