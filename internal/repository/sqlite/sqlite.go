// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the binary as a single file.
// No separate database server to run. modernc.org/sqlite is a pure Go port, so
// no C compiler is needed either.
//
// TRANSACTIONS:
// Writes that must land together (analysis row, user link, credit debit) go
// through RunInTx. The pool is limited to ONE open connection: SQLite allows a
// single writer anyway, and with one connection every transaction is fully
// serialized. It also keeps ":memory:" databases (used in tests) coherent,
// since each new connection to ":memory:" would otherwise be a fresh, empty DB.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/video-guides/internal/repository"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

var (
	_ repository.UserRepository     = (*DB)(nil)
	_ repository.AnalysisRepository = (*DB)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the query helpers
// below run the same SQL inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/videos.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress (file databases only).
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// RunInTx implements repository.AnalysisRepository.
//
// The deferred Rollback is a no-op after a successful Commit, so every exit
// path (error, panic, success) leaves the transaction closed.
func (db *DB) RunInTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// txStore implements repository.Tx on top of an open *sql.Tx.
type txStore struct {
	q querier
}

var _ repository.Tx = (*txStore)(nil)

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS is idempotent; column additions go through
// addColumnIfNotExists so existing databases upgrade in place.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  INTEGER NOT NULL UNIQUE,
			login      TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Entitlement columns. The CHECK keeps credits from going negative even
	// if a future query forgets the guard.
	if err := db.addColumnIfNotExists("users", "credits",
		"INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0)"); err != nil {
		return fmt.Errorf("adding credits to users: %w", err)
	}
	if err := db.addColumnIfNotExists("users", "subscription_status",
		"TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding subscription_status to users: %w", err)
	}

	// social_media_url is UNIQUE: the service's find-before-create check can
	// race, and this constraint turns the race into a detectable conflict.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS video_analyses (
			id               TEXT PRIMARY KEY,
			social_media_url TEXT NOT NULL UNIQUE,
			video_url        TEXT NOT NULL DEFAULT '',
			platform         TEXT NOT NULL,
			type             TEXT NOT NULL,
			title            TEXT NOT NULL DEFAULT '',
			output           TEXT NOT NULL DEFAULT '',
			thumbnail_url    TEXT NOT NULL DEFAULT '',
			has_thumbnail    INTEGER NOT NULL DEFAULT 0,
			mime_type        TEXT NOT NULL DEFAULT '',
			custom_json_data TEXT,
			created_by       TEXT NOT NULL REFERENCES users(id),
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_video_analyses_created_by ON video_analyses(created_by);
	`)
	if err != nil {
		return fmt.Errorf("creating video_analyses table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_video_analyses (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL REFERENCES users(id),
			video_analysis_id TEXT NOT NULL REFERENCES video_analyses(id),
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_user_video_analyses_user_id ON user_video_analyses(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating user_video_analyses table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent: safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// isUniqueViolation reports whether err is SQLite refusing an INSERT because
// of a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	// Primary code in the low byte; extended codes (2067) share it.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(se.Error(), "UNIQUE")
}
