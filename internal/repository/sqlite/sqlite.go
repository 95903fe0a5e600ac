// Package sqlite implements the repository interfaces on an embedded SQLite
// database using the pure-Go modernc.org/sqlite driver.
//
// A *DB owns the connection pool. Requests should not share it directly:
// they call Open to check out a *Session pinned to a single connection and
// Close it when done. *DB also satisfies repository.Store for one-off work
// such as CLI commands and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/repository"
)

// MemoryPath opens a private in-memory database. Used by tests.
const MemoryPath = ":memory:"

var _ repository.Provider = (*DB)(nil)

// querier is the subset of *sql.DB, *sql.Conn and *sql.Tx the queries need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// store runs every repository query against q.
type store struct {
	q querier
}

// DB wraps a sql.DB connection pool.
type DB struct {
	store
	conn *sql.DB
}

// New opens the database at dbPath, applies pragmas and runs migrations.
//
// Every in-memory connection is a separate database, so MemoryPath pools are
// capped at one connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{store: store{q: conn}, conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Statements are idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			username     TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			bio          TEXT NOT NULL DEFAULT '',
			avatar       TEXT NOT NULL DEFAULT '',
			points       INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC, username ASC);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS activities (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id),
			category     TEXT NOT NULL,
			details      TEXT NOT NULL DEFAULT '{}',
			emissions_kg REAL NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_activities_user_created ON activities(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating activities table: %w", err)
	}

	// UNIQUE(user_id, name) backs the insert-if-absent grant.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS achievements (
			id        TEXT PRIMARY KEY,
			user_id   TEXT NOT NULL REFERENCES users(id),
			name      TEXT NOT NULL,
			earned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, name)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating achievements table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS bus_rides (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			route_name     TEXT NOT NULL,
			distance_miles REAL NOT NULL DEFAULT 0,
			points_earned  INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_bus_rides_user_created ON bus_rides(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating bus_rides table: %w", err)
	}

	return nil
}

// storageErr wraps a driver failure as an apperror.ErrStorage.
func storageErr(op string, err error) error {
	return apperror.Storage(op, fmt.Errorf("sqlite: %s: %w", op, err))
}

func sqliteCode(err error) int {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code()
	}
	return 0
}

func isForeignKeyViolation(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func isUniqueViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// limitArg maps a zero or negative limit to SQLite's "no limit".
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
