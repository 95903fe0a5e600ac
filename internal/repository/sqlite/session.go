package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/carbon-tracker/internal/repository"
)

var (
	_ repository.Handle = (*Session)(nil)
	_ repository.Store  = (*DB)(nil)
)

// Session is a repository.Handle pinned to one pooled connection.
type Session struct {
	store
	conn *sql.Conn
}

// Open checks a connection out of the pool for the duration of one request.
// Foreign keys are a per-connection setting in SQLite, so they are enabled
// again on every checkout.
func (db *DB) Open(ctx context.Context) (repository.Handle, error) {
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return nil, storageErr("acquiring connection", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, storageErr("enabling foreign keys", err)
	}
	return &Session{store: store{q: conn}, conn: conn}, nil
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}

// WithTx runs fn inside a transaction on the session's connection. The
// transaction is rolled back if fn returns an error or panics.
func (s *Session) WithTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(&store{q: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return storageErr("committing transaction", fmt.Errorf("commit: %w", err))
	}
	return nil
}
