package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyResolved is returned when answering a request that is no
	// longer pending.
	ErrAlreadyResolved = errors.New("request already resolved")
	// ErrDuplicate is returned when a unique row already exists.
	ErrDuplicate = errors.New("already exists")
)

// Store is the SQLite implementation of the membership ports plus the CRUD
// used by the HTTP handlers.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore wraps db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the clock used for created/responded timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

type scanner interface {
	Scan(dest ...any) error
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeJSON tolerates empty and malformed legacy columns by leaving dst
// untouched.
func decodeJSON(raw string, dst any) {
	if raw == "" || raw == "null" {
		return
	}
	_ = json.Unmarshal([]byte(raw), dst)
}

// withTx runs fn in a transaction and commits it when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// resolve flips a pending row of table to accepted or rejected. A row that
// exists but is not pending yields ErrAlreadyResolved.
func (s *Store) resolve(ctx context.Context, q execer, table, id string, accept bool) error {
	status := "rejected"
	if accept {
		status = "accepted"
	}

	res, err := q.ExecContext(ctx,
		"UPDATE "+table+" SET status = ?, responded_at = ? WHERE id = ? AND status = 'pending'",
		status, s.now(), id)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyResolved
}
