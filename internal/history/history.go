// Package history keeps a durable log of controller transitions so an
// operator can reconstruct what the system did and why.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/driptide/irrigationd/internal/controller"
)

// Transition is one recorded state change, together with the readings that
// drove it.
type Transition struct {
	ID         uuid.UUID          `json:"id"`
	OccurredAt time.Time          `json:"occurred_at"`
	From       controller.State   `json:"from"`
	To         controller.State   `json:"to"`
	Reason     controller.Reason  `json:"reason"`
	Raw        int                `json:"raw"`
	Average    int                `json:"average"`
}

// Store is the transition log. Record failures are reported to the caller,
// which logs and carries on; the control loop never stalls on storage.
type Store interface {
	Record(ctx context.Context, tr Transition) error
	Recent(ctx context.Context, limit int) ([]Transition, error)
	Close() error
}

const createTransitionsTable = `
	CREATE TABLE IF NOT EXISTS transitions (
		id TEXT PRIMARY KEY,
		occurred_at DATETIME NOT NULL,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		reason TEXT NOT NULL,
		raw INTEGER NOT NULL,
		average INTEGER NOT NULL
	)`

// SQLiteStore logs transitions to a local database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the transition log, creating the file and schema on
// first use.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// sqlite permits one writer at a time; a single pooled connection
	// avoids busy errors on this single-process device.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTransitionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create transitions table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Record(ctx context.Context, tr Transition) error {
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (id, occurred_at, from_state, to_state, reason, raw, average)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tr.ID.String(), tr.OccurredAt.UTC(), string(tr.From), string(tr.To), string(tr.Reason), tr.Raw, tr.Average)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, occurred_at, from_state, to_state, reason, raw, average
		 FROM transitions ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var (
			tr         Transition
			id         string
			from, to   string
			reason     string
		)
		if err := rows.Scan(&id, &tr.OccurredAt, &from, &to, &reason, &tr.Raw, &tr.Average); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		tr.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("transition row has a bad id %q: %w", id, err)
		}
		tr.From = controller.State(from)
		tr.To = controller.State(to)
		tr.Reason = controller.Reason(reason)
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NoopStore drops every record. Used when no history file is configured.
type NoopStore struct{}

func (NoopStore) Record(ctx context.Context, tr Transition) error {
	return nil
}

func (NoopStore) Recent(ctx context.Context, limit int) ([]Transition, error) {
	return nil, nil
}

func (NoopStore) Close() error {
	return nil
}
