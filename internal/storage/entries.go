package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
)

const entryColumns = `id, timestamp_ms, text, outcome, category, duration_ms, feedback, source`

// SaveEntry inserts e. Entries are immutable, so a duplicate id is an error.
func (s *Store) SaveEntry(ctx context.Context, e journal.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixMilli(), e.Text, string(e.Outcome), string(e.Category),
		e.Duration.Milliseconds(), e.Feedback, e.Source, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetEntry(ctx context.Context, id string) (journal.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.Entry{}, ErrNotFound
	}
	return e, err
}

// ListEntries returns entries with from <= timestamp < to, oldest first. A
// zero from or to leaves that side open.
func (s *Store) ListEntries(ctx context.Context, from, to time.Time) ([]journal.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE 1 = 1`
	var args []any
	if !from.IsZero() {
		query += ` AND timestamp_ms >= ?`
		args = append(args, from.UnixMilli())
	}
	if !to.IsZero() {
		query += ` AND timestamp_ms < ?`
		args = append(args, to.UnixMilli())
	}
	query += ` ORDER BY timestamp_ms ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []journal.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *Store) CountEntries(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one row. Category and outcome go through the journal
// parsers so rows written by older versions come back canonical.
func scanEntry(sc scanner) (journal.Entry, error) {
	var (
		e                 journal.Entry
		tsMs, durMs       int64
		outcome, category string
	)
	if err := sc.Scan(&e.ID, &tsMs, &e.Text, &outcome, &category, &durMs, &e.Feedback, &e.Source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return journal.Entry{}, err
		}
		return journal.Entry{}, fmt.Errorf("scanning entry: %w", err)
	}
	e.Timestamp = time.UnixMilli(tsMs)
	e.Duration = time.Duration(durMs) * time.Millisecond
	e.Outcome = journal.ParseOutcome(outcome)
	e.Category = journal.ParseCategory(category)
	return e, nil
}
