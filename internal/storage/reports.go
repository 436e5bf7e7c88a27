package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const reportColumns = `id, key, period, date_key, content, summary, entry_count, read, created_at`

// SaveReport stores r, replacing any report with the same key. A regenerated
// report is unread again.
func (s *Store) SaveReport(ctx context.Context, r Report) error {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(key) DO UPDATE SET
			content = excluded.content,
			summary = excluded.summary,
			entry_count = excluded.entry_count,
			read = 0,
			created_at = excluded.created_at`,
		r.ID, r.Key, r.Period, r.DateKey, r.Content, r.Summary, r.EntryCount,
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetReport(ctx context.Context, key string) (Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE key = ?`, key)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	return r, err
}

// ListReports returns up to limit reports, newest first.
func (s *Store) ListReports(ctx context.Context, limit int) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM reports
		ORDER BY created_at DESC, key DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) MarkReportRead(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reports SET read = 1 WHERE key = ?`, key)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func scanReport(sc scanner) (Report, error) {
	var (
		r         Report
		read      int
		createdAt string
	)
	err := sc.Scan(&r.ID, &r.Key, &r.Period, &r.DateKey, &r.Content, &r.Summary, &r.EntryCount, &read, &createdAt)
	if err != nil {
		return Report{}, err
	}
	r.Read = read != 0
	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Report{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return r, nil
}
