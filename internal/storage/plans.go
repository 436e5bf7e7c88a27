package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
)

func (s *Store) GetDayPlan(ctx context.Context, dateKey string) (journal.DayPlan, error) {
	var (
		p                            journal.DayPlan
		pillars, constraints, blocks string
		updatedAt                    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT date_key, dragon, pillars, constraints, blocks, updated_at
		FROM day_plans WHERE date_key = ?`, dateKey,
	).Scan(&p.DateKey, &p.Dragon, &pillars, &constraints, &blocks, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return journal.DayPlan{}, ErrNotFound
	}
	if err != nil {
		return journal.DayPlan{}, err
	}

	if err := json.Unmarshal([]byte(pillars), &p.Pillars); err != nil {
		return journal.DayPlan{}, fmt.Errorf("decoding pillars for %s: %w", dateKey, err)
	}
	if err := json.Unmarshal([]byte(constraints), &p.Constraints); err != nil {
		return journal.DayPlan{}, fmt.Errorf("decoding constraints for %s: %w", dateKey, err)
	}
	if err := json.Unmarshal([]byte(blocks), &p.Blocks); err != nil {
		return journal.DayPlan{}, fmt.Errorf("decoding blocks for %s: %w", dateKey, err)
	}
	for i := range p.Blocks {
		p.Blocks[i].Category = journal.ParseCategory(string(p.Blocks[i].Category))
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return journal.DayPlan{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return p, nil
}

// SaveDayPlan validates p and replaces the stored plan for its date.
func (s *Store) SaveDayPlan(ctx context.Context, p journal.DayPlan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	pillars, err := marshalList(p.Pillars)
	if err != nil {
		return err
	}
	constraints, err := marshalList(p.Constraints)
	if err != nil {
		return err
	}
	blocks := []byte("[]")
	if len(p.Blocks) > 0 {
		if blocks, err = json.Marshal(p.Blocks); err != nil {
			return fmt.Errorf("encoding blocks: %w", err)
		}
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO day_plans (date_key, dragon, pillars, constraints, blocks, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date_key) DO UPDATE SET
			dragon = excluded.dragon,
			pillars = excluded.pillars,
			constraints = excluded.constraints,
			blocks = excluded.blocks,
			updated_at = excluded.updated_at`,
		p.DateKey, p.Dragon, pillars, constraints, string(blocks), updatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) DeleteDayPlan(ctx context.Context, dateKey string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM day_plans WHERE date_key = ?`, dateKey)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func marshalList(v []string) (string, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
