package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/quarterlog/internal/journal"
)

func TestSaveAndGetEntry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 4, 9, 15, 30, 0, time.UTC)
	in := journal.Entry{
		ID:        "e1",
		Timestamp: ts,
		Text:      "wrote the parser",
		Outcome:   journal.OutcomeWin,
		Category:  journal.CategoryMaker,
		Duration:  15 * time.Minute,
		Feedback:  "Logged.",
		Source:    "cli",
	}
	require.NoError(t, s.SaveEntry(ctx, in))

	got, err := s.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, got.Timestamp.Equal(ts), "Timestamp = %v, want %v", got.Timestamp, ts)
	assert.Equal(t, in.Text, got.Text)
	assert.Equal(t, journal.OutcomeWin, got.Outcome)
	assert.Equal(t, journal.CategoryMaker, got.Category)
	assert.Equal(t, 15*time.Minute, got.Duration)
	assert.Equal(t, "Logged.", got.Feedback)
	assert.Equal(t, "cli", got.Source)

	assert.Error(t, s.SaveEntry(ctx, in), "duplicate id")
}

func TestGetEntryNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetEntry_NormalizesLegacyCategory(t *testing.T) {
	s := openTestStore(t)
	_, err := s.db.Exec(`INSERT INTO entries (id, timestamp_ms, text, outcome, category, created_at)
		VALUES ('old', 0, 'gym', 'win', 'Exercise', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	got, err := s.GetEntry(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, journal.CategoryRecovery, got.Category)
	assert.Equal(t, journal.OutcomeWin, got.Outcome)
}

func TestListEntries_RangeAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	for i, h := range []int{14, 9, 23, 30} {
		e := journal.Entry{
			ID:        string(rune('a' + i)),
			Timestamp: day.Add(time.Duration(h) * time.Hour),
			Outcome:   journal.OutcomeWin,
			Category:  journal.CategoryMaker,
		}
		require.NoError(t, s.SaveEntry(ctx, e))
	}

	all, err := s.ListEntries(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		require.False(t, all[i].Timestamp.Before(all[i-1].Timestamp),
			"entries not ordered by timestamp: %v then %v", all[i-1].Timestamp, all[i].Timestamp)
	}

	today, err := s.ListEntries(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, today, 3)

	// The upper bound is exclusive.
	morning, err := s.ListEntries(ctx, day, day.Add(14*time.Hour))
	require.NoError(t, err)
	assert.Len(t, morning, 1)
}

func TestDeleteEntry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := journal.Entry{ID: "del", Timestamp: time.Now(), Outcome: journal.OutcomeLoss, Category: journal.CategoryBurn}
	require.NoError(t, s.SaveEntry(ctx, e))
	require.NoError(t, s.DeleteEntry(ctx, "del"))
	assert.ErrorIs(t, s.DeleteEntry(ctx, "del"), ErrNotFound)

	n, err := s.CountEntries(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
