package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGetReport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := Report{
		ID:         "r1",
		Key:        "D_2026-03-04",
		Period:     "D",
		DateKey:    "2026-03-04",
		Content:    "Score: 72",
		Summary:    "Report Ready: solid morning.",
		EntryCount: 12,
		CreatedAt:  time.Date(2026, 3, 5, 0, 1, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveReport(ctx, r))

	got, err := s.GetReport(ctx, "D_2026-03-04")
	require.NoError(t, err)
	assert.Equal(t, r.Content, got.Content)
	assert.Equal(t, r.Summary, got.Summary)
	assert.Equal(t, 12, got.EntryCount)
	assert.False(t, got.Read, "new report should be unread")
	assert.True(t, got.CreatedAt.Equal(r.CreatedAt), "CreatedAt = %v, want %v", got.CreatedAt, r.CreatedAt)

	_, err = s.GetReport(ctx, "D_1999-01-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReport_UpsertByKeyResetsRead(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, Report{ID: "r1", Key: "W_2026-03-02", Period: "W", DateKey: "2026-03-02", Content: "v1"}))
	require.NoError(t, s.MarkReportRead(ctx, "W_2026-03-02"))
	got, err := s.GetReport(ctx, "W_2026-03-02")
	require.NoError(t, err)
	require.True(t, got.Read, "report should be read")

	require.NoError(t, s.SaveReport(ctx, Report{ID: "r2", Key: "W_2026-03-02", Period: "W", DateKey: "2026-03-02", Content: "v2"}))
	got, err = s.GetReport(ctx, "W_2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
	assert.False(t, got.Read, "regenerated report should be unread")

	list, err := s.ListReports(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListReports_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, key := range []string{"D_2026-03-01", "D_2026-03-02", "D_2026-03-03"} {
		r := Report{ID: key, Key: key, Period: "D", DateKey: key[2:], CreatedAt: base.AddDate(0, 0, i)}
		require.NoError(t, s.SaveReport(ctx, r))
	}

	list, err := s.ListReports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "D_2026-03-03", list[0].Key)
	assert.Equal(t, "D_2026-03-02", list[1].Key)
}

func TestMarkReportRead_NotFound(t *testing.T) {
	s := openTestStore(t)
	assert.ErrorIs(t, s.MarkReportRead(context.Background(), "nope"), ErrNotFound)
}
