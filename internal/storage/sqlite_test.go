package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent opens the same directory twice; the second Open
// must not re-apply anything.
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	require.NoError(t, err)
	v1, err := s1.AppliedMigrations()
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	require.NoError(t, err)
	assert.Len(t, v2, len(v1), "migration count changed")
}

func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.IsIncreasing(t, versions)
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	for _, idx := range []string{"idx_entries_timestamp", "idx_reports_created", "idx_jobs_status_run_after"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "index %s not found", idx)
	}
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("002_canonical_categories.sql")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = parseMigrationVersion("canonical.sql")
	assert.Error(t, err, "a file without a version prefix")
}

// TestCanonicalCategoriesMigration replays migration 002 over rows written
// with the older category vocabulary.
func TestCanonicalCategoriesMigration(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Format(time.RFC3339)

	rows := map[string]string{
		"e-deep":     "Deep Work",
		"e-meet":     "meetings",
		"e-learn":    "LEARNING",
		"e-break":    "Break",
		"e-exercise": "EXERCISE",
		"e-admin":    "Admin",
		"e-burn":     "BURN",
		"e-junk":     "whatever",
	}
	for id, cat := range rows {
		_, err := s.db.Exec(`INSERT INTO entries (id, timestamp_ms, text, outcome, category, created_at)
			VALUES (?, 0, '', ' win ', ?, ?)`, id, cat, now)
		require.NoError(t, err, "inserting %s", id)
	}

	sqlText, err := migrationsFS.ReadFile("migrations/002_canonical_categories.sql")
	require.NoError(t, err)
	_, err = s.db.Exec(string(sqlText))
	require.NoError(t, err, "applying migration")

	want := map[string]string{
		"e-deep":     "MAKER",
		"e-meet":     "MANAGER",
		"e-learn":    "R&D",
		"e-break":    "FUEL",
		"e-exercise": "RECOVERY",
		"e-admin":    "OTHER",
		"e-burn":     "BURN",
		"e-junk":     "OTHER",
	}
	for id, w := range want {
		var cat, outcome string
		require.NoError(t, s.db.QueryRow(`SELECT category, outcome FROM entries WHERE id = ?`, id).Scan(&cat, &outcome))
		assert.Equal(t, w, cat, "%s category", id)
		assert.Equal(t, "WIN", outcome, "%s outcome", id)
	}
}

func TestSettingRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, "goal")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.SetSetting(ctx, "goal", "FOCUS"))
	require.NoError(t, s.SetSetting(ctx, "goal", "LIFE"))
	require.NoError(t, s.SetSetting(ctx, "persona", "KIND"))

	got, err := s.GetSetting(ctx, "goal")
	require.NoError(t, err)
	assert.Equal(t, "LIFE", got)

	all, err := s.GetAllSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "KIND", all["persona"])
}
