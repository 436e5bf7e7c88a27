package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/quarterlog/internal/coach"
	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/settings"
	"github.com/kalambet/quarterlog/internal/storage"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

type mockReporter struct {
	mu       sync.Mutex
	requests []coach.Request
	reportFn func(req coach.Request) (string, error)
}

func (m *mockReporter) Report(_ context.Context, req coach.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.reportFn != nil {
		return m.reportFn(req)
	}
	if req.Brief {
		return "Report Ready: solid day.", nil
	}
	return "full report", nil
}

type fixedSettings struct{ s settings.Settings }

func (f fixedSettings) Get(context.Context) (settings.Settings, error) { return f.s, nil }

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func logEntry(t *testing.T, store *storage.Store, id string, ts time.Time, o journal.Outcome) {
	t.Helper()
	e := journal.Entry{ID: id, Timestamp: ts, Text: "wrote tests", Outcome: o, Category: journal.CategoryMaker, Source: "test"}
	require.NoError(t, store.SaveEntry(context.Background(), e))
}

func jobStatus(t *testing.T, store *storage.Store, typ string) (status string, attempts int) {
	t.Helper()
	err := store.DB().QueryRow(`SELECT status, attempts FROM jobs WHERE type = ?`, typ).Scan(&status, &attempts)
	require.NoError(t, err)
	return status, attempts
}

// resetRunAfter makes a backed-off job claimable again.
func resetRunAfter(t *testing.T, store *storage.Store) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := store.DB().Exec(`UPDATE jobs SET run_after = ?`, now)
	require.NoError(t, err)
}

func newTestWorker(store *storage.Store, r Reporter) *Worker {
	st := settings.Defaults()
	st.Goal = settings.GoalBusiness
	st.StrategicPriority = "ship v2"
	return NewWorker(store, fixedSettings{st}, r, Config{PollInterval: 10 * time.Millisecond, Location: time.UTC})
}

func TestReportKey(t *testing.T) {
	assert.Equal(t, "D_2026-03-04", ReportKey(timecalc.PeriodDay, "2026-03-04"))
	p := ReportPayload{Period: timecalc.PeriodQuarter, Date: "2026-01-01"}
	assert.Equal(t, "3M_2026-01-01", p.Key())
}

func TestEnqueueReport_Dedupes(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	added, err := EnqueueReport(ctx, store, timecalc.PeriodDay, "2026-03-04")
	require.NoError(t, err)
	require.True(t, added, "first enqueue")
	added, err = EnqueueReport(ctx, store, timecalc.PeriodDay, "2026-03-04")
	require.NoError(t, err)
	require.False(t, added, "duplicate enqueue")
	added, err = EnqueueReport(ctx, store, timecalc.PeriodWeek, "2026-03-04")
	require.NoError(t, err)
	require.True(t, added, "weekly enqueue")

	counts, err := store.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[storage.JobPending])
}

func TestWorker_ProcessesJob(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	logEntry(t, store, "e1", day.Add(9*time.Hour), journal.OutcomeWin)
	logEntry(t, store, "e2", day.Add(10*time.Hour), journal.OutcomeLoss)
	logEntry(t, store, "other-day", day.Add(30*time.Hour), journal.OutcomeWin)

	_, err := EnqueueReport(ctx, store, timecalc.PeriodDay, "2026-03-04")
	require.NoError(t, err)

	rep := &mockReporter{}
	w := newTestWorker(store, rep)
	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	r, err := store.GetReport(ctx, "D_2026-03-04")
	require.NoError(t, err)
	assert.Equal(t, "full report", r.Content)
	assert.Equal(t, "Report Ready: solid day.", r.Summary)
	assert.Equal(t, 2, r.EntryCount)
	assert.False(t, r.Read, "new report should be unread")

	require.Len(t, rep.requests, 2)
	full, brief := rep.requests[0], rep.requests[1]
	assert.False(t, full.Brief)
	assert.True(t, brief.Brief)
	assert.Equal(t, settings.GoalBusiness, full.Goal)
	assert.Equal(t, "ship v2", full.Priority)
	assert.Len(t, full.Entries, 2)

	status, _ := jobStatus(t, store, JobReportGenerate)
	assert.Equal(t, storage.JobCompleted, status)

	processed, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, processed, "RunOnce on empty queue")
}

func TestWorker_BriefFailureUsesPlaceholder(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	logEntry(t, store, "e1", time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), journal.OutcomeWin)
	_, err := EnqueueReport(ctx, store, timecalc.PeriodDay, "2026-03-04")
	require.NoError(t, err)

	rep := &mockReporter{reportFn: func(req coach.Request) (string, error) {
		if req.Brief {
			return "", errors.New("model busy")
		}
		return "full report", nil
	}}
	_, err = newTestWorker(store, rep).RunOnce(ctx)
	require.NoError(t, err)

	r, err := store.GetReport(ctx, "D_2026-03-04")
	require.NoError(t, err)
	assert.Equal(t, "Report Ready: your Day report is in.", r.Summary)
}

func TestWorker_RetryOnFailure(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	logEntry(t, store, "e1", time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), journal.OutcomeWin)
	_, err := EnqueueReport(ctx, store, timecalc.PeriodDay, "2026-03-04")
	require.NoError(t, err)

	var calls atomic.Int32
	rep := &mockReporter{reportFn: func(req coach.Request) (string, error) {
		if !req.Brief && calls.Add(1) == 1 {
			return "", fmt.Errorf("ollama down")
		}
		return "ok", nil
	}}
	w := newTestWorker(store, rep)

	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)
	status, attempts := jobStatus(t, store, JobReportGenerate)
	require.Equal(t, storage.JobPending, status)
	require.Equal(t, 1, attempts)
	_, err = store.GetReport(ctx, "D_2026-03-04")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Backoff pushed run_after into the future.
	processed, _ = w.RunOnce(ctx)
	require.False(t, processed, "job claimed before its backoff elapsed")

	resetRunAfter(t, store)
	processed, err = w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)
	status, _ = jobStatus(t, store, JobReportGenerate)
	assert.Equal(t, storage.JobCompleted, status)
}

func TestWorker_MaxRetriesExceeded(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	logEntry(t, store, "e1", time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), journal.OutcomeWin)
	_, err := EnqueueReport(ctx, store, timecalc.PeriodDay, "2026-03-04")
	require.NoError(t, err)

	rep := &mockReporter{reportFn: func(coach.Request) (string, error) {
		return "", errors.New("permanent failure")
	}}
	w := newTestWorker(store, rep)

	for i := 0; i < 3; i++ {
		resetRunAfter(t, store)
		_, err := w.RunOnce(ctx)
		require.NoError(t, err, "RunOnce %d", i)
	}

	status, attempts := jobStatus(t, store, JobReportGenerate)
	assert.Equal(t, storage.JobFailed, status)
	assert.Equal(t, 3, attempts)
	resetRunAfter(t, store)
	processed, _ := w.RunOnce(ctx)
	assert.False(t, processed, "failed job was claimed again")
}

func TestWorker_BadPayloadFails(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	job := storage.Job{ID: "bad", Type: JobReportGenerate, PayloadJSON: `{"period":"X","date":"2026-03-04"}`, MaxAttempts: 1}
	require.NoError(t, store.EnqueueJob(ctx, job))

	rep := &mockReporter{}
	_, err := newTestWorker(store, rep).RunOnce(ctx)
	require.NoError(t, err)
	status, _ := jobStatus(t, store, JobReportGenerate)
	assert.Equal(t, storage.JobFailed, status)
	assert.Empty(t, rep.requests, "reporter called for an invalid period")
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	store := openTestStore(t)
	w := newTestWorker(store, &mockReporter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
