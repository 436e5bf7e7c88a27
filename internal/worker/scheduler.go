package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/quarterlog/internal/storage"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

const (
	defaultCheckInterval = time.Minute
	// failedRetryAfter is how long the scheduler leaves a report alone after
	// its job failed for good. Manual requests are not held back.
	failedRetryAfter = 6 * time.Hour
)

// ScheduleStore is the slice of storage.Store the Scheduler needs.
type ScheduleStore interface {
	Queue
	GetReport(ctx context.Context, key string) (storage.Report, error)
	FailedJobSince(ctx context.Context, typ, payloadJSON string, since time.Time) (bool, error)
}

// Scheduler makes sure yesterday's daily report, and on Mondays last week's
// weekly report, exist or are queued.
type Scheduler struct {
	store      ScheduleStore
	interval   time.Duration
	retryAfter time.Duration
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// NewScheduler checks every interval (a minute when <= 0). A nil loc means
// time.Local.
func NewScheduler(store ScheduleStore, interval time.Duration, loc *time.Location) *Scheduler {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		store:      store,
		interval:   interval,
		retryAfter: failedRetryAfter,
		loc:        loc,
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// Run checks once immediately and then every interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if _, err := s.CheckOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("report scheduler check failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// due lists the reports that should exist at now.
func (s *Scheduler) due(now time.Time) []ReportPayload {
	today := timecalc.StartOfDay(now.In(s.loc))
	yesterday := today.AddDate(0, 0, -1)
	out := []ReportPayload{{Period: timecalc.PeriodDay, Date: timecalc.DateKey(yesterday)}}
	if today.Weekday() == time.Monday {
		out = append(out, ReportPayload{Period: timecalc.PeriodWeek, Date: timecalc.DateKey(today.AddDate(0, 0, -7))})
	}
	return out
}

// CheckOnce queues whatever is due and missing, and returns the keys it
// queued. A report whose job failed within retryAfter is skipped.
func (s *Scheduler) CheckOnce(ctx context.Context) ([]string, error) {
	var queued []string
	now := s.now()
	for _, p := range s.due(now) {
		_, err := s.store.GetReport(ctx, p.Key())
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return queued, fmt.Errorf("looking up report %s: %w", p.Key(), err)
		}
		payload, err := p.JSON()
		if err != nil {
			return queued, err
		}
		failed, err := s.store.FailedJobSince(ctx, JobReportGenerate, payload, now.Add(-s.retryAfter))
		if err != nil {
			return queued, fmt.Errorf("checking failed jobs for %s: %w", p.Key(), err)
		}
		if failed {
			s.logger.Debug("report failed recently, not requeueing", "key", p.Key())
			continue
		}
		added, err := EnqueueReport(ctx, s.store, p.Period, p.Date)
		if err != nil {
			return queued, err
		}
		if added {
			s.logger.Info("report queued", "key", p.Key())
			queued = append(queued, p.Key())
		}
	}
	return queued, nil
}
