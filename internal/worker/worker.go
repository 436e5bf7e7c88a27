// Package worker runs background jobs from the SQLite queue and schedules
// the daily and weekly coach reports.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/quarterlog/internal/coach"
	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/metrics"
	"github.com/kalambet/quarterlog/internal/settings"
	"github.com/kalambet/quarterlog/internal/storage"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

const defaultPoll = 500 * time.Millisecond

// JobStore is the slice of storage.Store the Worker needs.
type JobStore interface {
	ClaimNextJob(ctx context.Context, types []string) (*storage.Job, error)
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id string, errMsg string) error
	ListEntries(ctx context.Context, from, to time.Time) ([]journal.Entry, error)
	SaveReport(ctx context.Context, r storage.Report) error
}

// SettingsSource provides the goal, persona and schedule for prompts.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Reporter writes report text. Implemented by *coach.Coach.
type Reporter interface {
	Report(ctx context.Context, req coach.Request) (string, error)
}

type Config struct {
	// PollInterval defaults to 500ms.
	PollInterval time.Duration
	// Location decides period boundaries; nil means time.Local.
	Location *time.Location
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Worker processes report_generate jobs one at a time.
type Worker struct {
	store    JobStore
	settings SettingsSource
	reporter Reporter
	poll     time.Duration
	loc      *time.Location
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewWorker(store JobStore, s SettingsSource, r Reporter, cfg Config) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPoll
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Worker{
		store:    store,
		settings: s,
		reporter: r,
		poll:     cfg.PollInterval,
		loc:      cfg.Location,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single job. It returns true when a job was
// claimed, whether or not it succeeded.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob(ctx, []string{JobReportGenerate})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	err = w.process(ctx, job)
	w.metrics.JobProcessed(job.Type, err)
	if err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "type", job.Type, "attempt", job.Attempts+1, "error", err)
		if failErr := w.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) process(ctx context.Context, job *storage.Job) error {
	var p ReportPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	err := w.generate(ctx, p)
	w.metrics.ReportGenerated(string(p.Period), err)
	return err
}

func (w *Worker) generate(ctx context.Context, p ReportPayload) error {
	period, err := timecalc.ParsePeriod(string(p.Period))
	if err != nil {
		return err
	}
	date, err := timecalc.ParseDateKey(p.Date, w.loc)
	if err != nil {
		return err
	}

	from, to := period.Range(date)
	entries, err := w.store.ListEntries(ctx, from, to)
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}
	st, err := w.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	req := coach.Request{
		Entries:  entries,
		Period:   period,
		Goal:     st.Goal,
		Tone:     st.Persona,
		Priority: st.StrategicPriority,
		Schedule: st.Schedule,
		Location: w.loc,
	}
	content, err := w.reporter.Report(ctx, req)
	if err != nil {
		return err
	}

	req.Brief = true
	summary, err := w.reporter.Report(ctx, req)
	if err != nil {
		w.logger.Warn("brief summary failed, using placeholder", "key", p.Key(), "error", err)
		summary = fmt.Sprintf("%s your %s report is in.", coach.BriefPrefix, period.Label())
	}

	key := ReportKey(period, p.Date)
	err = w.store.SaveReport(ctx, storage.Report{
		ID:         uuid.NewString(),
		Key:        key,
		Period:     string(period),
		DateKey:    p.Date,
		Content:    content,
		Summary:    summary,
		EntryCount: len(entries),
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("saving report %s: %w", key, err)
	}
	w.logger.Info("report generated", "key", key, "entries", len(entries))
	return nil
}
