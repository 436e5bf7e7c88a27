package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/quarterlog/internal/adherence"
	"github.com/kalambet/quarterlog/internal/classify"
	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/metrics"
	"github.com/kalambet/quarterlog/internal/pattern"
	"github.com/kalambet/quarterlog/internal/score"
	"github.com/kalambet/quarterlog/internal/settings"
	"github.com/kalambet/quarterlog/internal/storage"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// ErrInvalid marks caller mistakes; the HTTP layer maps it to 400.
var ErrInvalid = errors.New("invalid request")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// ServiceConfig tunes the dashboard computations.
type ServiceConfig struct {
	Location    *time.Location
	HistoryDays int
	MaxInsights int
	Thresholds  pattern.Thresholds
	Metrics     *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service is the shared core behind the HTTP API and the MCP tools: it logs
// entries and runs the score, pattern and adherence engines over the store.
type Service struct {
	store      *storage.Store
	settings   *settings.Manager
	classifier *classify.Classifier
	insights   *pattern.Engine
	cfg        ServiceConfig
}

func NewService(store *storage.Store, sm *settings.Manager, c *classify.Classifier, cfg ServiceConfig) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = score.DefaultHistoryDays
	}
	if cfg.MaxInsights <= 0 {
		cfg.MaxInsights = pattern.DefaultMax
	}
	if cfg.Thresholds == (pattern.Thresholds{}) {
		cfg.Thresholds = pattern.DefaultThresholds()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:      store,
		settings:   sm,
		classifier: c,
		insights:   pattern.New(cfg.Thresholds, cfg.Location),
		cfg:        cfg,
	}
}

func (s *Service) now() time.Time {
	return s.cfg.Now().In(s.cfg.Location)
}

// Location is the zone used for every day boundary.
func (s *Service) Location() *time.Location {
	return s.cfg.Location
}

// LogRequest is a new journal entry as submitted by a client. Outcome and
// Category are optional overrides of the classifier.
type LogRequest struct {
	Text            string     `json:"text"`
	Outcome         string     `json:"type,omitempty"`
	Category        string     `json:"category,omitempty"`
	Timestamp       *time.Time `json:"timestamp,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Source          string     `json:"-"`
}

// LogEntry classifies and stores one entry.
func (s *Service) LogEntry(ctx context.Context, req LogRequest) (journal.Entry, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return journal.Entry{}, invalidf("text is required")
	}
	if req.DurationMinutes < 0 {
		return journal.Entry{}, invalidf("duration_minutes must not be negative")
	}

	var outcome journal.Outcome
	if req.Outcome != "" {
		outcome = journal.ParseOutcome(req.Outcome)
		if outcome == journal.OutcomeUnknown {
			return journal.Entry{}, invalidf("unknown type %q (want WIN, LOSS or DRAW)", req.Outcome)
		}
	}
	var category journal.Category
	if req.Category != "" {
		category = journal.ParseCategory(req.Category)
	}

	ts := s.now()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		ts = *req.Timestamp
	}

	st, err := s.settings.Get(ctx)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("loading settings: %w", err)
	}
	res := s.classifier.Resolve(ctx, text, st.StrategicPriority, outcome, category)

	e := journal.Entry{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Text:      text,
		Outcome:   res.Outcome,
		Category:  res.Category,
		Duration:  time.Duration(req.DurationMinutes) * time.Minute,
		Feedback:  res.Feedback,
		Source:    req.Source,
	}
	if err := s.store.SaveEntry(ctx, e); err != nil {
		return journal.Entry{}, fmt.Errorf("saving entry: %w", err)
	}
	s.cfg.Metrics.EntryLogged(string(e.Outcome), string(e.Category))
	return e, nil
}

// Window resolves period and date query values. An empty date is today.
func (s *Service) Window(period, date string) (timecalc.Period, time.Time, error) {
	p, err := timecalc.ParsePeriod(period)
	if err != nil {
		return "", time.Time{}, invalidf("%v", err)
	}
	day, err := s.Day(date)
	if err != nil {
		return "", time.Time{}, err
	}
	return p, day, nil
}

// Day parses a YYYY-MM-DD date in the service location; empty means today.
func (s *Service) Day(date string) (time.Time, error) {
	if date == "" {
		return timecalc.StartOfDay(s.now()), nil
	}
	d, err := timecalc.ParseDateKey(date, s.cfg.Location)
	if err != nil {
		return time.Time{}, invalidf("%v", err)
	}
	return d, nil
}

// Entries lists the entries of period around day, oldest first.
func (s *Service) Entries(ctx context.Context, period timecalc.Period, day time.Time) ([]journal.Entry, error) {
	from, to := period.Range(day)
	entries, err := s.store.ListEntries(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return entries, nil
}

// Streak is the current run of days with at least one WIN.
func (s *Service) Streak(ctx context.Context) (int, error) {
	all, err := s.store.ListEntries(ctx, time.Time{}, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("listing entries: %w", err)
	}
	return score.CurrentStreak(all, s.now()), nil
}

// ScoreView is the dashboard header for one period.
type ScoreView struct {
	Period    timecalc.Period `json:"period"`
	Date      string          `json:"date"`
	Score     int             `json:"score"`
	Breakdown score.Breakdown `json:"breakdown"`
	Streak    int             `json:"streak"`
	Tally     journal.Tally   `json:"tally"`
	Rank      score.Progress  `json:"rank"`
}

func (s *Service) Score(ctx context.Context, period timecalc.Period, day time.Time) (ScoreView, error) {
	entries, err := s.Entries(ctx, period, day)
	if err != nil {
		return ScoreView{}, err
	}
	streak, err := s.Streak(ctx)
	if err != nil {
		return ScoreView{}, err
	}
	sched, err := s.settings.Schedule(ctx)
	if err != nil {
		return ScoreView{}, err
	}

	total, b := score.FocusScore(entries, streak, &sched)
	tally := journal.Count(entries)
	return ScoreView{
		Period:    period,
		Date:      timecalc.DateKey(day),
		Score:     total,
		Breakdown: b,
		Streak:    streak,
		Tally:     tally,
		Rank:      score.RankFor(tally.Wins, period),
	}, nil
}

// History returns one DayScore per day for the last days days (the
// configured default when days <= 0).
func (s *Service) History(ctx context.Context, days int) ([]score.DayScore, error) {
	if days <= 0 {
		days = s.cfg.HistoryDays
	}
	now := s.now()
	from := timecalc.StartOfDay(now).AddDate(0, 0, -(days - 1))
	entries, err := s.store.ListEntries(ctx, from, timecalc.NextDay(now))
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return score.HistoricalScores(entries, days, now), nil
}

// Rank reports progress on the rank ladder for period around day.
func (s *Service) Rank(ctx context.Context, period timecalc.Period, day time.Time) (score.Progress, error) {
	entries, err := s.Entries(ctx, period, day)
	if err != nil {
		return score.Progress{}, err
	}
	return score.RankFor(journal.Count(entries).Wins, period), nil
}

// InsightsView carries the insights plus what the UI needs for the
// "N more entries to unlock" hint.
type InsightsView struct {
	Insights     []pattern.Insight `json:"insights"`
	MinEntries   int               `json:"min_entries"`
	TotalEntries int               `json:"total_entries"`
}

func (s *Service) Insights(ctx context.Context, limit int) (InsightsView, error) {
	if limit <= 0 {
		limit = s.cfg.MaxInsights
	}
	all, err := s.store.ListEntries(ctx, time.Time{}, time.Time{})
	if err != nil {
		return InsightsView{}, fmt.Errorf("listing entries: %w", err)
	}
	return InsightsView{
		Insights:     s.insights.Generate(all, limit),
		MinEntries:   s.cfg.Thresholds.MinEntries,
		TotalEntries: len(all),
	}, nil
}

// Debrief builds the weekly debrief for the week containing day.
func (s *Service) Debrief(ctx context.Context, day time.Time) (score.Debrief, error) {
	entries, err := s.Entries(ctx, timecalc.PeriodWeek, day)
	if err != nil {
		return score.Debrief{}, err
	}
	streak, err := s.Streak(ctx)
	if err != nil {
		return score.Debrief{}, err
	}
	sched, err := s.settings.Schedule(ctx)
	if err != nil {
		return score.Debrief{}, err
	}
	return score.WeeklyDebrief(entries, day, streak, &sched), nil
}

// Adherence compares the stored plan for day with its entries. A day with
// no plan reports every slot as idle or unplanned.
func (s *Service) Adherence(ctx context.Context, day time.Time) (adherence.Report, error) {
	plan, err := s.store.GetDayPlan(ctx, timecalc.DateKey(day))
	var planPtr *journal.DayPlan
	switch {
	case err == nil:
		planPtr = &plan
	case !errors.Is(err, storage.ErrNotFound):
		return adherence.Report{}, fmt.Errorf("loading plan: %w", err)
	}

	sched, err := s.settings.Schedule(ctx)
	if err != nil {
		return adherence.Report{}, err
	}
	// Overnight windows spill into the next calendar day.
	entries, err := s.store.ListEntries(ctx, day, day.AddDate(0, 0, 2))
	if err != nil {
		return adherence.Report{}, fmt.Errorf("listing entries: %w", err)
	}
	return adherence.Calculate(sched, planPtr, entries, day, s.now()), nil
}
