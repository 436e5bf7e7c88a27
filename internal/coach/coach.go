// Package coach writes the periodic review of a journal with a local model.
package coach

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/metrics"
	"github.com/kalambet/quarterlog/internal/ollama"
	"github.com/kalambet/quarterlog/internal/settings"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// NoData is the report for a period without entries. The model is not asked.
const NoData = "No data: no activity logs found for this period."

// BriefPrefix starts every brief report.
const BriefPrefix = "Report Ready:"

const (
	DefaultTimeout = 2 * time.Minute
	maxWords       = 250
)

var ErrUnavailable = errors.New("coach: no model configured")

// Chatter is the model call the Coach needs. Implemented by *ollama.Client.
type Chatter interface {
	ChatWithOptions(ctx context.Context, model string, messages []ollama.Message, schema *ollama.Schema, opts *ollama.Options) (string, error)
}

// Request describes one report.
type Request struct {
	Entries  []journal.Entry
	Period   timecalc.Period
	Goal     settings.Goal
	Tone     settings.Tone
	Priority string
	Schedule journal.Schedule
	Brief    bool
	// Location renders entry times; nil means time.Local.
	Location *time.Location
}

type Coach struct {
	client  Chatter
	model   string
	timeout time.Duration
	metrics *metrics.Metrics
}

func New(client Chatter, model string, timeout time.Duration, m *metrics.Metrics) *Coach {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coach{client: client, model: model, timeout: timeout, metrics: m}
}

// Report returns the full or brief review for req.
func (c *Coach) Report(ctx context.Context, req Request) (string, error) {
	if len(req.Entries) == 0 {
		return NoData, nil
	}
	if c == nil || c.client == nil {
		return "", ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	kind := "report"
	opts := &ollama.Options{Temperature: 0.7}
	if req.Brief {
		kind = "brief"
		opts.NumPredict = 60
	}

	start := time.Now()
	out, err := c.client.ChatWithOptions(ctx, c.model, BuildPrompt(req), nil, opts)
	c.metrics.ObserveAI(kind, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", kind, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("generating %s: empty response", kind)
	}
	if req.Brief {
		return normalizeBrief(out), nil
	}
	return out, nil
}

// BuildPrompt renders req as a system persona plus one user message.
func BuildPrompt(req Request) []ollama.Message {
	p := personaFor(req.Goal, req.Tone)
	goal := req.Goal
	if goal == "" {
		goal = settings.GoalFocus
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze these logs for a %s.\n", req.Period.Label())
	fmt.Fprintf(&sb, "GOAL: %s\n", goal)
	fmt.Fprintf(&sb, "TONE: %s\n", p.tone)
	fmt.Fprintf(&sb, "SCHEDULE: %s\n", scheduleLine(req.Schedule))
	if pr := strings.TrimSpace(req.Priority); pr != "" {
		fmt.Fprintf(&sb, "STRATEGIC PRIORITY: %s\n", pr)
	}
	sb.WriteString("\nLOGS:\n")
	sb.WriteString(formatEntries(req.Entries, req.Location))
	sb.WriteString("\n\nTASK:\n")
	if req.Brief {
		sb.WriteString(`Write a single, 1-sentence notification summary (max 15 words).
Start with "Report Ready:" and then give a punchy summary of how they did.
Example: "Report Ready: You wasted 3 hours on social media today."`)
	} else {
		fmt.Fprintf(&sb, `Provide a high-impact report (max %d words).

STRUCTURE (Use Markdown):
1. **Score**: (0-100)
2. ### The Good
   - (Bullet point big win)
3. ### The Bad
   - (Bullet point main waste/risk)
4. ### Action Plan
   - (One concrete advice)

Use **Bold** for emphasis and ### for section headers.`, maxWords)
	}

	return []ollama.Message{
		{Role: "system", Content: p.role},
		{Role: "user", Content: sb.String()},
	}
}

// formatEntries lists entries oldest first as "[HH:MM] [OUTCOME] [CATEGORY] text".
func formatEntries(entries []journal.Entry, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	sorted := make([]journal.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	lines := make([]string, len(sorted))
	for i, e := range sorted {
		lines[i] = fmt.Sprintf("[%s] [%s] [%s] %s", e.Timestamp.In(loc).Format("15:04"), e.Outcome, e.Category, e.Text)
	}
	return strings.Join(lines, "\n")
}

func scheduleLine(s journal.Schedule) string {
	if !s.Enabled {
		return "Flexible/24-7."
	}
	days := make([]string, len(s.Days))
	for i, d := range s.Days {
		days[i] = d.String()[:3]
	}
	return fmt.Sprintf("Working Hours: %s to %s. Active Days: %s.", s.Start, s.End, strings.Join(days, ","))
}

// normalizeBrief keeps the first line, strips quotes and guarantees the prefix.
func normalizeBrief(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, `"`)
	if !strings.HasPrefix(s, BriefPrefix) {
		s = BriefPrefix + " " + s
	}
	return s
}
