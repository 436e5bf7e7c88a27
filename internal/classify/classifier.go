// Package classify assigns a category, an outcome and a line of feedback to
// a free-text log entry, using a local model when one is available and a
// keyword table otherwise.
package classify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/metrics"
	"github.com/kalambet/quarterlog/internal/ollama"
)

// Where a Result came from.
const (
	SourceAI        = "ai"
	SourceHeuristic = "heuristic"
	SourceFallback  = "fallback"
	SourceExplicit  = "explicit"
)

const (
	DefaultTimeout           = 5 * time.Second
	DefaultRequestsPerMinute = 12
)

// Chatter is the model call the Classifier needs. Implemented by *ollama.Client.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error)
}

type Result struct {
	Category journal.Category `json:"category"`
	Outcome  journal.Outcome  `json:"type"`
	Feedback string           `json:"feedback"`
	Source   string           `json:"source"`
}

type Options struct {
	Model             string
	Enabled           bool
	Timeout           time.Duration
	RequestsPerMinute int
	Metrics           *metrics.Metrics
}

// Classifier is safe for concurrent use.
type Classifier struct {
	client  Chatter
	model   string
	enabled bool
	timeout time.Duration
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// New creates a Classifier. A nil client or disabled Options give a
// heuristic-only classifier.
func New(client Chatter, opts Options) *Classifier {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	return &Classifier{
		client:  client,
		model:   opts.Model,
		enabled: opts.Enabled && client != nil,
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.RequestsPerMinute),
		metrics: opts.Metrics,
	}
}

// Classify never fails: any model problem falls back to Heuristic.
func (c *Classifier) Classify(ctx context.Context, text, priority string) Result {
	if !c.enabled || strings.TrimSpace(text) == "" {
		c.metrics.Classified(SourceHeuristic)
		return Heuristic(text)
	}

	r, err := c.ask(ctx, text, priority)
	if err != nil {
		slog.Warn("entry classification failed, using keywords", "error", err)
		c.metrics.Classified(SourceFallback)
		fb := Heuristic(text)
		fb.Source = SourceFallback
		return fb
	}
	c.metrics.Classified(SourceAI)
	return r
}

func (c *Classifier) ask(ctx context.Context, text, priority string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	start := time.Now()
	raw, err := c.client.Chat(ctx, c.model, BuildPrompt(text, priority), resultSchema())
	c.metrics.ObserveAI("classify", time.Since(start))
	if err != nil {
		return Result{}, err
	}

	var out struct {
		Category string `json:"category"`
		Type     string `json:"type"`
		Feedback string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Debug("unparseable classification", "response", raw)
		return Result{}, err
	}

	r := Result{
		Category: journal.ParseCategory(out.Category),
		Outcome:  journal.ParseOutcome(out.Type),
		Feedback: strings.TrimSpace(out.Feedback),
		Source:   SourceAI,
	}
	if r.Outcome == journal.OutcomeUnknown {
		r.Outcome = journal.OutcomeWin
	}
	if r.Feedback == "" {
		r.Feedback = DefaultFeedback
	}
	return r, nil
}

// Resolve classifies text, then lets an explicitly supplied outcome or
// category override the answer. With both supplied the model is not asked.
func (c *Classifier) Resolve(ctx context.Context, text, priority string, outcome journal.Outcome, category journal.Category) Result {
	if outcome != "" && outcome != journal.OutcomeUnknown && category != "" {
		c.metrics.Classified(SourceExplicit)
		return Result{Category: category, Outcome: outcome, Feedback: DefaultFeedback, Source: SourceExplicit}
	}
	r := c.Classify(ctx, text, priority)
	if outcome != "" && outcome != journal.OutcomeUnknown {
		r.Outcome = outcome
	}
	if category != "" {
		r.Category = category
	}
	return r
}
