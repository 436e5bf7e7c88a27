// Package pattern mines a journal for statistically notable habits: strong
// and weak hours or weekdays, category imbalance, BURN clustering, the
// effect of self-care on the following day, loss spirals and AM/PM splits.
package pattern

import (
	"sort"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
)

// MinEntries is how many entries a journal needs before any insight shows.
const MinEntries = 20

// DefaultMax is the number of insights returned when the caller passes 0.
const DefaultMax = 5

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityPositive Severity = "positive"
)

// Stable detector ids.
const (
	IDPeakHour         = "peak-hour"
	IDDayPattern       = "day-pattern"
	IDDominantCategory = "dominant-category"
	IDBurnCluster      = "burn-cluster"
	IDFuelCorrelation  = "fuel-correlation"
	IDLossSpiral       = "loss-spiral"
	IDAMPMSplit        = "am-pm-split"
)

// Insight is one ranked observation. Score only orders insights and is not
// part of the serialized form.
type Insight struct {
	ID       string   `json:"id"`
	Icon     string   `json:"icon"`
	Headline string   `json:"headline"`
	Detail   string   `json:"detail"`
	Severity Severity `json:"severity"`
	Score    float64  `json:"-"`
}

// Thresholds are the sample-size and effect-size gates of every detector.
type Thresholds struct {
	MinEntries         int
	MinBucketSize      int
	MinHalfSize        int
	MinCorrelationDays int
	MinNextDayEntries  int
	LossSpiralRun      int
	BurnClusterMin     int

	RateGap       float64
	DominantShare float64
	SelfCareLift  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinEntries:         MinEntries,
		MinBucketSize:      3,
		MinHalfSize:        5,
		MinCorrelationDays: 3,
		MinNextDayEntries:  2,
		LossSpiralRun:      3,
		BurnClusterMin:     3,
		RateGap:            0.15,
		DominantShare:      0.40,
		SelfCareLift:       0.10,
	}
}

// Engine runs the detectors. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	th  Thresholds
	loc *time.Location
}

// New creates an Engine. Hours, weekdays and dates are taken in loc; a nil
// loc means time.Local.
func New(th Thresholds, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{th: th, loc: loc}
}

// Generate returns at most limit insights (DefaultMax when limit <= 0),
// highest score first. Fewer than MinEntries entries yield none.
func Generate(entries []journal.Entry, limit int) []Insight {
	return New(DefaultThresholds(), time.Local).Generate(entries, limit)
}

func (e *Engine) Generate(entries []journal.Entry, limit int) []Insight {
	if limit <= 0 {
		limit = DefaultMax
	}
	if len(entries) < e.th.MinEntries {
		return []Insight{}
	}

	var all []Insight
	all = append(all, e.TimePatterns(entries)...)
	all = append(all, e.CategoryCorrelations(entries)...)
	all = append(all, e.StreakFactors(entries)...)

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []Insight{}
	}
	return all
}

// bucket accumulates outcomes for one key.
type bucket struct {
	key   int
	total int
	tally journal.Tally
}

func (b *bucket) add(o journal.Outcome) {
	b.total++
	switch o {
	case journal.OutcomeWin:
		b.tally.Wins++
	case journal.OutcomeLoss:
		b.tally.Losses++
	case journal.OutcomeDraw:
		b.tally.Draws++
	}
}

// extremes returns the best and worst qualifying buckets. Buckets smaller
// than minSize or with nothing decided are skipped; ties go to the lower key.
func extremes(buckets []bucket, minSize int) (best, worst bucket, n int) {
	for _, b := range buckets {
		if b.total < minSize || b.tally.Decided() == 0 {
			continue
		}
		if n == 0 {
			best, worst = b, b
		} else {
			if b.tally.WinRate() > best.tally.WinRate() {
				best = b
			}
			if b.tally.WinRate() < worst.tally.WinRate() {
				worst = b
			}
		}
		n++
	}
	return best, worst, n
}

func pct(f float64) int {
	return int(f*100 + 0.5)
}
