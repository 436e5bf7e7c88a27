// Package score computes the Focus Score, its daily history, streaks and
// rank progression from snapshots of journal entries.
package score

import (
	"math"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// Component ceilings.
const (
	WinWeight         = 40
	MakerWeight       = 25
	ConsistencyCap    = 20
	ConsistencyFactor = 1.25
	StreakCap         = 15

	DefaultHistoryDays = 14
)

// Breakdown is the labelled composition of a Focus Score.
type Breakdown struct {
	WinRate     int `json:"win_rate"`
	MakerRatio  int `json:"maker_ratio"`
	Consistency int `json:"consistency"`
	StreakBonus int `json:"streak_bonus"`
	Total       int `json:"total"`
}

// DayScore is one point of the historical series.
type DayScore struct {
	Date      string     `json:"date"`
	Score     int        `json:"score"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
}

// FocusScore scores a slice of entries. The total is the plain sum of the
// four rounded components and is not clamped. schedule is accepted for
// callers that have one but does not affect the result.
func FocusScore(entries []journal.Entry, streakDays int, schedule *journal.Schedule) (int, Breakdown) {
	tally := journal.Count(entries)
	total := tally.Decided()

	var b Breakdown
	if total > 0 {
		b.WinRate = round(float64(tally.Wins) / float64(total) * WinWeight)

		leverage := 0
		for _, e := range entries {
			if e.Category.IsLeverage() {
				leverage++
			}
		}
		b.MakerRatio = round(float64(leverage) / float64(total) * MakerWeight)
	}

	b.Consistency = min(ConsistencyCap, round(float64(total)*ConsistencyFactor))
	b.StreakBonus = min(StreakCap, max(0, streakDays))
	b.Total = b.WinRate + b.MakerRatio + b.Consistency + b.StreakBonus
	return b.Total, b
}

// HistoricalScores returns one DayScore per calendar day for the last days
// days ending on now's date, oldest first. Days are cut in now's location.
// Past streaks are not reconstructed: every day is scored with a streak of 0.
func HistoricalScores(entries []journal.Entry, days int, now time.Time) []DayScore {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	loc := now.Location()
	byDay := groupByDay(entries, loc)

	today := timecalc.StartOfDay(now)
	out := make([]DayScore, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := time.Date(today.Year(), today.Month(), today.Day()-i, 0, 0, 0, 0, loc)
		key := timecalc.DateKey(day)
		s, b := FocusScore(byDay[key], 0, nil)
		out = append(out, DayScore{Date: key, Score: s, Breakdown: &b})
	}
	return out
}

func groupByDay(entries []journal.Entry, loc *time.Location) map[string][]journal.Entry {
	byDay := make(map[string][]journal.Entry)
	for _, e := range entries {
		key := timecalc.DateKey(e.Timestamp.In(loc))
		byDay[key] = append(byDay[key], e)
	}
	return byDay
}

// round matches half-away-from-zero rounding used for every displayed figure.
func round(f float64) int {
	return int(math.Round(f))
}
