package score

import (
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// CurrentStreak counts consecutive calendar days with at least one WIN,
// ending today. A today without a WIN yet does not break the run: counting
// then starts from yesterday.
func CurrentStreak(entries []journal.Entry, now time.Time) int {
	loc := now.Location()
	won := make(map[string]bool)
	for _, e := range entries {
		if e.Outcome == journal.OutcomeWin {
			won[timecalc.DateKey(e.Timestamp.In(loc))] = true
		}
	}

	day := timecalc.StartOfDay(now)
	if !won[timecalc.DateKey(day)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for won[timecalc.DateKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
