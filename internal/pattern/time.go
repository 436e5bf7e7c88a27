package pattern

import (
	"fmt"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// TimePatterns compares win rates across hours of the day and days of the week.
func (e *Engine) TimePatterns(entries []journal.Entry) []Insight {
	if len(entries) < e.th.MinEntries {
		return nil
	}

	hours := make([]bucket, 24)
	days := make([]bucket, 7)
	for i := range hours {
		hours[i].key = i
	}
	for i := range days {
		days[i].key = i
	}
	for _, en := range entries {
		ts := en.Timestamp.In(e.loc)
		hours[ts.Hour()].add(en.Outcome)
		days[int(ts.Weekday())].add(en.Outcome)
	}

	var out []Insight

	if best, worst, n := extremes(hours, e.th.MinBucketSize); n >= 2 {
		gap := best.tally.WinRate() - worst.tally.WinRate()
		if gap > e.th.RateGap {
			out = append(out, Insight{
				ID:   IDPeakHour,
				Icon: "⏰",
				Headline: fmt.Sprintf("Peak performance: %s-%s",
					timecalc.HourLabel(best.key), timecalc.HourLabel((best.key+1)%24)),
				Detail: fmt.Sprintf("%d%% win rate (%d entries). Worst: %s at %d%%.",
					pct(best.tally.WinRate()), best.total, timecalc.HourLabel(worst.key), pct(worst.tally.WinRate())),
				Severity: SeverityPositive,
				Score:    gap * 100,
			})
		}
	}

	if best, worst, n := extremes(days, e.th.MinBucketSize); n >= 2 {
		gap := best.tally.WinRate() - worst.tally.WinRate()
		if gap > e.th.RateGap {
			sev := SeverityInfo
			if best.tally.WinRate() > 0.7 {
				sev = SeverityPositive
			}
			out = append(out, Insight{
				ID:       IDDayPattern,
				Icon:     "📅",
				Headline: fmt.Sprintf("%ss are your strongest day", weekdayName(best.key)),
				Detail: fmt.Sprintf("%d%% win rate vs %ss at %d%%.",
					pct(best.tally.WinRate()), weekdayName(worst.key), pct(worst.tally.WinRate())),
				Severity: sev,
				Score:    gap * 80,
			})
		}
	}

	return out
}
