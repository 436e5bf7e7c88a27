package pattern

import (
	"fmt"
	"math"
	"sort"

	"github.com/kalambet/quarterlog/internal/journal"
)

// StreakFactors finds loss spirals and a morning/afternoon imbalance.
func (e *Engine) StreakFactors(entries []journal.Entry) []Insight {
	if len(entries) < e.th.MinEntries {
		return nil
	}

	sorted := make([]journal.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var out []Insight

	run, longest := 0, 0
	for _, en := range sorted {
		if en.Outcome == journal.OutcomeLoss {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	if longest >= e.th.LossSpiralRun {
		out = append(out, Insight{
			ID:       IDLossSpiral,
			Icon:     "⚠️",
			Headline: fmt.Sprintf("You've hit %d losses in a row before", longest),
			Detail:   "Loss spirals tend to snowball. Consider taking a break after 2 consecutive losses.",
			Severity: SeverityWarning,
			Score:    float64(longest * 10),
		})
	}

	var am, pm bucket
	for _, en := range sorted {
		if en.Timestamp.In(e.loc).Hour() < 12 {
			am.add(en.Outcome)
		} else {
			pm.add(en.Outcome)
		}
	}
	if am.total >= e.th.MinHalfSize && pm.total >= e.th.MinHalfSize {
		diff := am.tally.WinRate() - pm.tally.WinRate()
		if math.Abs(diff) > e.th.RateGap {
			better := "mornings"
			betterLabel, worseLabel := "AM", "PM"
			betterRate, worseRate := am.tally.WinRate(), pm.tally.WinRate()
			if diff < 0 {
				better = "afternoons"
				betterLabel, worseLabel = worseLabel, betterLabel
				betterRate, worseRate = worseRate, betterRate
			}
			out = append(out, Insight{
				ID:       IDAMPMSplit,
				Icon:     "🌅",
				Headline: fmt.Sprintf("You win %d%% more in %s", pct(math.Abs(diff)), better),
				Detail:   fmt.Sprintf("%s: %d%% win rate. %s: %d%%.", betterLabel, pct(betterRate), worseLabel, pct(worseRate)),
				Severity: SeverityPositive,
				Score:    math.Abs(diff) * 80,
			})
		}
	}

	return out
}
