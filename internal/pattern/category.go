package pattern

import (
	"fmt"
	"sort"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// CategoryCorrelations looks for an oversized category, BURN entries piling
// up on one weekday, and self-care days followed by better days.
func (e *Engine) CategoryCorrelations(entries []journal.Entry) []Insight {
	if len(entries) < e.th.MinEntries {
		return nil
	}

	var out []Insight
	if in, ok := e.dominantCategory(entries); ok {
		out = append(out, in)
	}
	if in, ok := e.burnCluster(entries); ok {
		out = append(out, in)
	}
	if in, ok := e.selfCareCorrelation(entries); ok {
		out = append(out, in)
	}
	return out
}

func (e *Engine) dominantCategory(entries []journal.Entry) (Insight, bool) {
	counts := make(map[journal.Category]*bucket)
	for _, en := range entries {
		b, ok := counts[en.Category]
		if !ok {
			b = &bucket{}
			counts[en.Category] = b
		}
		b.add(en.Outcome)
	}
	if len(counts) < 2 {
		return Insight{}, false
	}

	var top journal.Category
	var topB *bucket
	for _, c := range journal.Categories {
		if b, ok := counts[c]; ok && (topB == nil || b.total > topB.total) {
			top, topB = c, b
		}
	}
	if topB == nil {
		return Insight{}, false
	}

	share := float64(topB.total) / float64(len(entries))
	if share <= e.th.DominantShare {
		return Insight{}, false
	}
	percent := pct(share)
	return Insight{
		ID:       IDDominantCategory,
		Icon:     "📊",
		Headline: fmt.Sprintf("%d%% of your time goes to %s", percent, top),
		Detail:   fmt.Sprintf("%d wins, %d losses across %d entries.", topB.tally.Wins, topB.tally.Losses, topB.total),
		Severity: SeverityInfo,
		Score:    float64(percent) * 0.5,
	}, true
}

func (e *Engine) burnCluster(entries []journal.Entry) (Insight, bool) {
	var perDay [7]int
	burns := 0
	for _, en := range entries {
		if en.Category != journal.CategoryBurn {
			continue
		}
		burns++
		perDay[int(en.Timestamp.In(e.loc).Weekday())]++
	}
	if burns < e.th.BurnClusterMin {
		return Insight{}, false
	}

	worst := 0
	for d := 1; d < 7; d++ {
		if perDay[d] > perDay[worst] {
			worst = d
		}
	}
	count := perDay[worst]
	if count < e.th.BurnClusterMin {
		return Insight{}, false
	}

	day := weekdayName(worst)
	return Insight{
		ID:       IDBurnCluster,
		Icon:     "🔥",
		Headline: fmt.Sprintf("BURN entries cluster on %ss", day),
		Detail:   fmt.Sprintf("%d wasted blocks on %ss. What's triggering this pattern?", count, day),
		Severity: SeverityWarning,
		Score:    float64(count * 15),
	}, true
}

type dayData struct {
	date     time.Time
	entries  int
	tally    journal.Tally
	selfCare bool
}

func (e *Engine) selfCareCorrelation(entries []journal.Entry) (Insight, bool) {
	byDate := make(map[string]*dayData)
	for _, en := range entries {
		ts := en.Timestamp.In(e.loc)
		key := timecalc.DateKey(ts)
		d, ok := byDate[key]
		if !ok {
			d = &dayData{date: timecalc.StartOfDay(ts)}
			byDate[key] = d
		}
		d.entries++
		switch en.Outcome {
		case journal.OutcomeWin:
			d.tally.Wins++
		case journal.OutcomeLoss:
			d.tally.Losses++
		case journal.OutcomeDraw:
			d.tally.Draws++
		}
		if en.Category.IsSelfCare() {
			d.selfCare = true
		}
	}

	days := make([]*dayData, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })

	var with, without []float64
	for i := 0; i+1 < len(days); i++ {
		next := days[i+1]
		if next.entries < e.th.MinNextDayEntries {
			continue
		}
		if days[i].selfCare {
			with = append(with, next.tally.WinRate())
		} else {
			without = append(without, next.tally.WinRate())
		}
	}
	if len(with) < e.th.MinCorrelationDays || len(without) < e.th.MinCorrelationDays {
		return Insight{}, false
	}

	avgWith, avgWithout := mean(with), mean(without)
	diff := avgWith - avgWithout
	if diff <= e.th.SelfCareLift {
		return Insight{}, false
	}
	return Insight{
		ID:       IDFuelCorrelation,
		Icon:     "🍎",
		Headline: fmt.Sprintf("Self-care boosts next-day wins by %d%%", pct(diff)),
		Detail:   fmt.Sprintf("Days after FUEL/RECOVERY: %d%% win rate. Without: %d%%.", pct(avgWith), pct(avgWithout)),
		Severity: SeverityPositive,
		Score:    diff * 150,
	}, true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func weekdayName(d int) string {
	return time.Weekday(d).String()
}
