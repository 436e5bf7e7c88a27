package score

import (
	"sort"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// DaySummary is one column of the weekly debrief.
type DaySummary struct {
	Date        string           `json:"date"`
	Weekday     string           `json:"weekday"`
	Tally       journal.Tally    `json:"tally"`
	Total       int              `json:"total"`
	FocusScore  int              `json:"focus_score"`
	TopCategory journal.Category `json:"top_category,omitempty"`
}

type CategoryCount struct {
	Category journal.Category `json:"category"`
	Count    int              `json:"count"`
}

// Debrief summarises one Monday-to-Sunday week.
type Debrief struct {
	WeekStart     string          `json:"week_start"`
	WeekEnd       string          `json:"week_end"`
	Days          []DaySummary    `json:"days"`
	Tally         journal.Tally   `json:"tally"`
	Total         int             `json:"total"`
	WinRate       int             `json:"win_rate"`
	AverageScore  int             `json:"average_score"`
	BestDay       *DaySummary     `json:"best_day,omitempty"`
	WorstDay      *DaySummary     `json:"worst_day,omitempty"`
	TopCategories []CategoryCount `json:"top_categories"`
}

// WeeklyDebrief builds the debrief for the week containing weekOf. Every day
// is scored with the supplied current streak. The win rate here counts draws
// in the denominator, as the debrief reports share of all entries.
func WeeklyDebrief(entries []journal.Entry, weekOf time.Time, streak int, schedule *journal.Schedule) Debrief {
	start := timecalc.WeekStart(weekOf)
	end := start.AddDate(0, 0, 7)
	loc := weekOf.Location()

	var week []journal.Entry
	for _, e := range entries {
		ts := e.Timestamp.In(loc)
		if !ts.Before(start) && ts.Before(end) {
			week = append(week, e)
		}
	}
	byDay := groupByDay(week, loc)

	d := Debrief{
		WeekStart: timecalc.DateKey(start),
		WeekEnd:   timecalc.DateKey(end.AddDate(0, 0, -1)),
		Days:      make([]DaySummary, 0, 7),
	}

	var active []DaySummary
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		key := timecalc.DateKey(day)
		dayEntries := byDay[key]

		s := DaySummary{
			Date:    key,
			Weekday: day.Weekday().String()[:3],
			Tally:   journal.Count(dayEntries),
			Total:   len(dayEntries),
		}
		if len(dayEntries) > 0 {
			s.FocusScore, _ = FocusScore(dayEntries, streak, schedule)
			if top := categoryCounts(dayEntries); len(top) > 0 {
				s.TopCategory = top[0].Category
			}
			active = append(active, s)
		}
		d.Days = append(d.Days, s)
	}

	d.Tally = journal.Count(week)
	d.Total = d.Tally.Wins + d.Tally.Losses + d.Tally.Draws
	if d.Total > 0 {
		d.WinRate = round(float64(d.Tally.Wins) / float64(d.Total) * 100)
	}

	if len(active) > 0 {
		sum := 0
		best, worst := active[0], active[0]
		for _, s := range active {
			sum += s.FocusScore
			if s.FocusScore > best.FocusScore {
				best = s
			}
			if s.FocusScore < worst.FocusScore {
				worst = s
			}
		}
		d.AverageScore = round(float64(sum) / float64(len(active)))
		d.BestDay = &best
		d.WorstDay = &worst
	}

	d.TopCategories = categoryCounts(week)
	if len(d.TopCategories) > 3 {
		d.TopCategories = d.TopCategories[:3]
	}
	return d
}

// categoryCounts orders categories by frequency, ties in canonical order.
func categoryCounts(entries []journal.Entry) []CategoryCount {
	counts := make(map[journal.Category]int)
	for _, e := range entries {
		counts[e.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for _, c := range journal.Categories {
		if n := counts[c]; n > 0 {
			out = append(out, CategoryCount{Category: c, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
