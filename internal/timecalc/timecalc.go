package timecalc

import (
	"fmt"
	"strings"
	"time"
)

const DateKeyLayout = "2006-01-02"

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextDay returns midnight at the start of the following day.
func NextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns Monday 00:00 of the week containing t.
func WeekStart(t time.Time) time.Time {
	// Go's weekday: Sunday=0, Monday=1, ..., Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()-(wd-1), 0, 0, 0, 0, t.Location())
}

// DateKey formats t as YYYY-MM-DD in its own location.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses YYYY-MM-DD as local midnight in loc.
func ParseDateKey(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// Period is a dashboard viewing window.
type Period string

const (
	PeriodDay     Period = "D"
	PeriodWeek    Period = "W"
	PeriodMonth   Period = "M"
	PeriodQuarter Period = "3M"
	PeriodYear    Period = "Y"
	PeriodAll     Period = "ALL"
)

var Periods = []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodAll}

func ParsePeriod(s string) (Period, error) {
	if s == "" {
		return PeriodDay, nil
	}
	p := Period(strings.ToUpper(s))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

var periodLabels = map[Period]string{
	PeriodDay:     "Day",
	PeriodWeek:    "Week",
	PeriodMonth:   "Month",
	PeriodQuarter: "Quarter",
	PeriodYear:    "Year",
	PeriodAll:     "All Time",
}

// Label is the human name of p, as used in report prompts.
func (p Period) Label() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return string(p)
}

// Range returns the half-open window [from, to) of period p around t.
// PeriodAll yields zero times for both bounds.
func (p Period) Range(t time.Time) (from, to time.Time) {
	day := StartOfDay(t)
	switch p {
	case PeriodDay:
		return day, NextDay(day)
	case PeriodWeek:
		start := WeekStart(t)
		return start, start.AddDate(0, 0, 7)
	case PeriodMonth:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return start, start.AddDate(0, 1, 0)
	case PeriodQuarter:
		// Rolling: today and the preceding three months.
		return day.AddDate(0, -3, 0), NextDay(day)
	case PeriodYear:
		start := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
		return start, start.AddDate(1, 0, 0)
	}
	return time.Time{}, time.Time{}
}

// Contains reports whether ts lies in the window of p around t.
func (p Period) Contains(t, ts time.Time) bool {
	if p == PeriodAll {
		return true
	}
	from, to := p.Range(t)
	return !ts.Before(from) && ts.Before(to)
}

// HourLabel renders an hour of day as "9AM" / "2PM".
func HourLabel(h int) string {
	switch {
	case h == 0:
		return "12AM"
	case h < 12:
		return fmt.Sprintf("%dAM", h)
	case h == 12:
		return "12PM"
	default:
		return fmt.Sprintf("%dPM", h-12)
	}
}
