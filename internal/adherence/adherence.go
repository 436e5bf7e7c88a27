// Package adherence compares a day's plan with what was actually logged,
// slot by slot.
package adherence

import (
	"math"
	"sort"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// Slot is one interval of the working window.
type Slot struct {
	Start journal.TimeOfDay `json:"start_time"`
	At    time.Time         `json:"at"`
	End   time.Time         `json:"end"`
}

// Contains reports whether ts falls in [At, End).
func (s Slot) Contains(ts time.Time) bool {
	return !ts.Before(s.At) && ts.Before(s.End)
}

// Slots lays out the working window of date in interval steps. A window whose
// end is not after its start runs past midnight; those slots fall on the next
// calendar day but keep 00:00-23:59 labels. A disabled schedule has no slots.
func Slots(schedule journal.Schedule, date time.Time) []Slot {
	if !schedule.Enabled {
		return nil
	}
	step := int(schedule.Interval() / time.Minute)
	start := int(schedule.Start)
	end := int(schedule.End)
	if end <= start {
		end += 24 * 60
	}

	day := timecalc.StartOfDay(date)
	var out []Slot
	for m := start; m < end; m += step {
		at := journal.TimeOfDay(m).On(day)
		out = append(out, Slot{
			Start: journal.TimeOfDay(m % (24 * 60)),
			At:    at,
			End:   at.Add(schedule.Interval()),
		})
	}
	return out
}

type Status string

const (
	StatusIdle      Status = "idle"
	StatusUnplanned Status = "unplanned"
	StatusPlanned   Status = "planned"
	StatusMissed    Status = "missed"
	StatusVerified  Status = "verified"
)

// SlotReport pairs a slot with its plan block and matched entry.
type SlotReport struct {
	Slot
	Block  *journal.PlannedBlock `json:"block,omitempty"`
	Entry  *journal.Entry        `json:"entry,omitempty"`
	Status Status                `json:"status"`
}

// Report is the adherence of one day.
type Report struct {
	Date     string       `json:"date"`
	Percent  int          `json:"percent"`
	Verified int          `json:"verified"`
	Planned  int          `json:"planned"`
	Total    int          `json:"total"`
	Slots    []SlotReport `json:"slots"`
}

// Calculate scores plan against entries for date. A slot counts as adherent
// only when it has a plan block and a WIN entry inside its window. now
// decides whether an unmatched planned slot is still upcoming or missed.
func Calculate(schedule journal.Schedule, plan *journal.DayPlan, entries []journal.Entry, date, now time.Time) Report {
	slots := Slots(schedule, date)
	r := Report{
		Date:  timecalc.DateKey(date),
		Total: len(slots),
		Slots: make([]SlotReport, 0, len(slots)),
	}

	sorted := make([]journal.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	for _, s := range slots {
		sr := SlotReport{Slot: s, Status: StatusIdle}
		if b, ok := plan.Block(s.Start); ok {
			sr.Block = &b
			r.Planned++
		}
		if e, ok := match(sorted, s); ok {
			sr.Entry = &e
		}

		switch {
		case sr.Block != nil && sr.Entry != nil && sr.Entry.Outcome == journal.OutcomeWin:
			sr.Status = StatusVerified
			r.Verified++
		case sr.Block != nil && now.Before(s.End):
			sr.Status = StatusPlanned
		case sr.Block != nil:
			sr.Status = StatusMissed
		case sr.Entry != nil:
			sr.Status = StatusUnplanned
		}
		r.Slots = append(r.Slots, sr)
	}

	r.Percent = Percent(r.Verified, r.Total)
	return r
}

// Percent is round(verified/total*100), 0 for an empty day.
func Percent(verified, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(verified) / float64(total) * 100))
}

// match picks the entry shown for a slot: the first WIN inside the window,
// otherwise the first entry of any outcome.
func match(sorted []journal.Entry, s Slot) (journal.Entry, bool) {
	i := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Timestamp.Before(s.At) })
	first := -1
	for j := i; j < len(sorted) && sorted[j].Timestamp.Before(s.End); j++ {
		if sorted[j].Outcome == journal.OutcomeWin {
			return sorted[j], true
		}
		if first < 0 {
			first = j
		}
	}
	if first >= 0 {
		return sorted[first], true
	}
	return journal.Entry{}, false
}
