package journal

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kalambet/quarterlog/internal/timecalc"
)

const MaxPillars = 3

var (
	ErrTooManyPillars = errors.New("a day plan holds at most three pillars")
	ErrInvalidDateKey = errors.New("invalid date key")
)

// PlannedBlock reserves one slot of the day for an activity.
type PlannedBlock struct {
	Start    TimeOfDay `json:"start_time"`
	Label    string    `json:"label"`
	Category Category  `json:"category"`
}

// Preset is a one-tap block template offered by the planner.
type Preset struct {
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

var Presets = []Preset{
	{"Deep Work", CategoryMaker},
	{"Meetings", CategoryManager},
	{"Research", CategoryResearch},
	{"Break", CategoryFuel},
	{"Exercise", CategoryRecovery},
	{"Admin", CategoryOther},
}

// DayPlan is the user's intent for one calendar day.
type DayPlan struct {
	DateKey     string         `json:"date"`
	Dragon      string         `json:"dragon"`
	Pillars     []string       `json:"pillars"`
	Constraints []string       `json:"constraints"`
	Blocks      []PlannedBlock `json:"blocks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Block returns the block starting at t, if any.
func (p *DayPlan) Block(t TimeOfDay) (PlannedBlock, bool) {
	if p == nil {
		return PlannedBlock{}, false
	}
	for _, b := range p.Blocks {
		if b.Start == t {
			return b, true
		}
	}
	return PlannedBlock{}, false
}

// SetBlock inserts or replaces the block with the same start time.
func (p *DayPlan) SetBlock(b PlannedBlock) {
	for i := range p.Blocks {
		if p.Blocks[i].Start == b.Start {
			p.Blocks[i] = b
			return
		}
	}
	p.Blocks = append(p.Blocks, b)
	sort.Slice(p.Blocks, func(i, j int) bool { return p.Blocks[i].Start < p.Blocks[j].Start })
}

// ClearBlock removes the block at t and reports whether one existed.
func (p *DayPlan) ClearBlock(t TimeOfDay) bool {
	for i := range p.Blocks {
		if p.Blocks[i].Start == t {
			p.Blocks = append(p.Blocks[:i], p.Blocks[i+1:]...)
			return true
		}
	}
	return false
}

func (p *DayPlan) Validate() error {
	if _, err := time.Parse(timecalc.DateKeyLayout, p.DateKey); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDateKey, p.DateKey)
	}
	if len(p.Pillars) > MaxPillars {
		return ErrTooManyPillars
	}
	seen := make(map[TimeOfDay]bool, len(p.Blocks))
	for _, b := range p.Blocks {
		if b.Start < 0 || b.Start >= minutesPerDay {
			return fmt.Errorf("block %q: %w", b.Label, ErrInvalidTime)
		}
		if seen[b.Start] {
			return fmt.Errorf("duplicate block at %s", b.Start)
		}
		seen[b.Start] = true
	}
	return nil
}
