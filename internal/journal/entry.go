package journal

import (
	"strings"
	"time"
)

// DefaultInterval is the check-in cadence used when nothing else is configured.
const DefaultInterval = 15 * time.Minute

type Outcome string

const (
	OutcomeWin     Outcome = "WIN"
	OutcomeLoss    Outcome = "LOSS"
	OutcomeDraw    Outcome = "DRAW"
	OutcomeUnknown Outcome = "UNKNOWN"
)

// ParseOutcome maps a free string onto the closed outcome set.
// Anything unrecognised becomes OutcomeUnknown.
func ParseOutcome(s string) Outcome {
	switch Outcome(strings.ToUpper(strings.TrimSpace(s))) {
	case OutcomeWin:
		return OutcomeWin
	case OutcomeLoss:
		return OutcomeLoss
	case OutcomeDraw:
		return OutcomeDraw
	}
	return OutcomeUnknown
}

type Category string

const (
	CategoryMaker    Category = "MAKER"
	CategoryManager  Category = "MANAGER"
	CategoryResearch Category = "R&D"
	CategoryFuel     Category = "FUEL"
	CategoryRecovery Category = "RECOVERY"
	CategoryBurn     Category = "BURN"
	CategoryOther    Category = "OTHER"
)

// Categories lists the canonical taxonomy in display order.
var Categories = []Category{
	CategoryMaker,
	CategoryManager,
	CategoryResearch,
	CategoryFuel,
	CategoryRecovery,
	CategoryBurn,
	CategoryOther,
}

// LegacyCategories maps the older activity vocabulary onto the canonical one.
var LegacyCategories = map[string]Category{
	"DEEP WORK": CategoryMaker,
	"MEETINGS":  CategoryManager,
	"RESEARCH":  CategoryResearch,
	"LEARNING":  CategoryResearch,
	"BREAK":     CategoryFuel,
	"EXERCISE":  CategoryRecovery,
	"ADMIN":     CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryMaker:    "Deep Work",
	CategoryManager:  "Admin",
	CategoryResearch: "Learning",
	CategoryFuel:     "Health",
	CategoryRecovery: "Recovery",
	CategoryBurn:     "Wasted",
	CategoryOther:    "Other",
}

// ParseCategory accepts canonical and legacy names, case-insensitively.
// Unknown or empty input falls back to CategoryOther.
func ParseCategory(s string) Category {
	key := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == key {
			return c
		}
	}
	if c, ok := LegacyCategories[key]; ok {
		return c
	}
	return CategoryOther
}

// Label is the human-facing name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryOther]
}

// IsLeverage reports whether the category counts toward the maker ratio.
func (c Category) IsLeverage() bool {
	return c == CategoryMaker || c == CategoryResearch
}

// IsSelfCare reports whether the category is rest or recovery.
func (c Category) IsSelfCare() bool {
	return c == CategoryFuel || c == CategoryRecovery
}

// Entry is a single logged activity. Entries are never edited after creation.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Text      string        `json:"text"`
	Outcome   Outcome       `json:"type"`
	Category  Category      `json:"category"`
	Duration  time.Duration `json:"duration,omitempty"`
	Feedback  string        `json:"feedback,omitempty"`
	Source    string        `json:"source,omitempty"`
}

// EffectiveDuration returns the recorded duration or one interval when unset.
func (e Entry) EffectiveDuration(interval time.Duration) time.Duration {
	if e.Duration > 0 {
		return e.Duration
	}
	if interval <= 0 {
		return DefaultInterval
	}
	return interval
}

// Tally counts outcomes over a slice of entries.
type Tally struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

func Count(entries []Entry) Tally {
	var t Tally
	for _, e := range entries {
		switch e.Outcome {
		case OutcomeWin:
			t.Wins++
		case OutcomeLoss:
			t.Losses++
		case OutcomeDraw:
			t.Draws++
		}
	}
	return t
}

// Decided is wins plus losses, the denominator for every win rate.
func (t Tally) Decided() int {
	return t.Wins + t.Losses
}

// WinRate is wins/(wins+losses), or 0 when nothing was decided.
func (t Tally) WinRate() float64 {
	if t.Decided() == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.Decided())
}
