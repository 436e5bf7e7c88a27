package settings

import (
	"fmt"
	"strings"

	"github.com/kalambet/quarterlog/internal/journal"
)

// Goal selects the coach persona used for reports.
type Goal string

const (
	GoalFocus    Goal = "FOCUS"
	GoalBusiness Goal = "BUSINESS"
	GoalLife     Goal = "LIFE"
)

// ParseGoal accepts any case; an empty string means GoalFocus.
func ParseGoal(s string) (Goal, error) {
	switch g := Goal(strings.ToUpper(strings.TrimSpace(s))); g {
	case "":
		return GoalFocus, nil
	case GoalFocus, GoalBusiness, GoalLife:
		return g, nil
	default:
		return "", fmt.Errorf("unknown goal %q (want FOCUS, BUSINESS or LIFE)", s)
	}
}

// Tone overrides the persona's default voice.
type Tone string

const (
	ToneAuto  Tone = ""
	ToneTough Tone = "TOUGH"
	ToneLogic Tone = "LOGIC"
	ToneKind  Tone = "KIND"
)

func ParseTone(s string) (Tone, error) {
	switch t := Tone(strings.ToUpper(strings.TrimSpace(s))); t {
	case ToneAuto, ToneTough, ToneLogic, ToneKind:
		return t, nil
	case "AUTO":
		return ToneAuto, nil
	default:
		return "", fmt.Errorf("unknown persona %q (want TOUGH, LOGIC, KIND or AUTO)", s)
	}
}

// Settings are the user-editable preferences kept in the database.
type Settings struct {
	Schedule          journal.Schedule `json:"schedule"`
	Goal              Goal             `json:"goal"`
	Persona           Tone             `json:"persona"`
	StrategicPriority string           `json:"strategic_priority"`
}

// Defaults is what a fresh install starts with.
func Defaults() Settings {
	return Settings{
		Schedule: journal.DefaultSchedule(),
		Goal:     GoalFocus,
	}
}

// Patch is a partial update; nil fields are left alone.
type Patch struct {
	Goal              *string `json:"goal,omitempty"`
	Persona           *string `json:"persona,omitempty"`
	StrategicPriority *string `json:"strategic_priority,omitempty"`
}

// Validate checks the enumerated fields of p without writing anything.
func (p Patch) Validate() error {
	if p.Goal != nil {
		if _, err := ParseGoal(*p.Goal); err != nil {
			return err
		}
	}
	if p.Persona != nil {
		if _, err := ParseTone(*p.Persona); err != nil {
			return err
		}
	}
	return nil
}
