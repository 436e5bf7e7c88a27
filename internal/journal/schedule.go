package journal

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTime = errors.New("invalid time of day")

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || n != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOfDay(h*60 + m), nil
}

// At builds a TimeOfDay from an instant, in the instant's own location.
func At(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t.normalize()) / 60 }
func (t TimeOfDay) Minute() int { return int(t.normalize()) % 60 }

func (t TimeOfDay) normalize() TimeOfDay {
	return ((t % minutesPerDay) + minutesPerDay) % minutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// On returns the instant of this time of day on the calendar date of day.
// Values past midnight roll into the following date.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, int(t), 0, 0, day.Location())
}

// Schedule is the user's working window for check-ins.
type Schedule struct {
	Enabled         bool           `json:"enabled"`
	Start           TimeOfDay      `json:"start_time"`
	End             TimeOfDay      `json:"end_time"`
	Days            []time.Weekday `json:"days_of_week"`
	IntervalMinutes int            `json:"interval_minutes"`
}

// DefaultSchedule is 09:00-17:00, Monday to Friday, every 15 minutes.
func DefaultSchedule() Schedule {
	return Schedule{
		Enabled:         true,
		Start:           9 * 60,
		End:             17 * 60,
		Days:            []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		IntervalMinutes: int(DefaultInterval / time.Minute),
	}
}

func (s Schedule) Interval() time.Duration {
	if s.IntervalMinutes <= 0 {
		return DefaultInterval
	}
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// CrossesMidnight reports whether the window ends on the following day.
func (s Schedule) CrossesMidnight() bool {
	return s.End <= s.Start
}

func (s Schedule) ActiveOn(d time.Weekday) bool {
	for _, wd := range s.Days {
		if wd == d {
			return true
		}
	}
	return false
}

// Within reports whether t falls on an active day and inside [Start, End).
func (s Schedule) Within(t time.Time) bool {
	if !s.Enabled || !s.ActiveOn(t.Weekday()) {
		return false
	}
	now := At(t)
	if s.CrossesMidnight() {
		return now >= s.Start || now < s.End
	}
	return now >= s.Start && now < s.End
}

func (s Schedule) Validate() error {
	if s.Start < 0 || s.Start >= minutesPerDay || s.End < 0 || s.End >= minutesPerDay {
		return ErrInvalidTime
	}
	if s.IntervalMinutes < 0 || s.IntervalMinutes > minutesPerDay {
		return fmt.Errorf("interval must be between 1 and %d minutes", minutesPerDay)
	}
	for _, d := range s.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday %d", d)
		}
	}
	return nil
}
