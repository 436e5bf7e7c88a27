// Package settings gives cached, typed access to the preferences stored in
// the settings table.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kalambet/quarterlog/internal/journal"
)

// Stored keys.
const (
	KeySchedule = "schedule"
	KeyGoal     = "goal"
	KeyPersona  = "persona"
	KeyPriority = "strategic_priority"
)

// Store is the slice of storage.Store the Manager needs.
type Store interface {
	SetSetting(ctx context.Context, key, value string) error
	GetAllSettings(ctx context.Context) (map[string]string, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

const defaultTTL = 60 * time.Second

// Manager caches Settings for a TTL and invalidates on every write.
type Manager struct {
	store Store
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   *Settings
	cachedAt time.Time
}

func NewManager(store Store) *Manager {
	return NewManagerWithClock(store, realClock{}, defaultTTL)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store Store, clock Clock, ttl time.Duration) *Manager {
	return &Manager{store: store, clock: clock, ttl: ttl}
}

// Get returns the current settings, filling anything unset from Defaults.
func (m *Manager) Get(ctx context.Context) (Settings, error) {
	m.mu.RLock()
	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		s := copySettings(m.cached)
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && m.clock.Now().Before(m.cachedAt.Add(m.ttl)) {
		return copySettings(m.cached), nil
	}

	keys, err := m.store.GetAllSettings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	s := build(keys)
	m.cached = &s
	m.cachedAt = m.clock.Now()
	return copySettings(&s), nil
}

// Schedule is a shortcut for Get(ctx).Schedule.
func (m *Manager) Schedule(ctx context.Context) (journal.Schedule, error) {
	s, err := m.Get(ctx)
	if err != nil {
		return journal.Schedule{}, err
	}
	return s.Schedule, nil
}

func (m *Manager) SetSchedule(ctx context.Context, s journal.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return m.setField(ctx, KeySchedule, s)
}

// Apply validates every field of p before writing any of them.
func (m *Manager) Apply(ctx context.Context, p Patch) error {
	writes := make(map[string]any)
	if p.Goal != nil {
		g, err := ParseGoal(*p.Goal)
		if err != nil {
			return err
		}
		writes[KeyGoal] = string(g)
	}
	if p.Persona != nil {
		t, err := ParseTone(*p.Persona)
		if err != nil {
			return err
		}
		writes[KeyPersona] = string(t)
	}
	if p.StrategicPriority != nil {
		writes[KeyPriority] = strings.TrimSpace(*p.StrategicPriority)
	}
	for k, v := range writes {
		if err := m.setField(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// setField persists one key and drops the cache. Non-string values are
// stored as JSON.
func (m *Manager) setField(ctx context.Context, key string, value any) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling value for key %q: %w", key, err)
		}
		str = string(b)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetSetting(ctx, key, str); err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	m.cached = nil
	return nil
}

// Summary renders the settings as a short context line for coach prompts.
func (m *Manager) Summary(ctx context.Context) (string, error) {
	s, err := m.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("getting settings for summary: %w", err)
	}
	return summarize(s), nil
}

const maxSummaryChars = 600

func summarize(s Settings) string {
	parts := []string{fmt.Sprintf("Goal: %s.", s.Goal)}
	if s.StrategicPriority != "" {
		parts = append(parts, fmt.Sprintf("Strategic priority: %s.", s.StrategicPriority))
	}
	sch := s.Schedule
	if sch.Enabled {
		days := make([]string, 0, len(sch.Days))
		for _, d := range sch.Days {
			days = append(days, d.String()[:3])
		}
		parts = append(parts, fmt.Sprintf("Working window: %s-%s on %s, check-in every %d minutes.",
			sch.Start, sch.End, strings.Join(days, ","), int(sch.Interval()/time.Minute)))
	} else {
		parts = append(parts, "No working window configured.")
	}

	summary := strings.Join(parts, " ")
	if len(summary) > maxSummaryChars {
		end := maxSummaryChars
		for end > 0 && !utf8.RuneStart(summary[end]) {
			end--
		}
		summary = summary[:end]
	}
	return summary
}

func copySettings(s *Settings) Settings {
	if s == nil {
		return Settings{}
	}
	cp := *s
	if s.Schedule.Days != nil {
		cp.Schedule.Days = make([]time.Weekday, len(s.Schedule.Days))
		copy(cp.Schedule.Days, s.Schedule.Days)
	}
	return cp
}

// build assembles Settings from stored keys. Malformed values are logged and
// replaced by their defaults.
func build(keys map[string]string) Settings {
	s := Defaults()

	if v, ok := keys[KeySchedule]; ok {
		var sch journal.Schedule
		if err := json.Unmarshal([]byte(v), &sch); err != nil {
			slog.Warn("malformed schedule setting, using default", "error", err)
		} else {
			s.Schedule = sch
		}
	}
	if v, ok := keys[KeyGoal]; ok {
		if g, err := ParseGoal(v); err != nil {
			slog.Warn("malformed goal setting, using default", "value", v)
		} else {
			s.Goal = g
		}
	}
	if v, ok := keys[KeyPersona]; ok {
		if t, err := ParseTone(v); err != nil {
			slog.Warn("malformed persona setting, ignoring", "value", v)
		} else {
			s.Persona = t
		}
	}
	s.StrategicPriority = keys[KeyPriority]
	return s
}
