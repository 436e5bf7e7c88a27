package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"MAKER", CategoryMaker},
		{"maker", CategoryMaker},
		{" r&d ", CategoryResearch},
		{"DEEP WORK", CategoryMaker},
		{"Meetings", CategoryManager},
		{"research", CategoryResearch},
		{"LEARNING", CategoryResearch},
		{"break", CategoryFuel},
		{"Exercise", CategoryRecovery},
		{"ADMIN", CategoryOther},
		{"BURN", CategoryBurn},
		{"", CategoryOther},
		{"gardening", CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCategory(tt.in), "ParseCategory(%q)", tt.in)
	}
}

func TestParseOutcome(t *testing.T) {
	assert.Equal(t, OutcomeWin, ParseOutcome("win"))
	assert.Equal(t, OutcomeLoss, ParseOutcome(" LOSS"))
	assert.Equal(t, OutcomeDraw, ParseOutcome("Draw"))
	assert.Equal(t, OutcomeUnknown, ParseOutcome("tie"))
	assert.Equal(t, OutcomeUnknown, ParseOutcome(""))
}

func TestCountAndWinRate(t *testing.T) {
	entries := []Entry{
		{Outcome: OutcomeWin}, {Outcome: OutcomeWin}, {Outcome: OutcomeLoss},
		{Outcome: OutcomeDraw}, {Outcome: OutcomeUnknown},
	}
	tally := Count(entries)
	assert.Equal(t, Tally{Wins: 2, Losses: 1, Draws: 1}, tally)
	assert.Equal(t, 3, tally.Decided())
	assert.InDelta(t, 2.0/3.0, tally.WinRate(), 1e-9)

	assert.Zero(t, Count(nil).WinRate())
	assert.Zero(t, Count([]Entry{{Outcome: OutcomeDraw}}).WinRate())
}

func TestEffectiveDuration(t *testing.T) {
	assert.Equal(t, 15*time.Minute, Entry{}.EffectiveDuration(0))
	assert.Equal(t, 30*time.Minute, Entry{}.EffectiveDuration(30*time.Minute))
	assert.Equal(t, 5*time.Minute, Entry{Duration: 5 * time.Minute}.EffectiveDuration(30*time.Minute))
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(570), tod)
	assert.Equal(t, "09:30", tod.String())
	assert.Equal(t, "00:15", TimeOfDay(24*60+15).String())

	for _, bad := range []string{"24:00", "9", "aa:bb", "12:60", "-1:00"} {
		_, err := ParseTimeOfDay(bad)
		assert.ErrorIs(t, err, ErrInvalidTime, "ParseTimeOfDay(%q)", bad)
	}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC), TimeOfDay(24*60+30).On(day))
}

func TestScheduleJSON(t *testing.T) {
	s := DefaultSchedule()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"start_time":"09:00"`)
	assert.Contains(t, string(data), `"end_time":"17:00"`)

	var back Schedule
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestScheduleWithin(t *testing.T) {
	day := DefaultSchedule()
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, day.Within(monday.Add(9*time.Hour)))
	assert.True(t, day.Within(monday.Add(16*time.Hour+59*time.Minute)))
	assert.False(t, day.Within(monday.Add(17*time.Hour)))
	assert.False(t, day.Within(monday.Add(-24*time.Hour+10*time.Hour)), "sunday is inactive")

	night := Schedule{Enabled: true, Start: 22 * 60, End: 2 * 60, Days: []time.Weekday{time.Monday}}
	assert.True(t, night.CrossesMidnight())
	assert.True(t, night.Within(monday.Add(23*time.Hour)))
	assert.True(t, night.Within(monday.Add(1*time.Hour)))
	assert.False(t, night.Within(monday.Add(12*time.Hour)))

	day.Enabled = false
	assert.False(t, day.Within(monday.Add(10*time.Hour)))
}

func TestDayPlanBlocks(t *testing.T) {
	p := &DayPlan{DateKey: "2026-03-02"}
	p.SetBlock(PlannedBlock{Start: 10 * 60, Label: "Meetings", Category: CategoryManager})
	p.SetBlock(PlannedBlock{Start: 9 * 60, Label: "Deep Work", Category: CategoryMaker})
	p.SetBlock(PlannedBlock{Start: 10 * 60, Label: "Research", Category: CategoryResearch})

	require.Len(t, p.Blocks, 2)
	assert.Equal(t, TimeOfDay(9*60), p.Blocks[0].Start)
	b, ok := p.Block(10 * 60)
	require.True(t, ok)
	assert.Equal(t, "Research", b.Label)

	assert.True(t, p.ClearBlock(9*60))
	assert.False(t, p.ClearBlock(9*60))
	assert.Len(t, p.Blocks, 1)

	var nilPlan *DayPlan
	_, ok = nilPlan.Block(0)
	assert.False(t, ok)
}

func TestDayPlanValidate(t *testing.T) {
	p := &DayPlan{DateKey: "2026-03-02", Pillars: []string{"a", "b", "c"}}
	assert.NoError(t, p.Validate())

	p.Pillars = append(p.Pillars, "d")
	assert.ErrorIs(t, p.Validate(), ErrTooManyPillars)

	bad := &DayPlan{DateKey: "02/03/2026"}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidDateKey)
}
