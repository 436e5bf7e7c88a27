package pattern

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/quarterlog/internal/journal"
)

// wednesday, 2026-03-04
var day0 = time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

var seq int

func at(dayOffset, hour, minute int, o journal.Outcome, c journal.Category) journal.Entry {
	seq++
	return journal.Entry{
		ID:        fmt.Sprintf("e%d", seq),
		Timestamp: day0.AddDate(0, 0, dayOffset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute),
		Outcome:   o,
		Category:  c,
	}
}

func newEngine() *Engine {
	return New(DefaultThresholds(), time.UTC)
}

func find(insights []Insight, id string) (Insight, bool) {
	for _, in := range insights {
		if in.ID == id {
			return in, true
		}
	}
	return Insight{}, false
}

func ids(insights []Insight) []string {
	out := make([]string, len(insights))
	for i, in := range insights {
		out[i] = in.ID
	}
	return out
}

// peakHourFixture: hour 9 all wins, hour 14 all losses, hour 16 split.
func peakHourFixture() []journal.Entry {
	var es []journal.Entry
	for i := 0; i < 5; i++ {
		es = append(es, at(0, 9, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	for i := 0; i < 5; i++ {
		es = append(es, at(0, 14, i, journal.OutcomeLoss, journal.CategoryMaker))
	}
	for i := 0; i < 10; i++ {
		o := journal.OutcomeWin
		if i%2 == 1 {
			o = journal.OutcomeLoss
		}
		es = append(es, at(0, 16, i, o, journal.CategoryMaker))
	}
	return es
}

func TestGenerate_BelowMinimum(t *testing.T) {
	es := peakHourFixture()[:MinEntries-1]
	assert.Empty(t, newEngine().Generate(es, 5))
	assert.NotNil(t, newEngine().Generate(es, 5))
	assert.Empty(t, newEngine().Generate(nil, 5))
}

func TestGenerate_PeakHour(t *testing.T) {
	got := newEngine().Generate(peakHourFixture(), 10)

	in, ok := find(got, IDPeakHour)
	require.True(t, ok, "expected peak-hour insight, got %v", ids(got))
	assert.Contains(t, in.Headline, "9AM")
	assert.InDelta(t, 100, in.Score, 1e-9)
	assert.Equal(t, "100% win rate (5 entries). Worst: 2PM at 0%.", in.Detail)
	assert.Equal(t, SeverityPositive, in.Severity)
}

func TestGenerate_SortedAndTruncated(t *testing.T) {
	got := newEngine().Generate(peakHourFixture(), 10)
	assert.Equal(t, []string{IDPeakHour, IDAMPMSplit, IDLossSpiral}, ids(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}

	top := newEngine().Generate(peakHourFixture(), 1)
	require.Len(t, top, 1)
	assert.Equal(t, IDPeakHour, top[0].ID)
}

func TestGenerate_DefaultLimit(t *testing.T) {
	th := DefaultThresholds()
	th.MinEntries = 1
	e := New(th, time.UTC)
	got := e.Generate(peakHourFixture(), 0)
	assert.LessOrEqual(t, len(got), DefaultMax)
}

func TestGenerate_Idempotent(t *testing.T) {
	es := peakHourFixture()
	a := newEngine().Generate(es, 5)
	b := newEngine().Generate(es, 5)
	assert.Equal(t, a, b)
}

func TestPeakHour_TieGoesToEarliestHour(t *testing.T) {
	var es []journal.Entry
	for _, h := range []int{8, 10} {
		for i := 0; i < 4; i++ {
			es = append(es, at(0, h, i, journal.OutcomeWin, journal.CategoryMaker))
		}
	}
	for i := 0; i < 12; i++ {
		es = append(es, at(0, 15, i, journal.OutcomeLoss, journal.CategoryMaker))
	}
	in, ok := find(newEngine().TimePatterns(es), IDPeakHour)
	require.True(t, ok)
	assert.Contains(t, in.Headline, "8AM-9AM")
}

func TestPeakHour_DrawOnlyBucketsIgnored(t *testing.T) {
	var es []journal.Entry
	for i := 0; i < 10; i++ {
		es = append(es, at(0, 9, i, journal.OutcomeDraw, journal.CategoryMaker))
		es = append(es, at(0, 14, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	_, ok := find(newEngine().TimePatterns(es), IDPeakHour)
	assert.False(t, ok, "a draw-only bucket has no win rate and cannot be the worst hour")
}

func TestDayPattern(t *testing.T) {
	var es []journal.Entry
	// Monday 2026-03-02: wins; Tuesday: losses.
	for i := 0; i < 10; i++ {
		es = append(es, at(-2, 10, i, journal.OutcomeWin, journal.CategoryMaker))
		es = append(es, at(-1, 10, i, journal.OutcomeLoss, journal.CategoryMaker))
	}
	in, ok := find(newEngine().TimePatterns(es), IDDayPattern)
	require.True(t, ok)
	assert.Equal(t, "Mondays are your strongest day", in.Headline)
	assert.Equal(t, "100% win rate vs Tuesdays at 0%.", in.Detail)
	assert.InDelta(t, 80, in.Score, 1e-9)
	assert.Equal(t, SeverityPositive, in.Severity)
}

func TestDayPattern_SmallGapIgnored(t *testing.T) {
	var es []journal.Entry
	for i := 0; i < 10; i++ {
		// Monday 60%, Tuesday 50%
		mon := journal.OutcomeWin
		if i >= 6 {
			mon = journal.OutcomeLoss
		}
		tue := journal.OutcomeWin
		if i >= 5 {
			tue = journal.OutcomeLoss
		}
		es = append(es, at(-2, 10, i, mon, journal.CategoryMaker))
		es = append(es, at(-1, 10, i, tue, journal.CategoryMaker))
	}
	_, ok := find(newEngine().TimePatterns(es), IDDayPattern)
	assert.False(t, ok)
}

func TestDominantCategory(t *testing.T) {
	var es []journal.Entry
	for i := 0; i < 12; i++ {
		es = append(es, at(0, 10, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	for i := 0; i < 8; i++ {
		es = append(es, at(0, 11, i, journal.OutcomeLoss, journal.CategoryManager))
	}
	in, ok := find(newEngine().CategoryCorrelations(es), IDDominantCategory)
	require.True(t, ok)
	assert.Equal(t, "60% of your time goes to MAKER", in.Headline)
	assert.Equal(t, "12 wins, 0 losses across 12 entries.", in.Detail)
	assert.InDelta(t, 30, in.Score, 1e-9)
}

func TestDominantCategory_Boundaries(t *testing.T) {
	// exactly 40% is not disproportionate
	var es []journal.Entry
	for i := 0; i < 8; i++ {
		es = append(es, at(0, 10, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	for i := 0; i < 6; i++ {
		es = append(es, at(0, 11, i, journal.OutcomeWin, journal.CategoryManager))
		es = append(es, at(0, 12, i, journal.OutcomeWin, journal.CategoryResearch))
	}
	_, ok := find(newEngine().CategoryCorrelations(es), IDDominantCategory)
	assert.False(t, ok)

	// a single category is not a comparison
	var single []journal.Entry
	for i := 0; i < 20; i++ {
		single = append(single, at(0, 10, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	_, ok = find(newEngine().CategoryCorrelations(single), IDDominantCategory)
	assert.False(t, ok)
}

func TestBurnCluster(t *testing.T) {
	var es []journal.Entry
	// Three BURN entries on three different Mondays.
	for _, off := range []int{-2, -9, -16} {
		es = append(es, at(off, 20, 0, journal.OutcomeLoss, journal.CategoryBurn))
	}
	for i := 0; i < 17; i++ {
		es = append(es, at(0, 10, i, journal.OutcomeWin, journal.CategoryMaker))
	}

	in, ok := find(newEngine().CategoryCorrelations(es), IDBurnCluster)
	require.True(t, ok)
	assert.Equal(t, "BURN entries cluster on Mondays", in.Headline)
	assert.InDelta(t, 45, in.Score, 1e-9)
	assert.Equal(t, SeverityWarning, in.Severity)
}

func TestBurnCluster_SpreadOut(t *testing.T) {
	var es []journal.Entry
	// Two BURN entries on each of Mon, Tue, Wed.
	for _, off := range []int{-2, -1, 0} {
		es = append(es, at(off, 20, 0, journal.OutcomeLoss, journal.CategoryBurn))
		es = append(es, at(off, 21, 0, journal.OutcomeLoss, journal.CategoryBurn))
	}
	for i := 0; i < 14; i++ {
		es = append(es, at(0, 10, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	_, ok := find(newEngine().CategoryCorrelations(es), IDBurnCluster)
	assert.False(t, ok)
}

func fuelFixture(oddDayEntries int) []journal.Entry {
	var es []journal.Entry
	for d := 1; d <= 8; d++ {
		off := d - 10
		if d%2 == 1 {
			for i := 0; i < oddDayEntries; i++ {
				es = append(es, at(off, 9+i, 0, journal.OutcomeWin, journal.CategoryMaker))
			}
		} else {
			es = append(es, at(off, 9, 0, journal.OutcomeLoss, journal.CategoryMaker))
			es = append(es, at(off, 10, 0, journal.OutcomeLoss, journal.CategoryMaker))
			es = append(es, at(off, 11, 0, journal.OutcomeDraw, journal.CategoryFuel))
		}
	}
	return es
}

func TestFuelCorrelation(t *testing.T) {
	es := fuelFixture(3)
	require.GreaterOrEqual(t, len(es), MinEntries)

	in, ok := find(newEngine().CategoryCorrelations(es), IDFuelCorrelation)
	require.True(t, ok)
	assert.Equal(t, "Self-care boosts next-day wins by 100%", in.Headline)
	assert.Equal(t, "Days after FUEL/RECOVERY: 100% win rate. Without: 0%.", in.Detail)
	assert.InDelta(t, 150, in.Score, 1e-9)
}

func TestFuelCorrelation_ThinNextDaysSkipped(t *testing.T) {
	es := fuelFixture(1)
	// pad to the minimum without creating new dates
	for i := 0; i < 10; i++ {
		es = append(es, at(-9, 18, i, journal.OutcomeLoss, journal.CategoryMaker))
	}
	_, ok := find(newEngine().CategoryCorrelations(es), IDFuelCorrelation)
	assert.False(t, ok, "days after self-care have a single entry and must not count")
}

func TestLossSpiral(t *testing.T) {
	var es []journal.Entry
	for i := 0; i < 16; i++ {
		es = append(es, at(-1, 10, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	// appended out of order; the run only exists in timestamp order
	es = append(es,
		at(0, 12, 0, journal.OutcomeLoss, journal.CategoryBurn),
		at(0, 9, 0, journal.OutcomeLoss, journal.CategoryBurn),
		at(0, 11, 0, journal.OutcomeLoss, journal.CategoryBurn),
		at(0, 10, 0, journal.OutcomeLoss, journal.CategoryBurn),
	)

	in, ok := find(newEngine().StreakFactors(es), IDLossSpiral)
	require.True(t, ok)
	assert.Equal(t, "You've hit 4 losses in a row before", in.Headline)
	assert.InDelta(t, 40, in.Score, 1e-9)
	assert.Equal(t, "e"+fmt.Sprint(seq), es[len(es)-1].ID, "input slice must not be reordered")
}

func TestLossSpiral_DrawBreaksRun(t *testing.T) {
	var es []journal.Entry
	for i := 0; i < 16; i++ {
		es = append(es, at(-1, 10, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	es = append(es,
		at(0, 9, 0, journal.OutcomeLoss, journal.CategoryBurn),
		at(0, 10, 0, journal.OutcomeLoss, journal.CategoryBurn),
		at(0, 11, 0, journal.OutcomeDraw, journal.CategoryFuel),
		at(0, 12, 0, journal.OutcomeLoss, journal.CategoryBurn),
	)
	_, ok := find(newEngine().StreakFactors(es), IDLossSpiral)
	assert.False(t, ok)
}

func TestAMPMSplit(t *testing.T) {
	var es []journal.Entry
	for i := 0; i < 10; i++ {
		es = append(es, at(0, 15, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	for i := 0; i < 10; i++ {
		o := journal.OutcomeWin
		if i < 5 {
			o = journal.OutcomeLoss
		}
		es = append(es, at(-1, 8, i*2, o, journal.CategoryMaker))
	}

	in, ok := find(newEngine().StreakFactors(es), IDAMPMSplit)
	require.True(t, ok)
	assert.Equal(t, "You win 50% more in afternoons", in.Headline)
	assert.Equal(t, "PM: 100% win rate. AM: 50%.", in.Detail)
	assert.InDelta(t, 40, in.Score, 1e-9)
}

func TestAMPMSplit_NeedsBothHalves(t *testing.T) {
	var es []journal.Entry
	for i := 0; i < 16; i++ {
		es = append(es, at(0, 15, i, journal.OutcomeWin, journal.CategoryMaker))
	}
	for i := 0; i < 4; i++ {
		es = append(es, at(0, 8, i, journal.OutcomeLoss, journal.CategoryMaker))
	}
	_, ok := find(newEngine().StreakFactors(es), IDAMPMSplit)
	assert.False(t, ok)
}

func TestInjectedThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.MinEntries = 4
	th.LossSpiralRun = 2
	e := New(th, time.UTC)

	es := []journal.Entry{
		at(0, 9, 0, journal.OutcomeWin, journal.CategoryMaker),
		at(0, 9, 1, journal.OutcomeLoss, journal.CategoryMaker),
		at(0, 9, 2, journal.OutcomeLoss, journal.CategoryMaker),
		at(0, 9, 3, journal.OutcomeWin, journal.CategoryMaker),
	}
	got := e.Generate(es, 5)
	in, ok := find(got, IDLossSpiral)
	require.True(t, ok)
	assert.InDelta(t, 20, in.Score, 1e-9)

	assert.Empty(t, newEngine().Generate(es, 5))
}

func TestLocationShiftsBuckets(t *testing.T) {
	var es []journal.Entry
	// 06:00 UTC is 15:00 in UTC+9.
	for i := 0; i < 10; i++ {
		es = append(es, at(0, 6, i, journal.OutcomeWin, journal.CategoryMaker))
		es = append(es, at(0, 20, i, journal.OutcomeLoss, journal.CategoryMaker))
	}
	tokyo := New(DefaultThresholds(), time.FixedZone("JST", 9*3600))
	in, ok := find(tokyo.TimePatterns(es), IDPeakHour)
	require.True(t, ok)
	assert.Contains(t, in.Headline, "3PM")
}
