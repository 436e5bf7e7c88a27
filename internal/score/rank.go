package score

import (
	"github.com/kalambet/quarterlog/internal/timecalc"
)

type Rank string

const (
	RankIntern    Rank = "INTERN"
	RankAssociate Rank = "ASSOCIATE"
	RankProducer  Rank = "PRODUCER"
	RankDirector  Rank = "DIRECTOR"
	RankExecutive Rank = "EXECUTIVE"
	RankCEO       Rank = "CEO"
	RankTycoon    Rank = "TYCOON"
	RankMonarch   Rank = "MONARCH"
)

var Ranks = []Rank{
	RankIntern, RankAssociate, RankProducer, RankDirector,
	RankExecutive, RankCEO, RankTycoon, RankMonarch,
}

// rankThresholds holds the minimum wins for each rank, per viewing period.
var rankThresholds = map[timecalc.Period][]int{
	timecalc.PeriodDay:     {0, 4, 8, 12, 16, 24, 32, 40},
	timecalc.PeriodWeek:    {0, 20, 40, 60, 80, 120, 160, 200},
	timecalc.PeriodMonth:   {0, 80, 160, 240, 320, 480, 640, 800},
	timecalc.PeriodQuarter: {0, 240, 480, 720, 960, 1440, 1920, 2400},
	timecalc.PeriodYear:    {0, 960, 1920, 2880, 3840, 5760, 7680, 9600},
	timecalc.PeriodAll:     {0, 10, 25, 50, 100, 250, 500, 1000},
}

// Progress describes where a win count sits on the rank ladder.
type Progress struct {
	Rank       Rank    `json:"rank"`
	Next       Rank    `json:"next,omitempty"`
	Wins       int     `json:"wins"`
	Percent    float64 `json:"percent"`
	WinsToNext int     `json:"wins_to_next"`
}

// RankFor returns the rank reached with wins in period p. Unknown periods
// use the lifetime ladder.
func RankFor(wins int, p timecalc.Period) Progress {
	th, ok := rankThresholds[p]
	if !ok {
		th = rankThresholds[timecalc.PeriodAll]
	}

	idx := 0
	for i, threshold := range th {
		if wins >= threshold {
			idx = i
		}
	}

	pr := Progress{Rank: Ranks[idx], Wins: wins}
	if idx == len(Ranks)-1 {
		pr.Percent = 100
		return pr
	}

	lo, hi := th[idx], th[idx+1]
	pr.Next = Ranks[idx+1]
	pr.WinsToNext = hi - wins
	pr.Percent = min(100, max(0, float64(wins-lo)/float64(hi-lo)*100))
	return pr
}
