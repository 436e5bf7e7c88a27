package classify

import (
	"strings"

	"github.com/kalambet/quarterlog/internal/journal"
)

// DefaultFeedback is attached to entries classified offline.
const DefaultFeedback = "Logged."

type keyword struct {
	word     string
	category journal.Category
}

// keywords are checked in order; the first substring hit wins.
var keywords = []keyword{
	{"meeting", journal.CategoryManager},
	{"call", journal.CategoryManager},
	{"email", journal.CategoryManager},
	{"admin", journal.CategoryOther},
	{"chore", journal.CategoryOther},
	{"code", journal.CategoryMaker},
	{"dev", journal.CategoryMaker},
	{"design", journal.CategoryMaker},
	{"write", journal.CategoryMaker},
	{"research", journal.CategoryResearch},
	{"learn", journal.CategoryResearch},
	{"study", journal.CategoryResearch},
	{"gym", journal.CategoryRecovery},
	{"workout", journal.CategoryRecovery},
	{"exercise", journal.CategoryRecovery},
	{"sleep", journal.CategoryFuel},
	{"eat", journal.CategoryFuel},
	{"lunch", journal.CategoryFuel},
	{"dinner", journal.CategoryFuel},
	{"break", journal.CategoryFuel},
	{"relax", journal.CategoryFuel},
	{"family", journal.CategoryFuel},
	{"waste", journal.CategoryBurn},
	{"scroll", journal.CategoryBurn},
	{"tv", journal.CategoryBurn},
}

// Heuristic classifies text by keyword. BURN is a LOSS, everything else a WIN.
func Heuristic(text string) Result {
	lower := strings.ToLower(text)
	cat := journal.CategoryOther
	for _, k := range keywords {
		if strings.Contains(lower, k.word) {
			cat = k.category
			break
		}
	}
	outcome := journal.OutcomeWin
	if cat == journal.CategoryBurn {
		outcome = journal.OutcomeLoss
	}
	return Result{Category: cat, Outcome: outcome, Feedback: DefaultFeedback, Source: SourceHeuristic}
}
