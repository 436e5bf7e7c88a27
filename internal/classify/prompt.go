package classify

import (
	"fmt"
	"strings"

	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/ollama"
)

const systemPrompt = `You classify entries of a tactical time log. Each entry is what the user did in the last few minutes. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Categories:
- "MAKER": deep, creative or building work
- "MANAGER": meetings, calls, email, coordination
- "R&D": research, learning, study
- "FUEL": eating, sleep, breaks, family time
- "RECOVERY": exercise and physical recovery
- "BURN": wasted time, doom scrolling, distraction
- "OTHER": admin, chores, anything else

Types:
- "WIN": time spent well
- "LOSS": time lost or wasted
- "DRAW": neutral or necessary

Rules:
- feedback is one short sentence, at most 12 words, in the voice of a blunt coach.
- Judge the entry against the user's strategic priority when one is given.`

// BuildPrompt constructs the chat messages for one classification.
func BuildPrompt(text, priority string) []ollama.Message {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if p := strings.TrimSpace(priority); p != "" {
		fmt.Fprintf(&sb, "\n\n[Strategic Priority]\n%s", p)
	}
	return []ollama.Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: text},
	}
}

func resultSchema() *ollama.Schema {
	cats := make([]string, len(journal.Categories))
	for i, c := range journal.Categories {
		cats[i] = string(c)
	}
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"category": {Type: "string", Description: "Activity category", Enum: cats},
			"type":     {Type: "string", Description: "Outcome of the time spent", Enum: []string{"WIN", "LOSS", "DRAW"}},
			"feedback": {Type: "string", Description: "One short coaching sentence"},
		},
		Required: []string{"category", "type", "feedback"},
	}
}
