package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrNotRunning = errors.New("Ollama is not running. Start it with: ollama serve")

// EnsureReady checks that Ollama is up, pulls any of models that are
// missing, then warms the first one so the first classification does not
// pay the load time. Progress goes to w.
func EnsureReady(ctx context.Context, c *Client, w io.Writer, models ...string) error {
	if !c.IsRunning(ctx) {
		return ErrNotRunning
	}

	seen := make(map[string]bool, len(models))
	for _, model := range models {
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true

		if c.HasModel(ctx, model) {
			fmt.Fprintf(w, "model %s: ready\n", model)
			continue
		}

		fmt.Fprintf(w, "model %s: pulling...\n", model)
		err := c.PullModel(ctx, model, func(p PullProgress) {
			if pct := p.Percent(); pct >= 0 {
				fmt.Fprintf(w, "  %s %.0f%%\n", p.Status, pct)
			} else {
				fmt.Fprintf(w, "  %s\n", p.Status)
			}
		})
		if err != nil {
			return fmt.Errorf("pulling model %s: %w", model, err)
		}
		fmt.Fprintf(w, "model %s: ready\n", model)
	}

	if len(models) == 0 || models[0] == "" {
		return nil
	}
	warm := models[0]
	fmt.Fprintf(w, "model %s: warming up...\n", warm)
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := c.Chat(warmCtx, warm, []Message{{Role: "user", Content: "ping"}}, nil); err != nil {
		fmt.Fprintf(w, "model %s: warm-up failed (non-fatal): %v\n", warm, err)
	} else {
		fmt.Fprintf(w, "model %s: warm\n", warm)
	}
	return nil
}
