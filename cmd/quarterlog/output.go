package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

func outcomeColor(o journal.Outcome) string {
	switch o {
	case journal.OutcomeWin:
		return colorGreen
	case journal.OutcomeLoss:
		return colorRed
	default:
		return colorYellow
	}
}

// formatEntry renders one journal line: "09:15  WIN   Deep Work text".
func formatEntry(e journal.Entry, loc *time.Location) string {
	outcome := fmt.Sprintf("%-4s", e.Outcome)
	return fmt.Sprintf("%s  %s  %-9s %s",
		e.Timestamp.In(loc).Format("15:04"),
		colorize(outcomeColor(e.Outcome), outcome),
		e.Category.Label(),
		e.Text,
	)
}

// bar draws a fixed-width gauge for a 0-100 value.
func bar(value, width int) string {
	filled := min(width, max(0, value*width/100))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
