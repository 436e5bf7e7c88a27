// Package export renders journal entries as plain text, CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kalambet/quarterlog/internal/journal"
)

type Format string

const (
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatTXT, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, txt or json)", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename is the suggested download name, e.g. quarter_log_20260304.csv.
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("quarter_log_%s.%s", now.Format("20060102"), f)
}

const bom = "\uFEFF"

var csvHeader = []string{"ID", "Date", "Time", "Type", "Category", "Duration_Minutes", "Description"}

// Write renders entries oldest first. now stamps the TXT header and loc sets
// the timezone of every date and time; nil means time.Local.
func Write(w io.Writer, f Format, entries []journal.Entry, now time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	sorted := make([]journal.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	switch f {
	case FormatTXT:
		return writeTXT(w, sorted, now.In(loc), loc)
	case FormatCSV:
		return writeCSV(w, sorted, loc)
	case FormatJSON:
		return writeJSON(w, sorted)
	}
	return fmt.Errorf("unknown export format %q", f)
}

func writeTXT(w io.Writer, entries []journal.Entry, now time.Time, loc *time.Location) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "LOG EXPORT - %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Total Entries: %d\n\n", len(entries))
	for _, e := range entries {
		ts := e.Timestamp.In(loc)
		fmt.Fprintf(&sb, "%s [%s] - %s\n", ts.Format("2006-01-02 15:04"), e.Outcome, e.Text)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeCSV(w io.Writer, entries []journal.Entry, loc *time.Location) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		ts := e.Timestamp.In(loc)
		rec := []string{
			e.ID,
			ts.Format("2006-01-02"),
			ts.Format("15:04"),
			string(e.Outcome),
			string(e.Category),
			fmt.Sprint(int(math.Round(e.Duration.Minutes()))),
			e.Text,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, entries []journal.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []journal.Entry{}
	}
	return enc.Encode(entries)
}
