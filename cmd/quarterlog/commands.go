package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/quarterlog/internal/adherence"
	"github.com/kalambet/quarterlog/internal/api"
	"github.com/kalambet/quarterlog/internal/config"
	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/pattern"
	"github.com/kalambet/quarterlog/internal/score"
	"github.com/kalambet/quarterlog/internal/storage"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// --- log ---

var logCmd = &cobra.Command{
	Use:   "log <text>",
	Short: "Log what you just did",
	Long: `Log what you just did. The daemon classifies it unless you say otherwise.

Examples:
  quarterlog log "reviewed the storage PR"
  quarterlog log --loss "scrolled news instead of writing"
  quarterlog log --win --category MAKER --at 14:30 "finished the draft"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		win, _ := cmd.Flags().GetBool("win")
		loss, _ := cmd.Flags().GetBool("loss")
		draw, _ := cmd.Flags().GetBool("draw")
		category, _ := cmd.Flags().GetString("category")
		at, _ := cmd.Flags().GetString("at")
		date, _ := cmd.Flags().GetString("date")

		outcome, err := outcomeFromFlags(win, loss, draw)
		if err != nil {
			return err
		}
		req, err := buildLogRequest(strings.Join(args, " "), outcome, category, at, date, time.Now())
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/entries", req)
		if err != nil {
			return err
		}
		var e journal.Entry
		if err := decodeJSON(resp, &e); err != nil {
			return err
		}

		fmt.Println(formatEntry(e, time.Local))
		if e.Feedback != "" {
			fmt.Println(colorize(colorDim, "  "+e.Feedback))
		}
		return nil
	},
}

func init() {
	logCmd.Flags().Bool("win", false, "mark the entry as a WIN")
	logCmd.Flags().Bool("loss", false, "mark the entry as a LOSS")
	logCmd.Flags().Bool("draw", false, "mark the entry as a DRAW")
	logCmd.Flags().String("category", "", "category (MAKER, MANAGER, R&D, FUEL, RECOVERY, BURN, OTHER)")
	logCmd.Flags().String("at", "", "time of the entry as HH:MM (default now)")
	logCmd.Flags().String("date", "", "date of the entry as YYYY-MM-DD (default today)")
}

func outcomeFromFlags(win, loss, draw bool) (string, error) {
	var picked []string
	if win {
		picked = append(picked, string(journal.OutcomeWin))
	}
	if loss {
		picked = append(picked, string(journal.OutcomeLoss))
	}
	if draw {
		picked = append(picked, string(journal.OutcomeDraw))
	}
	if len(picked) > 1 {
		return "", fmt.Errorf("only one of --win, --loss or --draw may be given")
	}
	if len(picked) == 0 {
		return "", nil
	}
	return picked[0], nil
}

// buildLogRequest resolves --at and --date against now. A date without a
// time keeps now's clock time.
func buildLogRequest(text, outcome, category, at, date string, now time.Time) (api.LogRequest, error) {
	req := api.LogRequest{Text: strings.TrimSpace(text), Outcome: outcome, Category: category}
	if req.Text == "" {
		return req, fmt.Errorf("entry text is required")
	}
	if at == "" && date == "" {
		return req, nil
	}

	day := timecalc.StartOfDay(now)
	if date != "" {
		d, err := timecalc.ParseDateKey(date, now.Location())
		if err != nil {
			return req, err
		}
		day = d
	}
	tod := journal.At(now)
	if at != "" {
		t, err := journal.ParseTimeOfDay(at)
		if err != nil {
			return req, err
		}
		tod = t
	}
	ts := tod.On(day)
	req.Timestamp = &ts
	return req, nil
}

// --- entries ---

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		date, _ := cmd.Flags().GetString("date")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/entries?"+windowQuery(period, date))
		if err != nil {
			return err
		}
		var entries []journal.Entry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return nil
		}
		lastDay := ""
		for _, e := range entries {
			if day := timecalc.DateKey(e.Timestamp.In(time.Local)); day != lastDay {
				fmt.Println(colorize(colorBold, day))
				lastDay = day
			}
			fmt.Printf("  %s  %s\n", colorize(colorDim, shortID(e.ID)), formatEntry(e, time.Local))
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/entries/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Deleted entry %s", args[0])
		return nil
	},
}

func init() {
	entriesCmd.Flags().String("period", "D", "period: D, W, M, 3M, Y or ALL")
	entriesCmd.Flags().String("date", "", "anchor date YYYY-MM-DD (default today)")
}

func windowQuery(period, date string) string {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if date != "" {
		q.Set("date", date)
	}
	return q.Encode()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- score, history, insights, debrief ---

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the focus score",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		date, _ := cmd.Flags().GetString("date")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/score?"+windowQuery(period, date))
		if err != nil {
			return err
		}
		var v api.ScoreView
		if err := decodeJSON(resp, &v); err != nil {
			return err
		}
		printScore(os.Stdout, v)
		return nil
	},
}

func printScore(w io.Writer, v api.ScoreView) {
	fmt.Fprintf(w, "%s %s  %s %d\n", colorize(colorBold, "Focus"), v.Period.Label(), bar(v.Score, 20), v.Score)
	b := v.Breakdown
	fmt.Fprintf(w, "  win rate     %2d/%d\n", b.WinRate, score.WinWeight)
	fmt.Fprintf(w, "  deep work    %2d/%d\n", b.MakerRatio, score.MakerWeight)
	fmt.Fprintf(w, "  consistency  %2d/%d\n", b.Consistency, score.ConsistencyCap)
	fmt.Fprintf(w, "  streak       %2d/%d\n", b.StreakBonus, score.StreakCap)
	fmt.Fprintf(w, "%d W / %d L / %d D, streak %s\n", v.Tally.Wins, v.Tally.Losses, v.Tally.Draws, dayCount(v.Streak))
	if v.Rank.Next != "" {
		fmt.Fprintf(w, "Rank %s, %d wins to %s\n", v.Rank.Rank, v.Rank.WinsToNext, v.Rank.Next)
	} else {
		fmt.Fprintf(w, "Rank %s\n", v.Rank.Rank)
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show daily focus scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		path := "/score/history"
		if days > 0 {
			path += fmt.Sprintf("?days=%d", days)
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}
		var hist []score.DayScore
		if err := decodeJSON(resp, &hist); err != nil {
			return err
		}
		for _, d := range hist {
			fmt.Printf("%s  %s %3d\n", d.Date, bar(d.Score, 20), d.Score)
		}
		return nil
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show patterns found in your journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("max")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/insights?max=%d", limit))
		if err != nil {
			return err
		}
		var v api.InsightsView
		if err := decodeJSON(resp, &v); err != nil {
			return err
		}
		printInsights(os.Stdout, v)
		return nil
	},
}

func printInsights(w io.Writer, v api.InsightsView) {
	if len(v.Insights) == 0 {
		if missing := v.MinEntries - v.TotalEntries; missing > 0 {
			fmt.Fprintf(w, "Log %d more entries to unlock insights (%d/%d).\n", missing, v.TotalEntries, v.MinEntries)
		} else {
			fmt.Fprintln(w, "No strong patterns yet.")
		}
		return
	}
	for _, in := range v.Insights {
		color := colorCyan
		switch in.Severity {
		case pattern.SeverityWarning:
			color = colorYellow
		case pattern.SeverityPositive:
			color = colorGreen
		}
		fmt.Fprintf(w, "%s %s\n", in.Icon, colorize(color, in.Headline))
		fmt.Fprintf(w, "   %s\n", in.Detail)
	}
}

var debriefCmd = &cobra.Command{
	Use:   "debrief",
	Short: "Show the weekly debrief",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/debrief?"+windowQuery("", date))
		if err != nil {
			return err
		}
		var d score.Debrief
		if err := decodeJSON(resp, &d); err != nil {
			return err
		}

		fmt.Printf("%s %s to %s\n", colorize(colorBold, "Week"), d.WeekStart, d.WeekEnd)
		for _, day := range d.Days {
			fmt.Printf("  %s %s  %s %3d  %dW %dL %dD\n", day.Weekday, day.Date, bar(day.FocusScore, 10),
				day.FocusScore, day.Tally.Wins, day.Tally.Losses, day.Tally.Draws)
		}
		fmt.Printf("%d entries, %d%% wins, average score %d\n", d.Total, d.WinRate, d.AverageScore)
		if d.BestDay != nil {
			fmt.Printf("Best day %s (%d)\n", d.BestDay.Date, d.BestDay.FocusScore)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().String("period", "D", "period: D, W, M, 3M, Y or ALL")
	scoreCmd.Flags().String("date", "", "anchor date YYYY-MM-DD (default today)")
	historyCmd.Flags().Int("days", 0, "number of days (default from config)")
	insightsCmd.Flags().Int("max", 5, "maximum number of insights")
	debriefCmd.Flags().String("date", "", "any date in the week (default today)")
}

// --- plan ---

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a day and check adherence",
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the plan for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		key := planDateKey(cmd)
		p, found, err := fetchPlan(cmd.Context(), client, key)
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("No plan for %s.\n", key)
			return nil
		}
		printPlan(os.Stdout, p)
		return nil
	},
}

func printPlan(w io.Writer, p journal.DayPlan) {
	fmt.Fprintln(w, colorize(colorBold, "Plan for "+p.DateKey))
	if p.Dragon != "" {
		fmt.Fprintf(w, "  Dragon: %s\n", p.Dragon)
	}
	for _, pillar := range p.Pillars {
		fmt.Fprintf(w, "  Pillar: %s\n", pillar)
	}
	for _, c := range p.Constraints {
		fmt.Fprintf(w, "  Constraint: %s\n", c)
	}
	for _, b := range p.Blocks {
		fmt.Fprintf(w, "  %s  %-9s %s\n", b.Start, b.Category.Label(), b.Label)
	}
}

var planSetCmd = &cobra.Command{
	Use:   "set <HH:MM> <label>",
	Short: "Plan a block",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		start, err := journal.ParseTimeOfDay(args[0])
		if err != nil {
			return err
		}
		block := journal.PlannedBlock{
			Start:    start,
			Label:    strings.Join(args[1:], " "),
			Category: journal.ParseCategory(category),
		}

		return updatePlan(cmd, func(p *journal.DayPlan) error {
			p.SetBlock(block)
			return nil
		}, fmt.Sprintf("Planned %s %s", block.Start, block.Label))
	},
}

var planClearCmd = &cobra.Command{
	Use:   "clear [HH:MM]",
	Short: "Clear one block, or the whole plan",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			start, err := journal.ParseTimeOfDay(args[0])
			if err != nil {
				return err
			}
			return updatePlan(cmd, func(p *journal.DayPlan) error {
				if !p.ClearBlock(start) {
					return fmt.Errorf("no block planned at %s", start)
				}
				return nil
			}, fmt.Sprintf("Cleared %s", start))
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		key := planDateKey(cmd)
		resp, err := client.delete(cmd.Context(), "/plans/"+key)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Cleared plan for %s", key)
		return nil
	},
}

var planObjectiveCmd = &cobra.Command{
	Use:   "objective",
	Short: "Set the day's dragon, pillars and constraints",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		dragon, _ := flags.GetString("dragon")
		pillars, _ := flags.GetStringArray("pillar")
		constraints, _ := flags.GetStringArray("constraint")

		return updatePlan(cmd, func(p *journal.DayPlan) error {
			if flags.Changed("dragon") {
				p.Dragon = strings.TrimSpace(dragon)
			}
			if flags.Changed("pillar") {
				p.Pillars = pillars
			}
			if flags.Changed("constraint") {
				p.Constraints = constraints
			}
			return nil
		}, "Objectives updated")
	},
}

var planAdherenceCmd = &cobra.Command{
	Use:   "adherence",
	Short: "Compare a day's entries with its plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/plans/"+planDateKey(cmd)+"/adherence")
		if err != nil {
			return err
		}
		var rep adherence.Report
		if err := decodeJSON(resp, &rep); err != nil {
			return err
		}

		fmt.Printf("%s %s  %d%% (%d of %d slots verified, %d planned)\n",
			colorize(colorBold, "Adherence"), rep.Date, rep.Percent, rep.Verified, rep.Total, rep.Planned)
		for _, s := range rep.Slots {
			if s.Status == adherence.StatusIdle {
				continue
			}
			fmt.Printf("  %s  %s\n", s.Start, slotLine(s))
		}
		return nil
	},
}

func slotLine(s adherence.SlotReport) string {
	var parts []string
	if s.Block != nil {
		parts = append(parts, "plan: "+s.Block.Label)
	}
	if s.Entry != nil {
		parts = append(parts, "did: "+s.Entry.Text)
	}
	status := string(s.Status)
	switch s.Status {
	case adherence.StatusVerified:
		status = colorize(colorGreen, status)
	case adherence.StatusMissed:
		status = colorize(colorRed, status)
	case adherence.StatusUnplanned:
		status = colorize(colorYellow, status)
	}
	return fmt.Sprintf("%-9s %s", status, strings.Join(parts, ", "))
}

func init() {
	planCmd.PersistentFlags().String("date", "", "plan date YYYY-MM-DD (default today)")
	planSetCmd.Flags().String("category", "MAKER", "block category")
	planObjectiveCmd.Flags().String("dragon", "", "the one thing that must happen")
	planObjectiveCmd.Flags().StringArray("pillar", nil, "a supporting task (repeat, at most 3)")
	planObjectiveCmd.Flags().StringArray("constraint", nil, "a rule for the day (repeat)")

	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planSetCmd)
	planCmd.AddCommand(planClearCmd)
	planCmd.AddCommand(planObjectiveCmd)
	planCmd.AddCommand(planAdherenceCmd)
}

func planDateKey(cmd *cobra.Command) string {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		return timecalc.DateKey(time.Now())
	}
	return date
}

// fetchPlan returns the stored plan, or an empty one and false when the day
// has none yet.
func fetchPlan(ctx context.Context, client *apiClient, dateKey string) (journal.DayPlan, bool, error) {
	resp, err := client.get(ctx, "/plans/"+dateKey)
	if err != nil {
		return journal.DayPlan{}, false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return journal.DayPlan{DateKey: dateKey}, false, nil
	}
	var p journal.DayPlan
	if err := decodeJSON(resp, &p); err != nil {
		return journal.DayPlan{}, false, err
	}
	return p, true, nil
}

// updatePlan is a read-modify-write of one day's plan.
func updatePlan(cmd *cobra.Command, edit func(*journal.DayPlan) error, done string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	key := planDateKey(cmd)
	p, _, err := fetchPlan(cmd.Context(), client, key)
	if err != nil {
		return err
	}
	if err := edit(&p); err != nil {
		return err
	}
	resp, err := client.put(cmd.Context(), "/plans/"+key, p)
	if err != nil {
		return err
	}
	if err := decodeJSON(resp, &p); err != nil {
		return err
	}
	printSuccess("%s", done)
	return nil
}

// --- schedule ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show or change the working window",
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the working window",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/schedule")
		if err != nil {
			return err
		}
		var s journal.Schedule
		if err := decodeJSON(resp, &s); err != nil {
			return err
		}
		printSchedule(s)
		return nil
	},
}

func printSchedule(s journal.Schedule) {
	state := "enabled"
	if !s.Enabled {
		state = "disabled"
	}
	printStatus("Window", "%s-%s (%s)", s.Start, s.End, state)
	printStatus("Days", "%s", formatWeekdays(s.Days))
	printStatus("Interval", "%d minutes", int(s.Interval()/time.Minute))
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the working window",
	Long: `Change the working window. Only the flags given are changed.

Example:
  quarterlog schedule set --start 08:30 --end 16:30 --days mon,tue,wed,thu`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/schedule")
		if err != nil {
			return err
		}
		var s journal.Schedule
		if err := decodeJSON(resp, &s); err != nil {
			return err
		}

		if err := applyScheduleFlags(cmd, &s); err != nil {
			return err
		}

		resp, err = client.put(cmd.Context(), "/schedule", s)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, &s); err != nil {
			return err
		}
		printSuccess("Schedule updated")
		printSchedule(s)
		return nil
	},
}

func applyScheduleFlags(cmd *cobra.Command, s *journal.Schedule) error {
	flags := cmd.Flags()
	if flags.Changed("start") {
		v, _ := flags.GetString("start")
		t, err := journal.ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		s.Start = t
	}
	if flags.Changed("end") {
		v, _ := flags.GetString("end")
		t, err := journal.ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		s.End = t
	}
	if flags.Changed("days") {
		v, _ := flags.GetString("days")
		days, err := parseWeekdays(v)
		if err != nil {
			return err
		}
		s.Days = days
	}
	if flags.Changed("interval") {
		s.IntervalMinutes, _ = flags.GetInt("interval")
	}
	if flags.Changed("enabled") {
		s.Enabled, _ = flags.GetBool("enabled")
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// parseWeekdays accepts comma-separated names ("mon,tue") or numbers with
// Sunday as 0.
func parseWeekdays(s string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) > 3 {
			part = part[:3]
		}
		if d, ok := weekdayNames[part]; ok {
			out = append(out, d)
			continue
		}
		var n int
		if _, err := fmt.Sscanf(part, "%d", &n); err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}

func formatWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return "every day"
	}
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ",")
}

func init() {
	scheduleSetCmd.Flags().String("start", "", "window start HH:MM")
	scheduleSetCmd.Flags().String("end", "", "window end HH:MM (earlier than start wraps past midnight)")
	scheduleSetCmd.Flags().String("days", "", "active weekdays, e.g. mon,tue,wed")
	scheduleSetCmd.Flags().Int("interval", 15, "check-in interval in minutes")
	scheduleSetCmd.Flags().Bool("enabled", true, "enable the working window")

	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleSetCmd)
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and read coach reports",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Queue a report for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		date, _ := cmd.Flags().GetString("date")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/reports", map[string]string{"period": period, "date": date})
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if result["status"] == "already_queued" {
			printWarning("Report %s is already queued", result["key"])
			return nil
		}
		printSuccess("Queued report %s", result["key"])
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/reports?limit=%d", limit))
		if err != nil {
			return err
		}
		var reports []storage.Report
		if err := decodeJSON(resp, &reports); err != nil {
			return err
		}

		if len(reports) == 0 {
			fmt.Println("No reports yet.")
			return nil
		}
		for _, r := range reports {
			marker := " "
			if !r.Read {
				marker = colorize(colorCyan, "•")
			}
			fmt.Printf("%s %-14s %s\n", marker, r.Key, r.Summary)
		}
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show a report and mark it read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		key := url.PathEscape(args[0])
		resp, err := client.get(cmd.Context(), "/reports/"+key)
		if err != nil {
			return err
		}
		var r storage.Report
		if err := decodeJSON(resp, &r); err != nil {
			return err
		}

		fmt.Println(colorize(colorBold, r.Summary))
		fmt.Println()
		fmt.Println(r.Content)

		if !r.Read {
			resp, err := client.post(cmd.Context(), "/reports/"+key+"/read", nil)
			if err != nil {
				return err
			}
			return decodeJSON(resp, nil)
		}
		return nil
	},
}

func init() {
	reportGenerateCmd.Flags().String("period", "D", "period: D, W, M, 3M, Y or ALL")
	reportGenerateCmd.Flags().String("date", "", "anchor date YYYY-MM-DD (default today)")
	reportListCmd.Flags().Int("limit", 20, "maximum number of reports")

	reportCmd.AddCommand(reportGenerateCmd)
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries as CSV, JSON or text",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		period, _ := cmd.Flags().GetString("period")
		date, _ := cmd.Flags().GetString("date")
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		q := url.Values{}
		q.Set("format", format)
		if period != "" {
			q.Set("period", period)
		}
		if date != "" {
			q.Set("date", date)
		}
		resp, err := client.get(cmd.Context(), "/export?"+q.Encode())
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return responseError(resp)
		}

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		if _, err := io.Copy(w, resp.Body); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		if output != "" {
			printSuccess("Exported to %s", output)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "csv", "csv, json or txt")
	exportCmd.Flags().String("period", "ALL", "period: D, W, M, 3M, Y or ALL")
	exportCmd.Flags().String("date", "", "anchor date YYYY-MM-DD (default today)")
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
