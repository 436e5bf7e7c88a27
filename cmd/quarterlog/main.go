package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "quarterlog",
	Short: "A 15-minute work journal with focus scores and pattern insights",
	Long: `quarterlog keeps a journal of what you did every quarter hour, scores
your focus, finds patterns in your wins and losses, and checks your day
against its plan.

Start the daemon with "quarterlog serve", then log from anywhere:
  quarterlog log "wrote the parser tests"
  quarterlog log --loss "doomscrolled for 20 minutes"`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("NO_COLOR") != "" {
			noColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(debriefCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

