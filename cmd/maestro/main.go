// Command maestro is the agent pane dashboard. Run inside tmux, it tracks
// the panes your coding agents live in and spawns new ones.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drewfead/maestro/internal/config"
)

var version = "dev"

var cfg *config.Config

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Track and spawn coding agent panes in your multiplexer",
	Long: `maestro keeps a live table of the terminal panes your coding agents
(claude, codex, cursor, gemini, ...) are running in, reconciled from the
multiplexer's own state, and spawns new agent panes into the right tab.

Run it inside tmux. The dashboard shows one row per agent pane; press n to
spawn an agent into a workspace.`,
	RunE: runDashboard,
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgentsList()
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the reconciliation journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runJournalShow(limit)
	},
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		return runJournalPrune(days)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the maestro version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("maestro", version)
	},
}

func init() {
	journalCmd.Flags().IntP("limit", "l", 50, "Maximum entries to show")
	journalPruneCmd.Flags().IntP("days", "d", 30, "Delete entries older than this many days")

	journalCmd.AddCommand(journalPruneCmd)
	rootCmd.AddCommand(agentsCmd, journalCmd, versionCmd)
}
