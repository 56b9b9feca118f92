package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/drewfead/maestro/internal/config"
	"github.com/drewfead/maestro/internal/host/tmuxhost"
	"github.com/drewfead/maestro/internal/journal"
	"github.com/drewfead/maestro/internal/logging"
	"github.com/drewfead/maestro/internal/pane"
	"github.com/drewfead/maestro/internal/reconcile"
	"github.com/drewfead/maestro/internal/tui/dashboard"
)

func runDashboard(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("maestro is interactive; run it in a terminal inside tmux")
	}

	if err := logging.Init(logging.Config{
		Level:     logging.ParseLevel(cfg.Logging.Level),
		SentryDSN: cfg.Logging.SentryDSN,
		Env:       "production",
		Version:   version,
		LogFile:   cfg.Logging.LogFile,
	}); err != nil {
		return err
	}
	defer logging.Flush(2 * time.Second)
	defer func() {
		if r := recover(); r != nil {
			panic(logging.CapturePanic(r, "component", "dashboard"))
		}
	}()

	agentsPath := config.DefaultAgentsPath()
	catalog, err := config.LoadCatalog(agentsPath)
	if err != nil {
		return fmt.Errorf("load agent catalog: %w", err)
	}

	var recorder reconcile.Recorder
	if cfg.Journal.Enabled {
		j, err := journal.New(cfg.Journal.Database)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		recorder = j
	}

	h := tmuxhost.New()
	if !h.Installed() {
		return fmt.Errorf("tmux not found in PATH")
	}

	engine := reconcile.NewEngine(pane.NewStore(), catalog, recorder)
	coord := reconcile.NewCoordinator(h, engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := tmuxhost.NewPoller(h, cfg.Host.PollInterval)
	go poller.Run(ctx)

	catalogCh, err := config.WatchAgents(ctx, agentsPath)
	if err != nil {
		logging.Warn("agent catalog watch unavailable", "error", err)
		catalogCh = nil
	}

	model := dashboard.New(engine, coord, h.Events(), catalogCh, agentsPath, suggestionRoots())
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// suggestionRoots are the directories the spawn wizard scans for workspace
// candidates: home and the conventional code directories under it.
func suggestionRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	roots := []string{home}
	for _, dir := range []string{"repos", "src", "code", "projects"} {
		roots = append(roots, filepath.Join(home, dir))
	}
	return roots
}

func runAgentsList() error {
	agents, err := config.LoadMergedAgents(config.DefaultAgentsPath())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOMMAND\tSOURCE\tNOTE")
	for _, a := range agents {
		source := "user"
		if config.IsDefaultAgent(a.Name) {
			source = "built-in"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			a.Name, strings.Join(a.LaunchCommand(), " "), source, a.Note)
	}
	return w.Flush()
}

func runJournalShow(limit int) error {
	j, err := journal.New(cfg.Journal.Database)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Recent(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("journal is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tPANE\tAGENT\tTAB\tDETAIL")
	for _, e := range entries {
		paneID := "-"
		if e.PaneID != nil {
			paneID = fmt.Sprintf("%%%d", *e.PaneID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("01-02 15:04:05"),
			e.Kind, paneID, e.Agent, e.TabName, e.Detail)
	}
	return w.Flush()
}

func runJournalPrune(days int) error {
	j, err := journal.New(cfg.Journal.Database)
	if err != nil {
		return err
	}
	defer j.Close()

	n, err := j.Prune(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	fmt.Printf("pruned %d entries\n", n)
	return nil
}
