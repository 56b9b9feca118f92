package reconcile

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/drewfead/maestro/internal/host"
	"github.com/drewfead/maestro/internal/logging"
	"github.com/drewfead/maestro/internal/pane"
	"github.com/drewfead/maestro/internal/workspace"
)

// TabChoice selects where a spawned pane should live.
type TabChoice struct {
	// Existing names a tab already in the roster. Empty means create a new
	// tab named after the workspace.
	Existing string
}

// ExistingTab places the spawn in the named tab.
func ExistingTab(name string) TabChoice { return TabChoice{Existing: name} }

// NewTab places the spawn in a fresh tab named after the workspace.
func NewTab() TabChoice { return TabChoice{} }

// Coordinator drives the spawn side of the plugin: it reserves an identity
// for a new agent pane, asks the host to open it, and exposes the focused
// pane operations the UI needs. It shares the engine's store and must be
// called from the same event loop.
type Coordinator struct {
	host   host.Host
	engine *Engine
}

// NewCoordinator returns a coordinator spawning through h and recording
// into the engine's store.
func NewCoordinator(h host.Host, engine *Engine) *Coordinator {
	return &Coordinator{host: h, engine: engine}
}

// Spawn opens a pane running the named agent in workspacePath. It inserts a
// pending record keyed by a freshly reserved title, so the spawn survives
// the confirmation event arriving out of order with pane manifests.
func (c *Coordinator) Spawn(agentName, workspacePath string, tab TabChoice) error {
	if !c.engine.PermissionsGranted() {
		return ErrPermissionsNotGranted
	}

	agent, ok := c.engine.catalog.Lookup(agentName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrAgentNotFound, agentName)
	}

	cwd, err := workspace.Resolve(workspacePath)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	tabName := tab.Existing
	if tabName == "" {
		tabName = workspace.DefaultTabName(cwd)
		if err := c.host.NewTab(tabName, cwd); err != nil {
			return fmt.Errorf("new tab: %w", err)
		}
		c.engine.store.EnsureTab(tabName)
	} else if err := c.host.GoToTab(tabName); err != nil {
		return fmt.Errorf("go to tab: %w", err)
	}

	title := ReserveTitle(agent.Name, cwd)
	rec := &pane.Record{
		ReservedTitle: title,
		TabName:       tabName,
		WorkspacePath: cwd,
		AgentName:     agent.Name,
		Status:        pane.StatusRunning,
	}
	c.engine.store.Add(rec)
	c.engine.record(ActionRecordCreated, rec, "spawn requested")

	ctx := map[string]string{
		ctxPaneTitle: title,
		ctxCwd:       cwd,
		ctxAgent:     agent.Name,
		ctxTabName:   tabName,
	}
	if err := c.host.OpenCommandPane(agent.LaunchCommand(), cwd, ctx); err != nil {
		return fmt.Errorf("open pane: %w", err)
	}

	logging.Info("spawned agent pane",
		"agent", agent.Name, "workspace", cwd, "tab", tabName, "title", title)
	return nil
}

// Focus switches to the record's tab and focuses its pane.
func (c *Coordinator) Focus(rec *pane.Record) error {
	if rec.PaneID == nil {
		return ErrPaneIDUnavailable
	}
	if rec.TabName != "" && c.engine.store.ValidTab(rec.TabName) {
		if err := c.host.GoToTab(rec.TabName); err != nil {
			return fmt.Errorf("go to tab: %w", err)
		}
	}
	return c.host.FocusPane(*rec.PaneID)
}

// Kill asks the host to close the record's pane. The record itself is
// removed when the PaneClosed event comes back.
func (c *Coordinator) Kill(rec *pane.Record) error {
	if rec.PaneID == nil {
		return ErrPaneIDUnavailable
	}
	return c.host.ClosePane(*rec.PaneID)
}

// FocusSelected focuses the pane at the store's current selection.
func (c *Coordinator) FocusSelected() error {
	rec, err := c.selected()
	if err != nil {
		return err
	}
	return c.Focus(rec)
}

// KillSelected closes the pane at the store's current selection.
func (c *Coordinator) KillSelected() error {
	rec, err := c.selected()
	if err != nil {
		return err
	}
	return c.Kill(rec)
}

func (c *Coordinator) selected() (*pane.Record, error) {
	records := c.engine.store.Records()
	if len(records) == 0 {
		return nil, ErrNoAgentPanes
	}
	return records[c.engine.store.Selected()], nil
}

// ReserveTitle builds the unique pane title used to correlate a spawn with
// its confirmation: maestro:<agent>:<workspace-basename>:<uuid>.
func ReserveTitle(agent, workspacePath string) string {
	return fmt.Sprintf("maestro:%s:%s:%s",
		agent, workspace.Basename(workspacePath), uuid.NewString())
}
