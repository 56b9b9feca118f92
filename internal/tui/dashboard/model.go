// Package dashboard provides the main TUI: the pane record table, the agent
// ribbon, and the spawn and catalog wizards.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drewfead/maestro/internal/config"
	"github.com/drewfead/maestro/internal/host"
	"github.com/drewfead/maestro/internal/reconcile"
)

// spawn wizard steps
const (
	stepWorkspace = iota
	stepTab
	stepAgent
)

// agent form steps
const (
	formName = iota
	formCommand
	formArgs
	formEnv
	formNote
)

// Model is the dashboard model. All engine mutation happens inside Update,
// so the reconciliation state is single-threaded even though events arrive
// from the host poller's goroutine.
type Model struct {
	engine *reconcile.Engine
	coord  *reconcile.Coordinator

	events     <-chan host.Event
	catalogCh  <-chan *config.Catalog
	agentsPath string
	roots      []string // suggestion roots for the workspace step

	width  int
	height int

	// agent ribbon selection, independent of the table selection
	ribbonIdx int

	// spawn wizard
	spawnMode      bool
	spawnStep      int
	spawnWorkspace string
	suggestions    []string
	suggestIdx     int
	tabIdx         int // 0 = new tab, 1.. = existing tabs

	// agent add/edit form
	agentMode    bool
	agentStep    int
	agentEditing string // original name when editing, "" when adding
	agentDraft   config.Agent

	// pending delete confirmation for the ribbon-selected agent
	confirmDelete string

	input textinput.Model

	statusMsg  string
	statusTime time.Time
	lastUpdate time.Time
}

// New builds the dashboard over an engine and coordinator. catalogCh may be
// nil when hot reload is disabled.
func New(engine *reconcile.Engine, coord *reconcile.Coordinator,
	events <-chan host.Event, catalogCh <-chan *config.Catalog,
	agentsPath string, roots []string) Model {

	input := textinput.New()
	input.CharLimit = 256
	input.Width = 48

	return Model{
		engine:     engine,
		coord:      coord,
		events:     events,
		catalogCh:  catalogCh,
		agentsPath: agentsPath,
		roots:      roots,
		input:      input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events)}
	if m.catalogCh != nil {
		cmds = append(cmds, waitForCatalog(m.catalogCh))
	}
	return tea.Batch(cmds...)
}

// catalog reads through the engine so a hot reload is visible to the ribbon
// and wizard at the same moment it affects attribution.
func (m Model) catalog() *config.Catalog {
	return m.engine.Catalog()
}
