package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/drewfead/maestro/internal/config"
	"github.com/drewfead/maestro/internal/reconcile"
	"github.com/drewfead/maestro/internal/workspace"
)

const statusTTL = 4 * time.Second

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case hostEventMsg:
		m.engine.Apply(msg.ev)
		m.lastUpdate = time.Now()
		return m, waitForEvent(m.events)

	case catalogMsg:
		m.engine.SetCatalog(msg.catalog)
		m.clampRibbon()
		return m.status("agent catalog reloaded"), tea.Batch(
			waitForCatalog(m.catalogCh), clearStatusAfter(statusTTL))

	case clearStatusMsg:
		if time.Since(m.statusTime) >= statusTTL {
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.confirmDelete != "":
			return m.handleConfirmKey(msg)
		case m.spawnMode:
			return m.handleSpawnKey(msg)
		case m.agentMode:
			return m.handleAgentKey(msg)
		default:
			return m.handleKey(msg)
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	store := m.engine.Store()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		store.Select(store.Selected() + 1)
	case "k", "up":
		store.Select(store.Selected() - 1)

	case "enter", "f":
		if err := m.coord.FocusSelected(); err != nil {
			return m.opError("focus", err)
		}

	case "x":
		if err := m.coord.KillSelected(); err != nil {
			return m.opError("kill", err)
		}
		return m.statusTimed("closing pane")

	case "h", "left":
		m.ribbonIdx--
		m.clampRibbon()
	case "l", "right":
		m.ribbonIdx++
		m.clampRibbon()

	case "n":
		m.spawnMode = true
		m.spawnStep = stepWorkspace
		m.spawnWorkspace = ""
		m.suggestions = workspace.Suggestions("", m.roots, maxSuggestions)
		m.suggestIdx = -1
		m.input = freshInput("workspace path")
		return m, textinput.Blink

	case "a":
		m.agentMode = true
		m.agentStep = formName
		m.agentEditing = ""
		m.agentDraft = config.Agent{}
		m.input = freshInput("agent name")
		return m, textinput.Blink

	case "e":
		agent, ok := m.ribbonAgent()
		if !ok {
			return m.statusTimed("no agent selected")
		}
		m.agentMode = true
		m.agentStep = formName
		m.agentEditing = agent.Name
		m.agentDraft = agent
		m.input = freshInput("agent name")
		m.input.SetValue(agent.Name)
		return m, textinput.Blink

	case "d":
		agent, ok := m.ribbonAgent()
		if !ok {
			return m.statusTimed("no agent selected")
		}
		if config.IsDefaultAgent(agent.Name) {
			return m.statusTimed("built-in agents cannot be removed, edit to override")
		}
		m.confirmDelete = agent.Name
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		name := m.confirmDelete
		m.confirmDelete = ""
		if err := m.saveAgents(func(agents []config.Agent) []config.Agent {
			return slices.DeleteFunc(agents, func(a config.Agent) bool {
				return config.NamesMatch(a.Name, name)
			})
		}); err != nil {
			return m.opError("delete agent", err)
		}
		return m.statusTimed(fmt.Sprintf("removed agent %q", name))
	default:
		m.confirmDelete = ""
		return m, nil
	}
}

func (m Model) handleSpawnKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.spawnMode = false
		return m, nil
	}

	switch m.spawnStep {
	case stepWorkspace:
		return m.handleWorkspaceStep(msg)
	case stepTab:
		return m.handleTabStep(msg)
	case stepAgent:
		return m.handleAgentStep(msg)
	}
	return m, nil
}

func (m Model) handleWorkspaceStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		// cycle through suggestions, filling the input
		if len(m.suggestions) == 0 {
			return m, nil
		}
		m.suggestIdx = (m.suggestIdx + 1) % len(m.suggestions)
		m.input.SetValue(m.suggestions[m.suggestIdx])
		m.input.CursorEnd()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m.statusTimed("workspace path required")
		}
		resolved, err := workspace.Resolve(value)
		if err != nil {
			return m.opError("resolve workspace", err)
		}
		m.spawnWorkspace = resolved
		m.spawnStep = stepTab
		m.tabIdx = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.suggestions = workspace.Suggestions(m.input.Value(), m.roots, maxSuggestions)
	m.suggestIdx = -1
	return m, cmd
}

func (m Model) handleTabStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	options := len(m.engine.Store().Tabs()) + 1 // slot 0 is "new tab"
	switch msg.String() {
	case "j", "down", "tab":
		m.tabIdx = (m.tabIdx + 1) % options
	case "k", "up":
		m.tabIdx = (m.tabIdx - 1 + options) % options
	case "enter":
		m.spawnStep = stepAgent
		m.ribbonIdx = 0
		m.input = freshInput("type to filter")
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) handleAgentStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.catalog().Len() == 0 {
		m.spawnMode = false
		return m.statusTimed("no agents configured")
	}

	agents := m.filteredAgents()
	switch msg.String() {
	case "down", "tab":
		if len(agents) > 0 {
			m.ribbonIdx = (m.ribbonIdx + 1) % len(agents)
		}
		return m, nil
	case "up":
		if len(agents) > 0 {
			m.ribbonIdx = (m.ribbonIdx - 1 + len(agents)) % len(agents)
		}
		return m, nil
	case "enter":
		if len(agents) == 0 {
			return m.statusTimed("no agents match filter")
		}
		m.spawnMode = false
		choice := reconcile.NewTab()
		if m.tabIdx > 0 {
			choice = reconcile.ExistingTab(m.engine.Store().TabName(m.tabIdx - 1))
		}
		if err := m.coord.Spawn(agents[m.ribbonIdx].Name, m.spawnWorkspace, choice); err != nil {
			return m.opError("spawn", err)
		}
		return m.statusTimed(fmt.Sprintf("spawning %s in %s",
			agents[m.ribbonIdx].Name, workspace.DefaultTabName(m.spawnWorkspace)))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ribbonIdx = 0
	return m, cmd
}

// filteredAgents narrows the catalog by the wizard's filter input.
func (m Model) filteredAgents() []config.Agent {
	agents := m.catalog().Agents()
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return agents
	}
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name
	}
	matches := fuzzy.Find(query, names)
	out := make([]config.Agent, len(matches))
	for i, match := range matches {
		out[i] = agents[match.Index]
	}
	return out
}

func (m Model) handleAgentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.agentMode = false
		return m, nil
	}
	if msg.String() != "enter" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	value := strings.TrimSpace(m.input.Value())
	switch m.agentStep {
	case formName:
		if value == "" {
			return m.statusTimed("name required")
		}
		m.agentDraft.Name = value
		m.agentStep = formCommand
		m.input = freshInput("command")
		m.input.SetValue(m.agentDraft.Command)
		return m, textinput.Blink

	case formCommand:
		if value == "" {
			return m.statusTimed("command required")
		}
		m.agentDraft.Command = value
		m.agentStep = formArgs
		m.input = freshInput("arguments (space separated)")
		m.input.SetValue(strings.Join(m.agentDraft.Args, " "))
		return m, textinput.Blink

	case formArgs:
		m.agentDraft.Args = strings.Fields(value)
		m.agentStep = formEnv
		m.input = freshInput("env (K=V,K=V)")
		m.input.SetValue(config.FormatEnv(m.agentDraft.Env))
		return m, textinput.Blink

	case formEnv:
		env, err := config.ParseEnv(value)
		if err != nil {
			return m.statusTimed(err.Error())
		}
		m.agentDraft.Env = env
		m.agentStep = formNote
		m.input = freshInput("note (optional)")
		m.input.SetValue(m.agentDraft.Note)
		return m, textinput.Blink

	case formNote:
		m.agentDraft.Note = value
		m.agentMode = false
		editing := m.agentEditing
		draft := m.agentDraft
		if err := m.saveAgents(func(agents []config.Agent) []config.Agent {
			for i := range agents {
				if config.NamesMatch(agents[i].Name, pick(editing, draft.Name)) {
					agents[i] = draft
					return agents
				}
			}
			return append(agents, draft)
		}); err != nil {
			return m.opError("save agent", err)
		}
		return m.statusTimed(fmt.Sprintf("saved agent %q", draft.Name))
	}
	return m, nil
}

// saveAgents applies mutate to the user's agent file and refreshes the
// engine's catalog immediately rather than waiting for the file watcher.
func (m *Model) saveAgents(mutate func([]config.Agent) []config.Agent) error {
	agents, err := config.LoadAgents(m.agentsPath)
	if err != nil {
		return err
	}
	agents = mutate(agents)
	if err := config.ValidateAgents(agents); err != nil {
		return err
	}
	if err := config.SaveAgents(m.agentsPath, agents); err != nil {
		return err
	}

	catalog, err := config.LoadCatalog(m.agentsPath)
	if err != nil {
		return err
	}
	m.engine.SetCatalog(catalog)
	m.clampRibbon()
	return nil
}

func (m Model) ribbonAgent() (config.Agent, bool) {
	agents := m.catalog().Agents()
	if m.ribbonIdx < 0 || m.ribbonIdx >= len(agents) {
		return config.Agent{}, false
	}
	return agents[m.ribbonIdx], true
}

func (m *Model) clampRibbon() {
	n := m.catalog().Len()
	if n == 0 {
		m.ribbonIdx = 0
		return
	}
	if m.ribbonIdx < 0 {
		m.ribbonIdx = 0
	}
	if m.ribbonIdx >= n {
		m.ribbonIdx = n - 1
	}
}

func (m Model) status(msg string) Model {
	m.statusMsg = msg
	m.statusTime = time.Now()
	return m
}

func (m Model) statusTimed(msg string) (tea.Model, tea.Cmd) {
	m = m.status(msg)
	return m, clearStatusAfter(statusTTL)
}

func (m Model) opError(op string, err error) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(err, reconcile.ErrNoAgentPanes):
		return m.statusTimed("no agent panes")
	case errors.Is(err, reconcile.ErrPaneIDUnavailable):
		return m.statusTimed("pane not confirmed yet")
	case errors.Is(err, reconcile.ErrPermissionsNotGranted):
		return m.statusTimed("host permissions not granted")
	default:
		return m.statusTimed(fmt.Sprintf("✗ %s: %v", op, err))
	}
}

func freshInput(placeholder string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = 256
	input.Width = 48
	input.Focus()
	return input
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

const maxSuggestions = 5
