package dashboard

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drewfead/maestro/internal/config"
	"github.com/drewfead/maestro/internal/host"
	"github.com/drewfead/maestro/internal/pane"
	"github.com/drewfead/maestro/internal/reconcile"
)

type nopHost struct {
	focused []int
	closed  []int
}

func (h *nopHost) OpenCommandPane([]string, string, map[string]string) error { return nil }
func (h *nopHost) ClosePane(id int) error                                    { h.closed = append(h.closed, id); return nil }
func (h *nopHost) FocusPane(id int) error                                    { h.focused = append(h.focused, id); return nil }
func (h *nopHost) GoToTab(string) error                                      { return nil }
func (h *nopHost) NewTab(string, string) error                               { return nil }

func newTestModel(t *testing.T) (Model, *nopHost, chan host.Event) {
	t.Helper()
	catalog := config.NewCatalog([]config.Agent{
		{Name: "claude", Command: "claude"},
		{Name: "codex", Command: "codex"},
	})
	engine := reconcile.NewEngine(pane.NewStore(), catalog, nil)
	engine.Apply(host.PermissionResult{Granted: true})
	h := &nopHost{}
	coord := reconcile.NewCoordinator(h, engine)
	events := make(chan host.Event, 8)
	agentsPath := filepath.Join(t.TempDir(), "agents.yaml")
	m := New(engine, coord, events, nil, agentsPath, nil)
	return m, h, events
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func TestHostEventsDriveTable(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, hostEventMsg{ev: host.TabsUpdated{
		Tabs: []host.TabInfo{{Position: 0, Name: "api"}},
	}})
	m = update(t, m, hostEventMsg{ev: host.PanesUpdated{
		Panes: map[int][]host.PaneInfo{
			0: {{ID: 3, Title: "claude", Command: "claude"}},
		},
	}})

	view := m.View()
	if !strings.Contains(view, "claude") || !strings.Contains(view, "api") {
		t.Fatalf("view missing tracked pane:\n%s", view)
	}
	if !strings.Contains(view, "%3") {
		t.Fatalf("view missing pane id:\n%s", view)
	}
}

func TestFocusAndKillKeys(t *testing.T) {
	m, h, _ := newTestModel(t)
	m = update(t, m, hostEventMsg{ev: host.TabsUpdated{
		Tabs: []host.TabInfo{{Position: 0, Name: "api"}},
	}})
	m = update(t, m, hostEventMsg{ev: host.PanesUpdated{
		Panes: map[int][]host.PaneInfo{
			0: {{ID: 3, Title: "claude", Command: "claude"}},
		},
	}})

	m = update(t, m, key("f"))
	if len(h.focused) != 1 || h.focused[0] != 3 {
		t.Fatalf("focused = %v, want [3]", h.focused)
	}

	m = update(t, m, key("x"))
	if len(h.closed) != 1 || h.closed[0] != 3 {
		t.Fatalf("closed = %v, want [3]", h.closed)
	}
}

func TestEmptyTableOperationsShowStatus(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, key("x"))
	if m.statusMsg != "no agent panes" {
		t.Fatalf("status = %q", m.statusMsg)
	}
}

func TestSpawnWizardFlow(t *testing.T) {
	m, _, _ := newTestModel(t)
	dir := t.TempDir()

	m = update(t, m, key("n"))
	if !m.spawnMode || m.spawnStep != stepWorkspace {
		t.Fatalf("wizard not started: %+v", m.spawnStep)
	}

	m.input.SetValue(dir)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.spawnStep != stepTab {
		t.Fatalf("step = %d after workspace, want tab", m.spawnStep)
	}
	if m.spawnWorkspace != dir {
		t.Fatalf("workspace = %q, want %q", m.spawnWorkspace, dir)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // new tab
	if m.spawnStep != stepAgent {
		t.Fatalf("step = %d after tab, want agent", m.spawnStep)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // claude
	if m.spawnMode {
		t.Fatal("wizard still open after submit")
	}

	records := m.engine.Store().Records()
	if len(records) != 1 || records[0].AgentName != "claude" {
		t.Fatalf("records = %+v, want one pending claude", records)
	}
}

func TestSpawnWizardAgentFilter(t *testing.T) {
	m, _, _ := newTestModel(t)
	dir := t.TempDir()

	m = update(t, m, key("n"))
	m.input.SetValue(dir)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // new tab

	// Typing narrows the agent list; enter picks the top match.
	m = update(t, m, key("cod"))
	filtered := m.filteredAgents()
	if len(filtered) != 1 || filtered[0].Name != "codex" {
		t.Fatalf("filtered = %+v, want [codex]", filtered)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.spawnMode {
		t.Fatal("wizard still open after submit")
	}

	records := m.engine.Store().Records()
	if len(records) != 1 || records[0].AgentName != "codex" {
		t.Fatalf("records = %+v, want one pending codex", records)
	}
}

func TestSpawnWizardFilterNoMatch(t *testing.T) {
	m, _, _ := newTestModel(t)
	dir := t.TempDir()

	m = update(t, m, key("n"))
	m.input.SetValue(dir)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = update(t, m, key("zzz"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.spawnMode || m.spawnStep != stepAgent {
		t.Fatal("wizard closed on a filter with no matches")
	}
	if m.statusMsg != "no agents match filter" {
		t.Fatalf("status = %q", m.statusMsg)
	}
	if m.engine.Store().Len() != 0 {
		t.Fatalf("records = %d, want 0", m.engine.Store().Len())
	}
}

func TestAgentFormCollectsEnvAndNote(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, key("a"))
	if !m.agentMode || m.agentStep != formName {
		t.Fatalf("form not started: %d", m.agentStep)
	}

	m.input.SetValue("mybot")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue("mybot-cli")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.input.SetValue("--yolo")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.agentStep != formEnv {
		t.Fatalf("step = %d after args, want env", m.agentStep)
	}

	// A malformed pair keeps the form on the env step.
	m.input.SetValue("notpairs")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.agentStep != formEnv {
		t.Fatalf("step = %d after bad env, want env", m.agentStep)
	}
	if !strings.Contains(m.statusMsg, "invalid env") {
		t.Fatalf("status = %q, want env parse error", m.statusMsg)
	}

	m.input.SetValue("FOO=1, BAR=two")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.agentStep != formNote {
		t.Fatalf("step = %d after env, want note", m.agentStep)
	}

	m.input.SetValue("local build")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.agentMode {
		t.Fatal("form still open after note")
	}

	agents, err := config.LoadAgents(m.agentsPath)
	if err != nil {
		t.Fatalf("LoadAgents: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("saved agents = %d, want 1", len(agents))
	}
	a := agents[0]
	if a.Name != "mybot" || a.Command != "mybot-cli" {
		t.Fatalf("saved agent = %+v", a)
	}
	if a.Env["FOO"] != "1" || a.Env["BAR"] != "two" {
		t.Fatalf("env = %v", a.Env)
	}
	if a.Note != "local build" {
		t.Fatalf("note = %q", a.Note)
	}
}

func TestSpawnWizardEscape(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, key("n"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.spawnMode {
		t.Fatal("esc did not close the wizard")
	}
}
