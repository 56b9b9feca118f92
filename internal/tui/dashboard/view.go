package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/drewfead/maestro/internal/pane"
	"github.com/drewfead/maestro/internal/tui"
	"github.com/drewfead/maestro/internal/workspace"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(tui.StyleTitle.Render("maestro"))
	b.WriteString("\n")

	if !m.engine.PermissionsGranted() {
		b.WriteString(tui.StyleMuted.Render("waiting for host permissions..."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.viewTable())
	b.WriteString("\n")
	b.WriteString(m.viewRibbon())

	switch {
	case m.confirmDelete != "":
		b.WriteString("\n")
		b.WriteString(tui.StyleAccent.Render(
			fmt.Sprintf("remove agent %q? (y/n)", m.confirmDelete)))
	case m.spawnMode:
		b.WriteString("\n")
		b.WriteString(m.viewSpawnWizard())
	case m.agentMode:
		b.WriteString("\n")
		b.WriteString(m.viewAgentForm())
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(tui.StyleAccent.Render(m.statusMsg))
	}

	b.WriteString("\n")
	b.WriteString(tui.StyleHelp.Render(
		"j/k select · enter focus · x kill · n spawn · h/l agents · a add · e edit · d delete · q quit"))
	return b.String()
}

func (m Model) viewTable() string {
	records := m.engine.Store().Records()
	if len(records) == 0 {
		return tui.StyleMuted.Render("no agent panes yet — press n to spawn one")
	}

	var b strings.Builder
	b.WriteString(tui.StyleHeader.Render(
		fmt.Sprintf("  %-12s %-28s %-16s %-6s %s", "AGENT", "WORKSPACE", "TAB", "PANE", "STATUS")))
	b.WriteString("\n")

	selected := m.engine.Store().Selected()
	for i, r := range records {
		line := fmt.Sprintf("  %-12s %-28s %-16s %-6s %s",
			workspace.Truncate(r.AgentName, 12),
			workspace.Truncate(displayWorkspace(r), 28),
			workspace.Truncate(r.TabName, 16),
			displayPaneID(r),
			tui.StatusStyle(statusKey(r)).Render(displayStatus(r)))
		if i == selected {
			line = tui.StyleSelected.Render("▸" + line[1:])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewRibbon() string {
	agents := m.catalog().Agents()
	if len(agents) == 0 {
		return tui.StyleMuted.Render("no agents configured")
	}

	parts := make([]string, 0, len(agents))
	for i, a := range agents {
		label := a.Name
		if i == m.ribbonIdx {
			parts = append(parts, tui.StyleSelected.Render(" "+label+" "))
		} else {
			parts = append(parts, tui.StyleMuted.Render(" "+label+" "))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewSpawnWizard() string {
	var b strings.Builder
	b.WriteString(tui.StyleHeader.Render("spawn agent"))
	b.WriteString("\n")

	switch m.spawnStep {
	case stepWorkspace:
		b.WriteString("workspace: ")
		b.WriteString(m.input.View())
		for i, s := range m.suggestions {
			b.WriteString("\n")
			if i == m.suggestIdx {
				b.WriteString(tui.StyleSelected.Render("  " + s))
			} else {
				b.WriteString(tui.StyleMuted.Render("  " + s))
			}
		}

	case stepTab:
		b.WriteString(fmt.Sprintf("workspace: %s\n", tui.StyleNormal.Render(m.spawnWorkspace)))
		b.WriteString("tab:\n")
		b.WriteString(m.optionLine(0, fmt.Sprintf("new tab (%s)", workspace.DefaultTabName(m.spawnWorkspace)), m.tabIdx))
		for i, name := range m.engine.Store().Tabs() {
			b.WriteString("\n")
			b.WriteString(m.optionLine(i+1, name, m.tabIdx))
		}

	case stepAgent:
		b.WriteString(fmt.Sprintf("workspace: %s\n", tui.StyleNormal.Render(m.spawnWorkspace)))
		b.WriteString("agent: ")
		b.WriteString(m.input.View())
		agents := m.filteredAgents()
		if len(agents) == 0 {
			b.WriteString("\n")
			b.WriteString(tui.StyleMuted.Render("  no agents match"))
		}
		for i, a := range agents {
			b.WriteString("\n")
			b.WriteString(m.optionLine(i, a.Name, m.ribbonIdx))
		}
	}

	b.WriteString("\n")
	b.WriteString(tui.StyleMuted.Render("enter confirm · tab cycle · esc cancel"))
	return tui.StyleBorder.Render(b.String())
}

func (m Model) viewAgentForm() string {
	var b strings.Builder
	if m.agentEditing != "" {
		b.WriteString(tui.StyleHeader.Render("edit agent " + m.agentEditing))
	} else {
		b.WriteString(tui.StyleHeader.Render("add agent"))
	}
	b.WriteString("\n")

	labels := []string{"name", "command", "args", "env", "note"}
	b.WriteString(labels[m.agentStep] + ": ")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(tui.StyleMuted.Render("enter next · esc cancel"))
	return tui.StyleBorder.Render(b.String())
}

func (m Model) optionLine(idx int, label string, selected int) string {
	if idx == selected {
		return tui.StyleSelected.Render("▸ " + label)
	}
	return tui.StyleMuted.Render("  " + label)
}

func displayWorkspace(r *pane.Record) string {
	if r.WorkspacePath == "" {
		return "—"
	}
	return workspace.Basename(r.WorkspacePath)
}

func displayPaneID(r *pane.Record) string {
	if r.PaneID == nil {
		return "…"
	}
	return fmt.Sprintf("%%%d", *r.PaneID)
}

// statusKey is the color bucket a record falls in, separate from the text
// shown, which may carry an exit code.
func statusKey(r *pane.Record) string {
	if r.Pending() {
		return "pending"
	}
	return string(r.Status)
}

func displayStatus(r *pane.Record) string {
	if r.Pending() {
		return "pending"
	}
	if r.Status == pane.StatusExited {
		if r.ExitCode != nil {
			return fmt.Sprintf("exited(%d)", *r.ExitCode)
		}
		return "exited"
	}
	return string(r.Status)
}
