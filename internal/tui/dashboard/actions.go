package dashboard

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drewfead/maestro/internal/config"
	"github.com/drewfead/maestro/internal/host"
)

type hostEventMsg struct {
	ev host.Event
}

type catalogMsg struct {
	catalog *config.Catalog
}

type clearStatusMsg struct{}

// waitForEvent blocks on the host event channel and delivers the next
// notification as a message. Re-issued after every delivery.
func waitForEvent(events <-chan host.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return hostEventMsg{ev: ev}
	}
}

// waitForCatalog delivers hot-reloaded catalogs.
func waitForCatalog(ch <-chan *config.Catalog) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return catalogMsg{catalog: c}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
