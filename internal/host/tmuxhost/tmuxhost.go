// Package tmuxhost backs the host abstraction with a local tmux server,
// driven through the tmux CLI. Tabs map to tmux windows and panes to tmux
// panes; there is no push channel, so a poller diffs periodic snapshots
// into events.
package tmuxhost

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/drewfead/maestro/internal/host"
)

// sep separates fields in tmux -F format strings. Pane titles may contain
// almost anything, so a single character is not safe.
const sep = "|#|"

// runner executes one tmux command and returns trimmed stdout. Swappable
// for tests.
type runner func(args ...string) (string, error)

func runTmux(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tmux %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Host implements host.Host against tmux and synthesizes the events tmux
// itself does not deliver (spawn confirmations).
type Host struct {
	run    runner
	events chan host.Event
}

// New returns a tmux-backed host.
func New() *Host {
	return &Host{run: runTmux, events: make(chan host.Event, 64)}
}

// Events returns the channel host notifications are delivered on. Both the
// poller and the synthesized spawn confirmations feed it.
func (h *Host) Events() <-chan host.Event {
	return h.events
}

// Installed reports whether a tmux binary is available.
func (h *Host) Installed() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// OpenCommandPane splits the current window, sets the reserved title on the
// new pane, and emits a PaneSpawned event echoing the context map. tmux has
// no native spawn confirmation; -P -F gives us the new pane id
// synchronously, which is all the confirmation needs.
func (h *Host) OpenCommandPane(argv []string, cwd string, context map[string]string) error {
	args := []string{"split-window", "-P", "-F", "#{pane_id}", "-c", cwd, "--"}
	args = append(args, argv...)
	out, err := h.run(args...)
	if err != nil {
		return err
	}

	id, err := parsePaneID(out)
	if err != nil {
		return err
	}

	if title := context["pane_title"]; title != "" {
		if err := h.setTitle(id, title); err != nil {
			return err
		}
	}

	h.emit(host.PaneSpawned{ID: id, Context: context})
	return nil
}

// ClosePane kills the pane. The poller reports the PaneClosed event when the
// pane disappears from the next snapshot.
func (h *Host) ClosePane(id int) error {
	_, err := h.run("kill-pane", "-t", paneTarget(id))
	return err
}

// FocusPane selects the window containing the pane, then the pane itself.
func (h *Host) FocusPane(id int) error {
	if _, err := h.run("select-window", "-t", paneTarget(id)); err != nil {
		return err
	}
	_, err := h.run("select-pane", "-t", paneTarget(id))
	return err
}

// GoToTab selects the window with the given name.
func (h *Host) GoToTab(name string) error {
	_, err := h.run("select-window", "-t", name)
	return err
}

// NewTab creates a window with the given name and working directory.
func (h *Host) NewTab(name, cwd string) error {
	_, err := h.run("new-window", "-n", name, "-c", cwd)
	return err
}

func (h *Host) setTitle(id int, title string) error {
	_, err := h.run("select-pane", "-t", paneTarget(id), "-T", title)
	return err
}

// emit delivers an event without blocking; a stalled consumer drops the
// oldest style of update, which the next poll re-derives anyway.
func (h *Host) emit(ev host.Event) {
	select {
	case h.events <- ev:
	default:
	}
}

// paneTarget renders a numeric pane id as a tmux pane target ("%5").
func paneTarget(id int) string {
	return fmt.Sprintf("%%%d", id)
}

// parsePaneID parses a tmux #{pane_id} value ("%5") into its numeric part.
func parsePaneID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "%") {
		return 0, fmt.Errorf("malformed pane id %q", s)
	}
	id, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, fmt.Errorf("malformed pane id %q: %w", s, err)
	}
	return id, nil
}
