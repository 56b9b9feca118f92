package tmuxhost

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/drewfead/maestro/internal/host"
	"github.com/drewfead/maestro/internal/logging"
)

// paneState is the per-pane slice of a snapshot the poller diffs between
// polls to synthesize exit, rerun, and close events.
type paneState struct {
	dead   bool
	status *int
	title  string
}

// Poller periodically snapshots the tmux server and turns the snapshots into
// host events. The first snapshot is delivered whole as a SessionSnapshot;
// later polls deliver roster and manifest updates plus diffed lifecycle
// events.
type Poller struct {
	h        *Host
	interval time.Duration
	prev     map[int]paneState
}

// NewPoller returns a poller feeding h's event channel.
func NewPoller(h *Host, interval time.Duration) *Poller {
	return &Poller{h: h, interval: interval, prev: make(map[int]paneState)}
}

// Run polls until ctx is cancelled. It first reports whether tmux is usable
// at all via a PermissionResult.
func (p *Poller) Run(ctx context.Context) {
	granted := p.h.Installed()
	if granted {
		if _, err := p.h.run("display-message", "-p", "#{session_name}"); err != nil {
			granted = false
		}
	}
	p.h.emit(host.PermissionResult{Granted: granted})
	if !granted {
		logging.Warn("tmux unavailable, host events disabled")
		return
	}

	if snap, err := p.snapshot(); err == nil {
		p.h.emit(host.SessionSnapshot{Sessions: snap})
		p.remember(snap)
	} else {
		logging.Warn("initial tmux snapshot failed", "error", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *Poller) poll() {
	snap, err := p.snapshot()
	if err != nil {
		logging.Debug("tmux snapshot failed", "error", err)
		return
	}

	current := currentOf(snap)
	if current != nil {
		p.h.emit(host.TabsUpdated{Tabs: current.Tabs})
		p.h.emit(host.PanesUpdated{Panes: current.Panes})
	}

	p.diff(snap)
	p.remember(snap)
}

// diff compares the new snapshot's panes with the previous poll and emits
// PaneExited, PaneRerun, and PaneClosed for the transitions tmux never
// announces itself.
func (p *Poller) diff(snap []host.SessionInfo) {
	seen := make(map[int]paneState)
	for _, s := range snap {
		for _, panes := range s.Panes {
			for _, info := range panes {
				seen[info.ID] = paneState{dead: info.Exited, status: info.ExitStatus, title: info.Title}
			}
		}
	}

	for id, now := range seen {
		was, known := p.prev[id]
		if !known {
			continue
		}
		ctx := map[string]string{"pane_title": now.title}
		if now.dead && !was.dead {
			p.h.emit(host.PaneExited{ID: id, ExitStatus: now.status, Context: ctx})
		} else if !now.dead && was.dead {
			p.h.emit(host.PaneRerun{ID: id, Context: ctx})
		}
	}

	for id := range p.prev {
		if _, ok := seen[id]; !ok {
			p.h.emit(host.PaneClosed{ID: id})
		}
	}
}

func (p *Poller) remember(snap []host.SessionInfo) {
	next := make(map[int]paneState)
	for _, s := range snap {
		for _, panes := range s.Panes {
			for _, info := range panes {
				next[info.ID] = paneState{dead: info.Exited, status: info.ExitStatus, title: info.Title}
			}
		}
	}
	p.prev = next
}

// snapshot reads the whole server state. Tab positions are normalized to
// dense ranks per session, so manifests and rosters agree regardless of the
// user's base-index setting.
func (p *Poller) snapshot() ([]host.SessionInfo, error) {
	currentName, err := p.h.run("display-message", "-p", "#{session_name}")
	if err != nil {
		return nil, err
	}

	winOut, err := p.h.run("list-windows", "-a", "-F",
		"#{session_name}"+sep+"#{window_index}"+sep+"#{window_name}")
	if err != nil {
		return nil, err
	}

	// Title comes last: it is the only field that can contain arbitrary
	// text, and SplitN keeps it intact.
	paneOut, err := p.h.run("list-panes", "-a", "-F",
		"#{session_name}"+sep+"#{window_index}"+sep+"#{pane_id}"+sep+
			"#{pane_dead}"+sep+"#{pane_dead_status}"+sep+
			"#{pane_current_command}"+sep+"#{pane_title}")
	if err != nil {
		return nil, err
	}

	type window struct {
		index int
		name  string
	}
	windows := make(map[string][]window)
	for _, line := range splitLines(winOut) {
		parts := strings.SplitN(line, sep, 3)
		if len(parts) != 3 {
			continue
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		windows[parts[0]] = append(windows[parts[0]], window{index: idx, name: parts[2]})
	}

	// index ranks per session
	ranks := make(map[string]map[int]int)
	sessions := make(map[string]*host.SessionInfo)
	names := make([]string, 0, len(windows))
	for name, wins := range windows {
		sort.Slice(wins, func(i, j int) bool { return wins[i].index < wins[j].index })
		info := &host.SessionInfo{
			Name:    name,
			Current: name == currentName,
			Panes:   make(map[int][]host.PaneInfo),
		}
		ranks[name] = make(map[int]int)
		for rank, w := range wins {
			info.Tabs = append(info.Tabs, host.TabInfo{Position: rank, Name: w.name})
			ranks[name][w.index] = rank
		}
		sessions[name] = info
		names = append(names, name)
	}

	for _, line := range splitLines(paneOut) {
		parts := strings.SplitN(line, sep, 7)
		if len(parts) != 7 {
			continue
		}
		session, ok := sessions[parts[0]]
		if !ok {
			continue
		}
		winIdx, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		rank, ok := ranks[parts[0]][winIdx]
		if !ok {
			continue
		}
		id, err := parsePaneID(parts[2])
		if err != nil {
			continue
		}

		dead := parts[3] == "1"
		var status *int
		if dead && parts[4] != "" {
			if code, err := strconv.Atoi(parts[4]); err == nil {
				status = &code
			}
		}

		session.Panes[rank] = append(session.Panes[rank], host.PaneInfo{
			ID:         id,
			Title:      parts[6],
			Command:    parts[5],
			Exited:     dead,
			ExitStatus: status,
		})
	}

	sort.Strings(names)
	out := make([]host.SessionInfo, 0, len(names))
	for _, name := range names {
		out = append(out, *sessions[name])
	}
	return out, nil
}

func currentOf(snap []host.SessionInfo) *host.SessionInfo {
	for i := range snap {
		if snap[i].Current {
			return &snap[i]
		}
	}
	return nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
