package tmuxhost

import (
	"strings"
	"testing"

	"github.com/drewfead/maestro/internal/host"
)

// scriptRunner maps a tmux subcommand to canned output and records every
// invocation.
type scriptRunner struct {
	outputs map[string]string
	calls   [][]string
}

func (s *scriptRunner) run(args ...string) (string, error) {
	s.calls = append(s.calls, args)
	return s.outputs[args[0]], nil
}

func newScriptedHost(outputs map[string]string) (*Host, *scriptRunner) {
	sr := &scriptRunner{outputs: outputs}
	h := &Host{run: sr.run, events: make(chan host.Event, 64)}
	return h, sr
}

func TestParsePaneID(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"%5", 5, false},
		{" %12\n", 12, false},
		{"5", 0, true},
		{"%x", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parsePaneID(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parsePaneID(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("parsePaneID(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestOpenCommandPane(t *testing.T) {
	h, sr := newScriptedHost(map[string]string{"split-window": "%7"})

	ctx := map[string]string{"pane_title": "maestro:claude:api:u1", "agent": "claude"}
	if err := h.OpenCommandPane([]string{"claude"}, "/home/u/api", ctx); err != nil {
		t.Fatalf("OpenCommandPane failed: %v", err)
	}

	if len(sr.calls) != 2 {
		t.Fatalf("calls = %d, want split-window then select-pane", len(sr.calls))
	}
	split := strings.Join(sr.calls[0], " ")
	if !strings.Contains(split, "-c /home/u/api") || !strings.HasSuffix(split, "-- claude") {
		t.Fatalf("split-window call = %q", split)
	}
	title := strings.Join(sr.calls[1], " ")
	if !strings.Contains(title, "-t %7") || !strings.Contains(title, "-T maestro:claude:api:u1") {
		t.Fatalf("select-pane call = %q", title)
	}

	select {
	case ev := <-h.events:
		spawned, ok := ev.(host.PaneSpawned)
		if !ok {
			t.Fatalf("event = %T, want PaneSpawned", ev)
		}
		if spawned.ID != 7 {
			t.Fatalf("spawned id = %d, want 7", spawned.ID)
		}
		if spawned.Context["pane_title"] != "maestro:claude:api:u1" {
			t.Fatalf("context not echoed: %v", spawned.Context)
		}
	default:
		t.Fatal("no PaneSpawned event emitted")
	}
}

func joinFields(fields ...string) string {
	return strings.Join(fields, sep)
}

func snapshotOutputs() map[string]string {
	return map[string]string{
		"display-message": "dev",
		"list-windows": strings.Join([]string{
			joinFields("dev", "1", "api"),
			joinFields("dev", "3", "web"),
			joinFields("other", "1", "scratch"),
		}, "\n"),
		"list-panes": strings.Join([]string{
			joinFields("dev", "1", "%0", "0", "", "claude", "claude"),
			joinFields("dev", "3", "%4", "1", "2", "codex", "codex - ~/repos/web"),
			joinFields("other", "1", "%9", "0", "", "zsh", "zsh"),
		}, "\n"),
	}
}

func TestSnapshot(t *testing.T) {
	h, _ := newScriptedHost(snapshotOutputs())
	p := NewPoller(h, 0)

	snap, err := p.snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("sessions = %d, want 2", len(snap))
	}

	var dev *host.SessionInfo
	for i := range snap {
		if snap[i].Name == "dev" {
			dev = &snap[i]
		}
	}
	if dev == nil || !dev.Current {
		t.Fatalf("dev session missing or not current: %+v", snap)
	}

	// Window indices 1 and 3 normalize to dense positions 0 and 1.
	if len(dev.Tabs) != 2 || dev.Tabs[0].Name != "api" || dev.Tabs[1].Position != 1 {
		t.Fatalf("tabs = %+v", dev.Tabs)
	}

	api := dev.Panes[0]
	if len(api) != 1 || api[0].ID != 0 || api[0].Exited {
		t.Fatalf("api panes = %+v", api)
	}

	web := dev.Panes[1]
	if len(web) != 1 {
		t.Fatalf("web panes = %+v", web)
	}
	if !web[0].Exited || web[0].ExitStatus == nil || *web[0].ExitStatus != 2 {
		t.Fatalf("dead pane state = %+v", web[0])
	}
	if web[0].Title != "codex - ~/repos/web" || web[0].Command != "codex" {
		t.Fatalf("pane fields = %+v", web[0])
	}
}

func drain(h *Host) []host.Event {
	var out []host.Event
	for {
		select {
		case ev := <-h.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPollerDiff(t *testing.T) {
	h, sr := newScriptedHost(snapshotOutputs())
	p := NewPoller(h, 0)

	snap, err := p.snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	p.remember(snap)

	// Next poll: pane %0 died with code 1, pane %4 was rerun, pane %9 is
	// gone.
	sr.outputs["list-panes"] = strings.Join([]string{
		joinFields("dev", "1", "%0", "1", "1", "claude", "claude"),
		joinFields("dev", "3", "%4", "0", "", "codex", "codex"),
	}, "\n")

	p.poll()

	var exited *host.PaneExited
	var rerun *host.PaneRerun
	var closed *host.PaneClosed
	for _, ev := range drain(h) {
		switch ev := ev.(type) {
		case host.PaneExited:
			exited = &ev
		case host.PaneRerun:
			rerun = &ev
		case host.PaneClosed:
			closed = &ev
		}
	}

	if exited == nil || exited.ID != 0 || exited.ExitStatus == nil || *exited.ExitStatus != 1 {
		t.Fatalf("exited = %+v", exited)
	}
	if exited.Context["pane_title"] != "claude" {
		t.Fatalf("exited context = %v", exited.Context)
	}
	if rerun == nil || rerun.ID != 4 {
		t.Fatalf("rerun = %+v", rerun)
	}
	if closed == nil || closed.ID != 9 {
		t.Fatalf("closed = %+v", closed)
	}
}

func TestPollEmitsRosterAndManifests(t *testing.T) {
	h, _ := newScriptedHost(snapshotOutputs())
	p := NewPoller(h, 0)

	p.poll()

	var tabs *host.TabsUpdated
	var panes *host.PanesUpdated
	for _, ev := range drain(h) {
		switch ev := ev.(type) {
		case host.TabsUpdated:
			tabs = &ev
		case host.PanesUpdated:
			panes = &ev
		}
	}

	if tabs == nil || len(tabs.Tabs) != 2 {
		t.Fatalf("tabs event = %+v", tabs)
	}
	if panes == nil || len(panes.Panes) != 2 {
		t.Fatalf("panes event = %+v", panes)
	}
}
