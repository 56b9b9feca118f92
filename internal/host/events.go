package host

// Event is one host notification delivered to the reconciliation engine.
// The set of implementations below is closed; the engine dispatches on the
// concrete type.
//
// The host guarantees delivery but not ordering relative to real-world
// causality: a PaneSpawned may arrive before or after the PanesUpdated that
// mentions the same pane, and a TabsUpdated may arrive before or after the
// PanesUpdated that references its indices.
type Event interface {
	event()
}

// TabInfo describes one tab in a roster or session snapshot.
type TabInfo struct {
	// Position is the tab's index in the host's ordering. Pane manifests
	// reference tabs by this index.
	Position int
	Name     string
}

// PaneInfo describes one pane as reported by the host. The title is whatever
// the host currently displays, which may be the reserved title chosen at
// spawn time or the name of the running command after the host renamed it.
type PaneInfo struct {
	ID         int
	Title      string
	Command    string
	IsPlugin   bool
	Exited     bool
	ExitStatus *int
}

// SessionInfo is one session in a full rehydration snapshot.
type SessionInfo struct {
	Name    string
	Current bool
	Tabs    []TabInfo
	Panes   map[int][]PaneInfo
}

// TabsUpdated replaces the tab roster wholesale.
type TabsUpdated struct {
	Tabs []TabInfo
}

// PanesUpdated carries per-tab pane manifests, keyed by tab index.
type PanesUpdated struct {
	Panes map[int][]PaneInfo
}

// SessionSnapshot is the full-session rehydration event the host sends after
// a plugin reload. It interleaves every session the host knows about.
type SessionSnapshot struct {
	Sessions []SessionInfo
}

// PaneSpawned confirms a pane opened through Host.OpenCommandPane. Context
// is the map attached to the open request, echoed back verbatim.
type PaneSpawned struct {
	ID      int
	Context map[string]string
}

// PaneExited reports that the command in a pane exited.
type PaneExited struct {
	ID         int
	ExitStatus *int
	Context    map[string]string
}

// PaneRerun reports that the command in a pane was restarted.
type PaneRerun struct {
	ID      int
	Context map[string]string
}

// PaneClosed reports that a pane was closed and its id retired.
type PaneClosed struct {
	ID int
}

// PermissionResult reports whether the host granted the capabilities the
// plugin requested.
type PermissionResult struct {
	Granted bool
}

func (TabsUpdated) event()      {}
func (PanesUpdated) event()     {}
func (SessionSnapshot) event()  {}
func (PaneSpawned) event()      {}
func (PaneExited) event()       {}
func (PaneRerun) event()        {}
func (PaneClosed) event()       {}
func (PermissionResult) event() {}
