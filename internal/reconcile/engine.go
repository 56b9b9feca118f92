// Package reconcile turns partial, unordered host events into a consistent
// table of agent pane records. The engine owns the only mutable reference to
// the pane store; every event handler is a pure state transition over it,
// so handlers tolerate any arrival order of the host's notifications.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/drewfead/maestro/internal/config"
	"github.com/drewfead/maestro/internal/host"
	"github.com/drewfead/maestro/internal/logging"
	"github.com/drewfead/maestro/internal/pane"
)

// Context map keys attached to spawn requests and echoed back by the host.
const (
	ctxPaneTitle = "pane_title"
	ctxCwd       = "cwd"
	ctxAgent     = "agent"
	ctxTabName   = "tab_name"
)

// Engine applies host events to the pane store. It is not safe for
// concurrent use; callers serialize Apply on the event loop.
type Engine struct {
	store   *pane.Store
	catalog *config.Catalog
	rec     Recorder

	// session is the name of the pinned current session, "" until the first
	// snapshot names one. Records belong to this session; when the host
	// reports a different current session the table is cleared.
	session string

	granted bool
}

// NewEngine returns an engine over store using catalog for command
// attribution. rec may be nil to disable journaling.
func NewEngine(store *pane.Store, catalog *config.Catalog, rec Recorder) *Engine {
	return &Engine{store: store, catalog: catalog, rec: rec}
}

// Store returns the pane store the engine reconciles into.
func (e *Engine) Store() *pane.Store { return e.store }

// Catalog returns the agent catalog currently used for attribution.
func (e *Engine) Catalog() *config.Catalog { return e.catalog }

// SetCatalog swaps the agent catalog, used for hot reload.
func (e *Engine) SetCatalog(c *config.Catalog) { e.catalog = c }

// PermissionsGranted reports whether the host has granted the plugin's
// requested capabilities.
func (e *Engine) PermissionsGranted() bool { return e.granted }

// CurrentSession returns the pinned session name, "" if none yet.
func (e *Engine) CurrentSession() string { return e.session }

// Apply dispatches one host event. Unrecognized event types are ignored.
func (e *Engine) Apply(ev host.Event) {
	switch ev := ev.(type) {
	case host.TabsUpdated:
		e.applyTabs(ev.Tabs)
	case host.PanesUpdated:
		e.applyPanes(ev.Panes)
	case host.SessionSnapshot:
		e.applySnapshot(ev.Sessions)
	case host.PaneSpawned:
		e.applySpawned(ev)
	case host.PaneExited:
		e.applyExited(ev)
	case host.PaneRerun:
		e.applyRerun(ev)
	case host.PaneClosed:
		e.applyClosed(ev)
	case host.PermissionResult:
		e.granted = ev.Granted
		if !ev.Granted {
			logging.Warn("host permissions denied")
		}
	}
}

// applyTabs replaces the tab roster and resolves any records still holding a
// pending tab index against the new roster.
func (e *Engine) applyTabs(tabs []host.TabInfo) {
	e.store.SetTabs(rosterNames(tabs))

	for _, r := range e.store.Records() {
		e.resolvePendingTab(r)
	}
	e.gc()
}

// applyPanes processes per-tab pane manifests. Tab indices may reference
// tabs whose names are not yet known; records picked up from such manifests
// carry a pending tab index until the roster catches up.
func (e *Engine) applyPanes(manifests map[int][]host.PaneInfo) {
	indices := make([]int, 0, len(manifests))
	for idx := range manifests {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		tabName := e.store.TabName(idx)
		for _, info := range manifests[idx] {
			if info.IsPlugin {
				continue
			}
			e.reconcilePane(info, idx, tabName)
		}
	}
}

// reconcilePane matches one reported pane against the table: identity first,
// then reserved title, then the command heuristic. tabName is "" when the
// roster does not yet cover tabIdx.
func (e *Engine) reconcilePane(info host.PaneInfo, tabIdx int, tabName string) {
	if e.matchKnown(info, tabIdx, tabName) {
		return
	}
	e.heuristicCreate(info, tabIdx, tabName)
}

// matchKnown tries the two exact matching tiers, identity then reserved
// title, and reports whether either claimed the pane.
func (e *Engine) matchKnown(info host.PaneInfo, tabIdx int, tabName string) bool {
	if r := e.store.FindByPaneID(info.ID); r != nil {
		e.refreshStatus(r, info)
		e.adoptTab(r, tabIdx, tabName)
		return true
	}

	if r := e.store.FindPendingByTitle(info.Title); r != nil {
		id := info.ID
		r.PaneID = &id
		e.refreshStatus(r, info)
		e.adoptTab(r, tabIdx, tabName)
		e.record(ActionTitleMatched, r, "")
		return true
	}
	return false
}

// heuristicCreate attributes an untracked pane to a catalog agent by its
// command line and creates a record for it. Panes that match no agent are
// not ours and get no record.
func (e *Engine) heuristicCreate(info host.PaneInfo, tabIdx int, tabName string) {
	agent, ok := e.catalog.FindByCommand(paneCommand(info))
	if !ok {
		return
	}

	id := info.ID
	r := &pane.Record{
		PaneID:    &id,
		AgentName: agent.Name,
	}
	if tabName != "" {
		r.TabName = tabName
	} else {
		idx := tabIdx
		r.PendingTabIndex = &idx
	}
	e.refreshStatus(r, info)
	e.store.Add(r)
	e.record(ActionHeuristicCreated, r, paneCommand(info))
}

// applySnapshot rebuilds the table from a full-session snapshot. It pins the
// current session on first sight and clears the table when the current
// session changes out from under the plugin.
func (e *Engine) applySnapshot(sessions []host.SessionInfo) {
	current := currentSession(sessions)
	if current == nil {
		return
	}

	if e.session == "" {
		e.session = current.Name
		logging.Debug("pinned session", "session", current.Name)
	} else if e.session != current.Name {
		logging.Info("current session changed, dropping records",
			"old", e.session, "new", current.Name)
		e.store.Clear()
		e.session = current.Name
	}

	e.store.SetTabs(rosterNames(current.Tabs))

	indices := make([]int, 0, len(current.Panes))
	for idx := range current.Panes {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	// First pass: exact matches (identity, reserved title) across the whole
	// snapshot, so a fallback never claims a record whose real pane appears
	// later in the event.
	type unmatched struct {
		info    host.PaneInfo
		tabIdx  int
		tabName string
	}
	var leftover []unmatched
	for _, idx := range indices {
		tabName := e.store.TabName(idx)
		for _, info := range current.Panes[idx] {
			if info.IsPlugin {
				continue
			}
			if !e.matchKnown(info, idx, tabName) {
				leftover = append(leftover, unmatched{info, idx, tabName})
			}
		}
	}

	// Second pass, rehydration-only fallback: an unmatched pane may claim
	// the most recently created pending record in its tab, since a plugin
	// reload loses the spawn confirmations that would have delivered ids.
	// Panes no pending record claims go through the command heuristic.
	for _, u := range leftover {
		if u.tabName != "" {
			if r := e.popPendingInTab(u.tabName); r != nil {
				id := u.info.ID
				r.PaneID = &id
				e.refreshStatus(r, u.info)
				e.record(ActionIDAdopted, r, "claimed by tab fallback")
				continue
			}
		}
		e.heuristicCreate(u.info, u.tabIdx, u.tabName)
	}

	for _, r := range e.store.Records() {
		e.resolvePendingTab(r)
	}
	e.gc()
}

// popPendingInTab returns the last pending record assigned to tab, LIFO, or
// nil. Records adopted earlier in the same pass no longer qualify because
// adoption sets their pane id.
func (e *Engine) popPendingInTab(tab string) *pane.Record {
	pending := e.store.FindPendingInTab(tab)
	if len(pending) == 0 {
		return nil
	}
	return pending[len(pending)-1]
}

// applySpawned confirms a spawn: the host echoes back the context map from
// the open request along with the assigned pane id.
func (e *Engine) applySpawned(ev host.PaneSpawned) {
	title := ev.Context[ctxPaneTitle]

	if r := e.store.FindByPaneID(ev.ID); r != nil {
		r.SetRunning()
		e.refreshFromContext(r, ev.Context)
		if r.ReservedTitle == "" {
			r.ReservedTitle = title
		}
		// The command heuristic may have tracked this pane from a manifest
		// whose title the running program had already mutated. The record
		// that reserved the title is then a duplicate of r and would never
		// earn a pane id of its own.
		if ghost := e.store.FindPendingByTitle(title); ghost != nil {
			e.store.Remove(ghost)
			e.record(ActionRecordGC, ghost, "superseded by confirmed pane")
		}
		return
	}

	if r := e.store.FindPendingByTitle(title); r != nil {
		id := ev.ID
		r.PaneID = &id
		r.SetRunning()
		e.refreshFromContext(r, ev.Context)
		e.record(ActionIDAdopted, r, "")
		return
	}

	// No record asked for this pane. Confirmations only arrive for panes we
	// opened, so the pending record was lost (plugin reload mid-spawn);
	// recreate it from the echoed context.
	id := ev.ID
	r := &pane.Record{
		ReservedTitle: title,
		PaneID:        &id,
		WorkspacePath: ev.Context[ctxCwd],
		AgentName:     ev.Context[ctxAgent],
		TabName:       e.spawnTab(ev.Context),
		Status:        pane.StatusRunning,
	}
	e.store.Add(r)
	e.record(ActionRecordCreated, r, "confirmed spawn with no pending record")
}

// refreshFromContext backfills record fields from a spawn confirmation's
// echoed context without overwriting anything already observed.
func (e *Engine) refreshFromContext(r *pane.Record, ctx map[string]string) {
	if r.WorkspacePath == "" {
		r.WorkspacePath = ctx[ctxCwd]
	}
	if r.AgentName == "" {
		r.AgentName = ctx[ctxAgent]
	}
	if r.TabName == "" || !e.store.ValidTab(r.TabName) {
		r.TabName = e.spawnTab(ctx)
	}
}

// spawnTab picks the tab for a confirmed spawn: the context's tab name when
// present, otherwise the first tab in the roster.
func (e *Engine) spawnTab(ctx map[string]string) string {
	if name := ctx[ctxTabName]; name != "" {
		return name
	}
	return e.store.TabName(0)
}

func (e *Engine) applyExited(ev host.PaneExited) {
	r := e.store.FindByPaneID(ev.ID)
	if r == nil {
		r = e.store.FindPendingByTitle(ev.Context[ctxPaneTitle])
	}
	if r == nil {
		return
	}
	r.SetExited(ev.ExitStatus)
	e.record(ActionStatusChanged, r, fmt.Sprintf("exited code=%s", fmtCode(ev.ExitStatus)))
}

func (e *Engine) applyRerun(ev host.PaneRerun) {
	r := e.store.FindByPaneID(ev.ID)
	if r == nil {
		r = e.store.FindPendingByTitle(ev.Context[ctxPaneTitle])
	}
	if r == nil {
		return
	}
	r.SetRunning()
	e.record(ActionStatusChanged, r, "rerun")
}

func (e *Engine) applyClosed(ev host.PaneClosed) {
	r := e.store.FindByPaneID(ev.ID)
	if r == nil {
		return
	}
	e.record(ActionRecordClosed, r, "")
	e.store.RemoveByPaneID(ev.ID)
}

// refreshStatus copies the host-reported runtime state onto the record.
func (e *Engine) refreshStatus(r *pane.Record, info host.PaneInfo) {
	was := r.Status
	if info.Exited {
		r.SetExited(info.ExitStatus)
	} else {
		r.SetRunning()
	}
	if was != "" && was != r.Status {
		e.record(ActionStatusChanged, r, string(r.Status))
	}
}

// adoptTab updates a record's tab placement from a manifest observation. A
// record already homed in a roster-valid tab keeps it; manifests can report
// stale membership mid-move.
func (e *Engine) adoptTab(r *pane.Record, tabIdx int, tabName string) {
	if r.TabName != "" && e.store.ValidTab(r.TabName) {
		r.PendingTabIndex = nil
		return
	}
	if tabName != "" {
		r.TabName = tabName
		r.PendingTabIndex = nil
		e.record(ActionTabAdopted, r, "")
		return
	}
	idx := tabIdx
	r.PendingTabIndex = &idx
}

// resolvePendingTab resolves a record's pending tab index against the
// current roster.
func (e *Engine) resolvePendingTab(r *pane.Record) {
	if r.TabName != "" && e.store.ValidTab(r.TabName) {
		r.PendingTabIndex = nil
		return
	}
	if r.PendingTabIndex == nil {
		return
	}
	if name := e.store.TabName(*r.PendingTabIndex); name != "" {
		r.TabName = name
		r.PendingTabIndex = nil
		e.record(ActionTabAdopted, r, "")
	}
}

// gc drops records with no pane id, no pending tab index, and no valid tab.
func (e *Engine) gc() {
	for _, r := range e.store.RetainValid() {
		e.record(ActionRecordGC, r, "")
	}
}

func (e *Engine) record(kind ActionKind, r *pane.Record, detail string) {
	logging.Debug("reconcile decision",
		"kind", string(kind),
		"agent", r.AgentName,
		"tab", r.TabName,
		"workspace", r.WorkspacePath,
		"detail", detail)
	if e.rec == nil {
		return
	}
	e.rec.Record(Action{
		Kind:          kind,
		PaneID:        r.PaneID,
		ReservedTitle: r.ReservedTitle,
		TabName:       r.TabName,
		Agent:         r.AgentName,
		Workspace:     r.WorkspacePath,
		Detail:        detail,
	})
}

func rosterNames(tabs []host.TabInfo) []string {
	sorted := make([]host.TabInfo, len(tabs))
	copy(sorted, tabs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.Name
	}
	return names
}

func currentSession(sessions []host.SessionInfo) *host.SessionInfo {
	for i := range sessions {
		if sessions[i].Current {
			return &sessions[i]
		}
	}
	return nil
}

// paneCommand is the string the heuristic matches against: the reported
// command when the host knows it, otherwise the pane title, which hosts
// typically set to the running command's name.
func paneCommand(info host.PaneInfo) string {
	if info.Command != "" {
		return info.Command
	}
	return info.Title
}

func fmtCode(code *int) string {
	if code == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *code)
}
