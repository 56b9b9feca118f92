// Package pane holds the authoritative in-memory table of agent pane
// records and the current tab roster. It is pure data with
// invariant-preserving mutators; all matching policy lives in the
// reconcile package.
package pane

// Status is the runtime state of an agent pane.
type Status string

const (
	// StatusRunning means the agent command is (believed to be) running.
	StatusRunning Status = "running"
	// StatusExited means the agent command exited; Record.ExitCode may
	// carry the code if the host reported one.
	StatusExited Status = "exited"
)

// Record tracks one logical agent session in a multiplexer pane.
//
// A record is created either by the spawn coordinator (PaneID nil, matched
// later through ReservedTitle) or by the engine when it first observes an
// unrecognized-but-attributable pane (PaneID set immediately). Once set,
// PaneID is the record's primary key and never changes.
type Record struct {
	// ReservedTitle is the unique token chosen at spawn time, used as the
	// pane title and as the correlation key before a host id exists.
	ReservedTitle string

	// TabName is the tab this pane currently belongs to; empty until
	// resolved.
	TabName string

	// PendingTabIndex is set when the pane was observed in a manifest
	// before tab names were known, and cleared once TabName resolves to a
	// name present in the roster.
	PendingTabIndex *int

	// PaneID is the host-assigned identifier, nil until the spawn is
	// confirmed or the pane is matched heuristically.
	PaneID *int

	WorkspacePath string
	AgentName     string

	Status Status
	// ExitCode is meaningful only when Status is StatusExited; nil when
	// the host did not report a code.
	ExitCode *int
}

// Running reports whether the record's agent is running.
func (r *Record) Running() bool {
	return r.Status == StatusRunning
}

// Pending reports whether the record has no host pane id yet.
func (r *Record) Pending() bool {
	return r.PaneID == nil
}

// SetExited marks the record exited with an optional exit code.
func (r *Record) SetExited(code *int) {
	r.Status = StatusExited
	r.ExitCode = code
}

// SetRunning marks the record running and clears any stale exit code.
func (r *Record) SetRunning() {
	r.Status = StatusRunning
	r.ExitCode = nil
}
