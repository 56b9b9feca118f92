package reconcile

import "errors"

var (
	// ErrAgentNotFound means the requested agent name is not in the catalog.
	ErrAgentNotFound = errors.New("agent not found in catalog")

	// ErrPermissionsNotGranted means the host denied (or has not yet granted)
	// the capabilities needed to open and manage panes.
	ErrPermissionsNotGranted = errors.New("host permissions not granted")

	// ErrPaneIDUnavailable means the operation needs a host pane id but the
	// record's spawn has not been confirmed yet.
	ErrPaneIDUnavailable = errors.New("pane id not yet available")

	// ErrNoAgentPanes means the operation needs at least one tracked record
	// and the table is empty.
	ErrNoAgentPanes = errors.New("no agent panes")
)
