package reconcile

// ActionKind classifies one reconciliation decision for the journal.
type ActionKind string

const (
	// ActionRecordCreated: a pending record was inserted at spawn time, or a
	// confirmed spawn arrived with no matching record and one was created.
	ActionRecordCreated ActionKind = "record_created"
	// ActionIDAdopted: a pending record received its host pane id.
	ActionIDAdopted ActionKind = "id_adopted"
	// ActionTitleMatched: a manifest pane was matched to a pending record by
	// reserved title.
	ActionTitleMatched ActionKind = "title_matched"
	// ActionTabAdopted: a record's pending tab index resolved to a tab name.
	ActionTabAdopted ActionKind = "tab_adopted"
	// ActionHeuristicCreated: an unmatched pane was attributed to an agent by
	// its command line and a record created for it.
	ActionHeuristicCreated ActionKind = "heuristic_created"
	// ActionRecordGC: a record with no pane id and no valid tab was dropped.
	ActionRecordGC ActionKind = "record_gc"
	// ActionRecordClosed: the host retired the record's pane id.
	ActionRecordClosed ActionKind = "record_closed"
	// ActionStatusChanged: a record moved between running and exited.
	ActionStatusChanged ActionKind = "status_changed"
)

// Action is one journal entry describing a reconciliation decision.
type Action struct {
	Kind          ActionKind
	PaneID        *int
	ReservedTitle string
	TabName       string
	Agent         string
	Workspace     string
	Detail        string
}

// Recorder receives reconciliation decisions. Implementations must not
// block the event loop; the sqlite journal buffers internally.
type Recorder interface {
	Record(a Action)
}
