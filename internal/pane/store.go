package pane

import "slices"

// Store is the authoritative table of agent pane records plus the current
// tab roster. It performs no I/O; the reconcile engine owns the only
// mutable reference, the UI reads snapshots.
type Store struct {
	records  []*Record
	tabs     []string
	selected int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Records returns the current records in table order. The slice is a copy;
// the pointed-to records are live and must be treated as read-only outside
// the engine.
func (s *Store) Records() []*Record {
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Add appends a record to the table.
func (s *Store) Add(r *Record) {
	s.records = append(s.records, r)
}

// Tabs returns the current tab roster.
func (s *Store) Tabs() []string {
	return s.tabs
}

// SetTabs replaces the tab roster wholesale.
func (s *Store) SetTabs(names []string) {
	s.tabs = names
}

// EnsureTab appends a tab name to the roster if it is not already present.
// Used when the engine creates a tab itself and the confirming roster event
// has not arrived yet.
func (s *Store) EnsureTab(name string) {
	if !slices.Contains(s.tabs, name) {
		s.tabs = append(s.tabs, name)
	}
}

// TabName returns the roster name at the given index, or "" when the index
// is out of range.
func (s *Store) TabName(idx int) string {
	if idx < 0 || idx >= len(s.tabs) {
		return ""
	}
	return s.tabs[idx]
}

// ValidTab reports whether name is present in the current roster.
func (s *Store) ValidTab(name string) bool {
	return slices.Contains(s.tabs, name)
}

// FindByPaneID returns the record whose host pane id equals id, or nil.
// The matching algorithm guarantees at most one such record exists.
func (s *Store) FindByPaneID(id int) *Record {
	for _, r := range s.records {
		if r.PaneID != nil && *r.PaneID == id {
			return r
		}
	}
	return nil
}

// FindPendingByTitle returns the pending record (no host pane id) whose
// reserved title equals title, or nil.
func (s *Store) FindPendingByTitle(title string) *Record {
	if title == "" {
		return nil
	}
	for _, r := range s.records {
		if r.PaneID == nil && r.ReservedTitle == title {
			return r
		}
	}
	return nil
}

// FindPendingInTab returns all pending records currently assigned to the
// given tab, in table order.
func (s *Store) FindPendingInTab(tab string) []*Record {
	var out []*Record
	for _, r := range s.records {
		if r.PaneID == nil && r.TabName == tab {
			out = append(out, r)
		}
	}
	return out
}

// UpsertByPaneID merges rec into the table keyed by host pane id. When a
// record with the same id exists, only its status is refreshed — and its
// tab name, if the existing one is empty or no longer in the roster and
// rec carries a non-empty name. A record with a valid tab name is never
// re-homed, because the host may report stale tab membership during
// transient states. Returns the surviving record.
func (s *Store) UpsertByPaneID(rec *Record) *Record {
	if rec.PaneID != nil {
		if existing := s.FindByPaneID(*rec.PaneID); existing != nil {
			existing.Status = rec.Status
			existing.ExitCode = rec.ExitCode
			if rec.TabName != "" && (existing.TabName == "" || !s.ValidTab(existing.TabName)) {
				existing.TabName = rec.TabName
			}
			return existing
		}
	}
	s.records = append(s.records, rec)
	return rec
}

// RemoveByPaneID drops any record whose host pane id equals id.
func (s *Store) RemoveByPaneID(id int) {
	s.records = slices.DeleteFunc(s.records, func(r *Record) bool {
		return r.PaneID != nil && *r.PaneID == id
	})
	s.ClampSelection()
}

// Remove drops the given record from the table.
func (s *Store) Remove(rec *Record) {
	s.records = slices.DeleteFunc(s.records, func(r *Record) bool {
		return r == rec
	})
	s.ClampSelection()
}

// RetainValid drops records whose tab is gone from the roster and which
// have neither a host pane id nor a pending tab index to fall back on.
// This is the garbage-collection step run after every roster update.
// It returns the dropped records for journaling.
func (s *Store) RetainValid() []*Record {
	var dropped []*Record
	s.records = slices.DeleteFunc(s.records, func(r *Record) bool {
		if r.PaneID != nil || r.PendingTabIndex != nil {
			return false
		}
		if s.ValidTab(r.TabName) {
			return false
		}
		dropped = append(dropped, r)
		return true
	})
	s.ClampSelection()
	return dropped
}

// Clear drops every record. Used when the current session changes out from
// under the plugin.
func (s *Store) Clear() {
	s.records = nil
	s.selected = 0
}

// Selected returns the UI selection index into Records.
func (s *Store) Selected() int {
	return s.selected
}

// Select sets the UI selection index; it is clamped to the table bounds.
func (s *Store) Select(idx int) {
	s.selected = idx
	s.ClampSelection()
}

// ClampSelection keeps the selection index within valid bounds after list
// changes.
func (s *Store) ClampSelection() {
	if len(s.records) == 0 {
		s.selected = 0
		return
	}
	if s.selected < 0 {
		s.selected = 0
	}
	if s.selected >= len(s.records) {
		s.selected = len(s.records) - 1
	}
}
