package pane

import "testing"

func intPtr(v int) *int { return &v }

func TestStoreLookups(t *testing.T) {
	s := NewStore()
	s.SetTabs([]string{"api", "web"})

	confirmed := &Record{
		ReservedTitle: "maestro:claude:api:aaa",
		TabName:       "api",
		PaneID:        intPtr(7),
		Status:        StatusRunning,
	}
	pending := &Record{
		ReservedTitle: "maestro:codex:web:bbb",
		TabName:       "web",
		Status:        StatusRunning,
	}
	s.Add(confirmed)
	s.Add(pending)

	t.Run("FindByPaneID", func(t *testing.T) {
		if got := s.FindByPaneID(7); got != confirmed {
			t.Fatalf("FindByPaneID(7) = %v, want confirmed record", got)
		}
		if got := s.FindByPaneID(99); got != nil {
			t.Fatalf("FindByPaneID(99) = %v, want nil", got)
		}
	})

	t.Run("FindPendingByTitle", func(t *testing.T) {
		if got := s.FindPendingByTitle("maestro:codex:web:bbb"); got != pending {
			t.Fatalf("pending lookup failed, got %v", got)
		}
		// A confirmed record is never matched by title again.
		if got := s.FindPendingByTitle("maestro:claude:api:aaa"); got != nil {
			t.Fatalf("confirmed record matched by title: %v", got)
		}
		if got := s.FindPendingByTitle(""); got != nil {
			t.Fatalf("empty title matched: %v", got)
		}
	})

	t.Run("FindPendingInTab", func(t *testing.T) {
		got := s.FindPendingInTab("web")
		if len(got) != 1 || got[0] != pending {
			t.Fatalf("FindPendingInTab(web) = %v", got)
		}
		if got := s.FindPendingInTab("api"); len(got) != 0 {
			t.Fatalf("FindPendingInTab(api) = %v, want none", got)
		}
	})
}

func TestStoreUpsertByPaneID(t *testing.T) {
	t.Run("RefreshesStatusOnly", func(t *testing.T) {
		s := NewStore()
		s.SetTabs([]string{"api"})
		existing := &Record{
			ReservedTitle: "maestro:claude:api:aaa",
			TabName:       "api",
			PaneID:        intPtr(3),
			WorkspacePath: "/home/u/api",
			AgentName:     "claude",
			Status:        StatusRunning,
		}
		s.Add(existing)

		got := s.UpsertByPaneID(&Record{
			PaneID:   intPtr(3),
			TabName:  "elsewhere",
			Status:   StatusExited,
			ExitCode: intPtr(1),
		})
		if got != existing {
			t.Fatal("upsert created a duplicate for an existing pane id")
		}
		if s.Len() != 1 {
			t.Fatalf("Len = %d, want 1", s.Len())
		}
		if got.Status != StatusExited || got.ExitCode == nil || *got.ExitCode != 1 {
			t.Fatalf("status not refreshed: %+v", got)
		}
		// A valid tab name is never overwritten.
		if got.TabName != "api" {
			t.Fatalf("valid tab overwritten: %q", got.TabName)
		}
		if got.WorkspacePath != "/home/u/api" || got.AgentName != "claude" {
			t.Fatalf("identity fields lost: %+v", got)
		}
	})

	t.Run("FixesInvalidTab", func(t *testing.T) {
		s := NewStore()
		s.SetTabs([]string{"api"})
		s.Add(&Record{PaneID: intPtr(3), TabName: "gone", Status: StatusRunning})

		got := s.UpsertByPaneID(&Record{PaneID: intPtr(3), TabName: "api", Status: StatusRunning})
		if got.TabName != "api" {
			t.Fatalf("invalid tab not fixed: %q", got.TabName)
		}
	})

	t.Run("InsertsUnknown", func(t *testing.T) {
		s := NewStore()
		rec := &Record{PaneID: intPtr(5), Status: StatusRunning}
		if got := s.UpsertByPaneID(rec); got != rec {
			t.Fatal("new record not inserted")
		}
		if s.Len() != 1 {
			t.Fatalf("Len = %d, want 1", s.Len())
		}
	})
}

func TestStoreRemove(t *testing.T) {
	s := NewStore()
	keep := &Record{PaneID: intPtr(1)}
	gone := &Record{ReservedTitle: "maestro:claude:api:uuid-1", TabName: "api"}
	s.Add(keep)
	s.Add(gone)
	s.Select(1)

	s.Remove(gone)
	if s.Len() != 1 || s.Records()[0] != keep {
		t.Fatalf("records = %v after Remove, want only the kept one", s.Records())
	}
	if s.Selected() != 0 {
		t.Fatalf("selected = %d after Remove, want clamped to 0", s.Selected())
	}

	// Removing a record not in the table is a no-op.
	s.Remove(gone)
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestStoreRetainValid(t *testing.T) {
	s := NewStore()
	s.SetTabs([]string{"api"})

	keepByID := &Record{PaneID: intPtr(1), TabName: "gone"}
	keepByPending := &Record{PendingTabIndex: intPtr(4)}
	keepByTab := &Record{TabName: "api"}
	drop := &Record{TabName: "gone"}
	s.Add(keepByID)
	s.Add(keepByPending)
	s.Add(keepByTab)
	s.Add(drop)

	dropped := s.RetainValid()
	if len(dropped) != 1 || dropped[0] != drop {
		t.Fatalf("dropped = %v, want exactly the orphan", dropped)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d after GC, want 3", s.Len())
	}
	for _, want := range []*Record{keepByID, keepByPending, keepByTab} {
		found := false
		for _, r := range s.Records() {
			if r == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("record %+v was dropped and should not be", want)
		}
	}
}

func TestStoreSelection(t *testing.T) {
	s := NewStore()
	s.Add(&Record{PaneID: intPtr(1)})
	s.Add(&Record{PaneID: intPtr(2)})
	s.Add(&Record{PaneID: intPtr(3)})

	s.Select(2)
	if s.Selected() != 2 {
		t.Fatalf("Selected = %d, want 2", s.Selected())
	}

	s.Select(99)
	if s.Selected() != 2 {
		t.Fatalf("selection not clamped high: %d", s.Selected())
	}
	s.Select(-4)
	if s.Selected() != 0 {
		t.Fatalf("selection not clamped low: %d", s.Selected())
	}

	s.Select(2)
	s.RemoveByPaneID(3)
	if s.Selected() != 1 {
		t.Fatalf("selection not clamped after removal: %d", s.Selected())
	}

	s.Clear()
	if s.Len() != 0 || s.Selected() != 0 {
		t.Fatalf("Clear left state: len=%d selected=%d", s.Len(), s.Selected())
	}
}

func TestRecordStatus(t *testing.T) {
	r := &Record{Status: StatusRunning}
	if !r.Running() || !r.Pending() {
		t.Fatalf("fresh record: running=%v pending=%v", r.Running(), r.Pending())
	}

	r.SetExited(intPtr(2))
	if r.Running() || r.ExitCode == nil || *r.ExitCode != 2 {
		t.Fatalf("SetExited: %+v", r)
	}

	r.SetRunning()
	if !r.Running() || r.ExitCode != nil {
		t.Fatalf("SetRunning left exit code: %+v", r)
	}
}
