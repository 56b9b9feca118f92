// Package journal provides a SQLite-backed append-only log of
// reconciliation decisions, for debugging identity mismatches after the
// fact.
package journal

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/drewfead/maestro/internal/logging"
	"github.com/drewfead/maestro/internal/reconcile"
)

// Entry is one persisted reconciliation decision.
type Entry struct {
	ID            int64
	Timestamp     time.Time
	Kind          reconcile.ActionKind
	PaneID        *int
	ReservedTitle string
	TabName       string
	Agent         string
	Workspace     string
	Detail        string
}

// Journal implements reconcile.Recorder over a SQLite database. Writes are
// buffered through a channel and flushed by a background goroutine, so
// Record never blocks the event loop.
type Journal struct {
	db      *sql.DB
	entries chan reconcile.Action
	done    chan struct{}
}

// New opens (creating if needed) the journal database at dbPath.
func New(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	j := &Journal{
		db:      db,
		entries: make(chan reconcile.Action, 256),
		done:    make(chan struct{}),
	}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	go j.writer()
	return j, nil
}

// Close stops the writer, flushing buffered entries, and closes the
// database.
func (j *Journal) Close() error {
	close(j.entries)
	<-j.done
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp      DATETIME NOT NULL,
		kind           TEXT NOT NULL,
		pane_id        INTEGER,
		reserved_title TEXT NOT NULL DEFAULT '',
		tab_name       TEXT NOT NULL DEFAULT '',
		agent          TEXT NOT NULL DEFAULT '',
		workspace      TEXT NOT NULL DEFAULT '',
		detail         TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_kind ON decisions(kind, timestamp);
	CREATE INDEX IF NOT EXISTS idx_decisions_pane ON decisions(pane_id, timestamp);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Record buffers one decision for persistence. When the buffer is full the
// entry is dropped with a warning; the journal is diagnostic, not
// authoritative.
func (j *Journal) Record(a reconcile.Action) {
	select {
	case j.entries <- a:
	default:
		logging.Warn("journal buffer full, dropping entry", "kind", a.Kind)
	}
}

func (j *Journal) writer() {
	defer close(j.done)
	for a := range j.entries {
		if err := j.insert(a); err != nil {
			logging.CaptureError(err, "op", "journal_write", "kind", string(a.Kind))
		}
	}
}

func (j *Journal) insert(a reconcile.Action) error {
	query := `
		INSERT INTO decisions (timestamp, kind, pane_id, reserved_title, tab_name, agent, workspace, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.Exec(query,
		time.Now().UTC(),
		string(a.Kind),
		a.PaneID,
		a.ReservedTitle,
		a.TabName,
		a.Agent,
		a.Workspace,
		a.Detail,
	)
	return err
}

// Recent returns the newest entries, most recent first, up to limit.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	query := `
		SELECT id, timestamp, kind, pane_id, reserved_title, tab_name, agent, workspace, detail
		FROM decisions ORDER BY id DESC LIMIT ?
	`
	rows, err := j.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Kind, &e.PaneID,
			&e.ReservedTitle, &e.TabName, &e.Agent, &e.Workspace, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries older than the cutoff and returns how many were
// removed.
func (j *Journal) Prune(before time.Time) (int64, error) {
	res, err := j.db.Exec(`DELETE FROM decisions WHERE timestamp < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
