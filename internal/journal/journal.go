// Package journal keeps the append-only record of apply and undo runs.
// The journal exclusively owns the historical record: the apply and undo
// engines return results, and their callers persist them here under the
// operation lock.
package journal

import (
	"strings"

	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/plan"
	"github.com/danieljhkim/curator/internal/store"
)

// SchemaVersion is the persisted journal document version.
const SchemaVersion = 1

// Snapshot is the persisted journal. Runs are append-only; an apply run is
// mutated only through the undone-by back-link, and then only by replacing
// the stored run with a copy that has the link set.
type Snapshot struct {
	SchemaVersion int             `json:"schemaVersion"`
	Runs          []plan.ApplyRun `json:"runs"`
	UndoRuns      []plan.UndoRun  `json:"undoRuns"`
}

// Store persists the journal document.
type Store struct {
	fs   fsops.FS
	path string
}

// NewStore creates a journal store over the given document path.
func NewStore(fs fsops.FS, path string) *Store {
	return &Store{fs: fs, path: path}
}

// AppendApply records one apply run.
func (s *Store) AppendApply(run plan.ApplyRun) error {
	_, err := store.Update(s.fs, s.path, emptySnapshot,
		func(snapshot Snapshot) (Snapshot, error) {
			snapshot = normalize(snapshot)
			snapshot.Runs = append(snapshot.Runs, run)
			return snapshot, nil
		})
	return err
}

// AppendUndo records one undo run and back-links the apply run it
// reversed: the stored apply run is superseded by a copy carrying
// undoneByRunId and undoneAt. A missing apply run is tolerated; the undo
// is still recorded without the back-link.
func (s *Store) AppendUndo(undoRun plan.UndoRun) error {
	_, err := store.Update(s.fs, s.path, emptySnapshot,
		func(snapshot Snapshot) (Snapshot, error) {
			snapshot = normalize(snapshot)
			snapshot.UndoRuns = append(snapshot.UndoRuns, undoRun)

			for i, run := range snapshot.Runs {
				if strings.EqualFold(run.RunID, undoRun.SourceApplyRunID) {
					linked := run
					linked.UndoneByRunID = undoRun.UndoRunID
					undoneAt := undoRun.UndoneAt
					linked.UndoneAt = &undoneAt
					snapshot.Runs[i] = linked
					break
				}
			}
			return snapshot, nil
		})
	return err
}

// Runs returns all apply runs in append order.
func (s *Store) Runs() []plan.ApplyRun {
	return s.read().Runs
}

// UndoRuns returns all undo runs in append order.
func (s *Store) UndoRuns() []plan.UndoRun {
	return s.read().UndoRuns
}

// FindRun returns the apply run with the given id.
func (s *Store) FindRun(runID string) (plan.ApplyRun, bool) {
	if strings.TrimSpace(runID) == "" {
		return plan.ApplyRun{}, false
	}
	for _, run := range s.read().Runs {
		if strings.EqualFold(run.RunID, runID) {
			return run, true
		}
	}
	return plan.ApplyRun{}, false
}

// LatestRun returns the most recently appended apply run.
func (s *Store) LatestRun() (plan.ApplyRun, bool) {
	runs := s.read().Runs
	if len(runs) == 0 {
		return plan.ApplyRun{}, false
	}
	return runs[len(runs)-1], true
}

// LatestUndoRun returns the most recently appended undo run.
func (s *Store) LatestUndoRun() (plan.UndoRun, bool) {
	undoRuns := s.read().UndoRuns
	if len(undoRuns) == 0 {
		return plan.UndoRun{}, false
	}
	return undoRuns[len(undoRuns)-1], true
}

func (s *Store) read() Snapshot {
	return normalize(store.Read(s.fs, s.path, emptySnapshot))
}

func emptySnapshot() Snapshot {
	return Snapshot{SchemaVersion: SchemaVersion}
}

func normalize(snapshot Snapshot) Snapshot {
	if snapshot.SchemaVersion != SchemaVersion {
		return emptySnapshot()
	}
	return snapshot
}
