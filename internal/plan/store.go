package plan

import (
	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/store"
)

// HistoryLimit bounds the plan history ring.
const HistoryLimit = 20

// HistorySnapshot is the persisted plan history document, newest last.
type HistorySnapshot struct {
	SchemaVersion int        `json:"schemaVersion"`
	Snapshots     []Snapshot `json:"snapshots"`
}

// Store persists the current plan snapshot and its bounded history.
type Store struct {
	fs          fsops.FS
	path        string
	historyPath string
}

// NewStore creates a plan store over the given document paths.
func NewStore(fs fsops.FS, path, historyPath string) *Store {
	return &Store{fs: fs, path: path, historyPath: historyPath}
}

// Current returns the stored plan. A missing, corrupt, or wrong-version
// document reads as absent.
func (s *Store) Current() (Snapshot, bool) {
	snapshot := store.Read(s.fs, s.path, func() Snapshot { return Snapshot{} })
	if snapshot.SchemaVersion != SchemaVersion {
		return Snapshot{}, false
	}
	return snapshot, true
}

// Save publishes a new current plan and appends it to the history ring.
// The previous current plan is superseded, never mutated.
func (s *Store) Save(snapshot Snapshot) error {
	if err := store.Write(s.fs, s.path, snapshot); err != nil {
		return err
	}

	_, err := store.Update(s.fs, s.historyPath,
		func() HistorySnapshot { return HistorySnapshot{SchemaVersion: SchemaVersion} },
		func(history HistorySnapshot) (HistorySnapshot, error) {
			if history.SchemaVersion != SchemaVersion {
				history = HistorySnapshot{SchemaVersion: SchemaVersion}
			}
			history.Snapshots = append(history.Snapshots, snapshot)
			if len(history.Snapshots) > HistoryLimit {
				history.Snapshots = history.Snapshots[len(history.Snapshots)-HistoryLimit:]
			}
			return history, nil
		})
	return err
}

// History returns the stored plan history, oldest first.
func (s *Store) History() []Snapshot {
	history := store.Read(s.fs, s.historyPath, func() HistorySnapshot {
		return HistorySnapshot{SchemaVersion: SchemaVersion}
	})
	if history.SchemaVersion != SchemaVersion {
		return nil
	}
	return history.Snapshots
}
