package review

import (
	"strings"

	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/store"
)

// OverridesHistory is the persisted overrides history document, newest
// last.
type OverridesHistory struct {
	SchemaVersion int                 `json:"schemaVersion"`
	Snapshots     []OverridesSnapshot `json:"snapshots"`
}

// OverridesStore persists the current override set and its history.
type OverridesStore struct {
	fs          fsops.FS
	path        string
	historyPath string
}

// NewOverridesStore creates an overrides store over the given document
// paths.
func NewOverridesStore(fs fsops.FS, path, historyPath string) *OverridesStore {
	return &OverridesStore{fs: fs, path: path, historyPath: historyPath}
}

// CurrentFor returns the stored overrides when they target the given plan
// fingerprint. Overrides stored for any other fingerprint, a missing file,
// or a wrong-version document read as an empty snapshot for the requested
// fingerprint, never silently reused.
func (s *OverridesStore) CurrentFor(planFingerprint string) OverridesSnapshot {
	snapshot := store.Read(s.fs, s.path, func() OverridesSnapshot {
		return OverridesSnapshot{SchemaVersion: SchemaVersion}
	})
	if snapshot.SchemaVersion != SchemaVersion ||
		!strings.EqualFold(snapshot.PlanFingerprint, planFingerprint) {
		return OverridesSnapshot{SchemaVersion: SchemaVersion, PlanFingerprint: planFingerprint}
	}
	return snapshot
}

// Save publishes a new current override snapshot and appends it to the
// bounded history ring before it becomes current.
func (s *OverridesStore) Save(snapshot OverridesSnapshot) error {
	_, err := store.Update(s.fs, s.historyPath,
		func() OverridesHistory { return OverridesHistory{SchemaVersion: SchemaVersion} },
		func(history OverridesHistory) (OverridesHistory, error) {
			if history.SchemaVersion != SchemaVersion {
				history = OverridesHistory{SchemaVersion: SchemaVersion}
			}
			history.Snapshots = append(history.Snapshots, snapshot)
			if len(history.Snapshots) > HistoryLimit {
				history.Snapshots = history.Snapshots[len(history.Snapshots)-HistoryLimit:]
			}
			return history, nil
		})
	if err != nil {
		return err
	}

	return store.Write(s.fs, s.path, snapshot)
}

// History returns the stored override history, oldest first.
func (s *OverridesStore) History() []OverridesSnapshot {
	history := store.Read(s.fs, s.historyPath, func() OverridesHistory {
		return OverridesHistory{SchemaVersion: SchemaVersion}
	})
	if history.SchemaVersion != SchemaVersion {
		return nil
	}
	return history.Snapshots
}
