package review

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/curator/internal/fsops"
)

func newTestOverridesStore(t *testing.T) *OverridesStore {
	t.Helper()
	dir := t.TempDir()
	return NewOverridesStore(fsops.NewRealFS(),
		filepath.Join(dir, "overrides.json"),
		filepath.Join(dir, "overrides-history.json"))
}

func TestOverridesStoreCurrentFor(t *testing.T) {
	t.Run("absent reads as empty for the requested fingerprint", func(t *testing.T) {
		s := newTestOverridesStore(t)

		snapshot := s.CurrentFor("abc123")
		assert.Equal(t, "abc123", snapshot.PlanFingerprint)
		assert.Empty(t, snapshot.Entries)
	})

	t.Run("round trips for the matching fingerprint", func(t *testing.T) {
		s := newTestOverridesStore(t)
		saved := OverridesSnapshot{
			SchemaVersion:   SchemaVersion,
			PlanFingerprint: "abc123",
			UpdatedAt:       patchTime,
			Entries:         []OverrideEntry{{SourcePath: "/in/a.mkv", Action: "skip"}},
		}
		require.NoError(t, s.Save(saved))

		snapshot := s.CurrentFor("abc123")
		require.Len(t, snapshot.Entries, 1)
		assert.Equal(t, "skip", snapshot.Entries[0].Action)
	})

	t.Run("fingerprint comparison is case-insensitive", func(t *testing.T) {
		s := newTestOverridesStore(t)
		require.NoError(t, s.Save(OverridesSnapshot{
			SchemaVersion:   SchemaVersion,
			PlanFingerprint: "abc123",
			Entries:         []OverrideEntry{{SourcePath: "/in/a.mkv", Action: "skip"}},
		}))

		snapshot := s.CurrentFor("ABC123")
		assert.Len(t, snapshot.Entries, 1)
	})

	t.Run("overrides for a superseded plan read as empty", func(t *testing.T) {
		s := newTestOverridesStore(t)
		require.NoError(t, s.Save(OverridesSnapshot{
			SchemaVersion:   SchemaVersion,
			PlanFingerprint: "old-plan",
			Entries:         []OverrideEntry{{SourcePath: "/in/a.mkv", Action: "skip"}},
		}))

		snapshot := s.CurrentFor("new-plan")
		assert.Equal(t, "new-plan", snapshot.PlanFingerprint)
		assert.Empty(t, snapshot.Entries)
	})
}

func TestOverridesStoreHistory(t *testing.T) {
	s := newTestOverridesStore(t)
	assert.Empty(t, s.History())

	require.NoError(t, s.Save(OverridesSnapshot{
		SchemaVersion:   SchemaVersion,
		PlanFingerprint: "fp-1",
	}))
	require.NoError(t, s.Save(OverridesSnapshot{
		SchemaVersion:   SchemaVersion,
		PlanFingerprint: "fp-2",
	}))

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "fp-1", history[0].PlanFingerprint)
	assert.Equal(t, "fp-2", history[1].PlanFingerprint)
}
