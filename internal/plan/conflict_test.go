package plan

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/curator/internal/fsops"
)

func moveEntry(id, source, target string) Entry {
	return Entry{
		ItemID:     id,
		SourcePath: source,
		TargetPath: target,
		Strategy:   StrategyMovie,
		Action:     ActionMove,
		Reason:     ReasonPlanned,
	}
}

func occupiedEntry(id, source, target string) Entry {
	entry := moveEntry(id, source, target)
	entry.Action = ActionConflict
	entry.Reason = ReasonTargetAlreadyExists
	return entry
}

func TestMarkDuplicateTargetConflicts(t *testing.T) {
	entries := []Entry{
		moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"),
		moveEntry("i2", "/in/b.mkv", "/lib/Alpha/./Alpha.mkv"),
		moveEntry("i3", "/in/c.mkv", "/lib/Beta/Beta.mkv"),
	}

	MarkDuplicateTargetConflicts(entries)

	assert.Equal(t, ActionConflict, entries[0].Action)
	assert.Equal(t, ReasonDuplicateTargetInPlan, entries[0].Reason)
	assert.Equal(t, ActionConflict, entries[1].Action)
	assert.Equal(t, ActionMove, entries[2].Action)
	assert.Equal(t, ReasonPlanned, entries[2].Reason)
}

func TestResolveTargetConflictsFail(t *testing.T) {
	fs := fsops.NewMemFS()
	entries := []Entry{
		moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"),
		moveEntry("i2", "/in/b.mkv", "/lib/Alpha/Alpha.mkv"),
		occupiedEntry("i3", "/in/c.mkv", "/lib/Gamma/Gamma.mkv"),
	}

	ResolveTargetConflicts(fs, entries, PolicyFail)

	assert.Equal(t, ActionConflict, entries[0].Action)
	assert.Equal(t, ReasonDuplicateTargetInPlan, entries[0].Reason)
	assert.Equal(t, ActionConflict, entries[1].Action)

	// On-disk collisions stay as reported under fail.
	assert.Equal(t, ActionConflict, entries[2].Action)
	assert.Equal(t, ReasonTargetAlreadyExists, entries[2].Reason)
}

func TestResolveTargetConflictsSkip(t *testing.T) {
	fs := fsops.NewMemFS()
	entries := []Entry{
		occupiedEntry("i1", "/in/a.mkv", "/lib/Gamma/Gamma.mkv"),
		moveEntry("i2", "/in/b.mkv", "/lib/Alpha/Alpha.mkv"),
		moveEntry("i3", "/in/c.mkv", "/lib/Alpha/Alpha.mkv"),
	}

	ResolveTargetConflicts(fs, entries, PolicySkip)

	assert.Equal(t, ActionSkip, entries[0].Action)
	assert.Equal(t, ReasonTargetAlreadyExists, entries[0].Reason)

	// Deterministic keeper: lowest source path wins, the rest are skipped.
	assert.Equal(t, ActionMove, entries[1].Action)
	assert.Equal(t, ReasonPlanned, entries[1].Reason)
	assert.Equal(t, ActionSkip, entries[2].Action)
	assert.Equal(t, ReasonDuplicateTargetInPlan, entries[2].Reason)
}

func TestResolveTargetConflictsSuffix(t *testing.T) {
	t.Run("on-disk collision probes for a free name", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Gamma/Gamma.mkv", []byte("old"))
		entries := []Entry{
			occupiedEntry("i1", "/in/a.mkv", "/lib/Gamma/Gamma.mkv"),
		}

		ResolveTargetConflicts(fs, entries, PolicySuffix)

		assert.Equal(t, ActionMove, entries[0].Action)
		assert.Equal(t, ReasonPlannedWithSuffix, entries[0].Reason)
		assert.Equal(t, filepath.Join("/lib", "Gamma", "Gamma (2).mkv"), entries[0].TargetPath)
	})

	t.Run("probe skips names taken on disk", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Gamma/Gamma.mkv", []byte("old"))
		fs.AddFile("/lib/Gamma/Gamma (2).mkv", []byte("old2"))
		entries := []Entry{
			occupiedEntry("i1", "/in/a.mkv", "/lib/Gamma/Gamma.mkv"),
		}

		ResolveTargetConflicts(fs, entries, PolicySuffix)

		assert.Equal(t, filepath.Join("/lib", "Gamma", "Gamma (3).mkv"), entries[0].TargetPath)
	})

	t.Run("in-plan duplicates keep one unsuffixed target", func(t *testing.T) {
		fs := fsops.NewMemFS()
		entries := []Entry{
			moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"),
			moveEntry("i2", "/in/b.mkv", "/lib/Alpha/Alpha.mkv"),
			moveEntry("i3", "/in/c.mkv", "/lib/Alpha/Alpha.mkv"),
		}

		ResolveTargetConflicts(fs, entries, PolicySuffix)

		assert.Equal(t, filepath.Join("/lib", "Alpha", "Alpha.mkv"), entries[0].TargetPath)
		assert.Equal(t, ReasonPlanned, entries[0].Reason)
		assert.Equal(t, filepath.Join("/lib", "Alpha", "Alpha (2).mkv"), entries[1].TargetPath)
		assert.Equal(t, ReasonPlannedWithSuffix, entries[1].Reason)
		assert.Equal(t, filepath.Join("/lib", "Alpha", "Alpha (3).mkv"), entries[2].TargetPath)

		for _, entry := range entries {
			require.Equal(t, ActionMove, entry.Action)
		}
	})

	t.Run("suffixed targets never collide with planned moves", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("old"))
		entries := []Entry{
			occupiedEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"),
			moveEntry("i2", "/in/b.mkv", "/lib/Alpha/Alpha (2).mkv"),
		}

		ResolveTargetConflicts(fs, entries, PolicySuffix)

		// "(2)" is reserved by the second entry, so the probe lands on "(3)".
		assert.Equal(t, filepath.Join("/lib", "Alpha", "Alpha (3).mkv"), entries[0].TargetPath)
	})

	t.Run("probe never lands on the source path", func(t *testing.T) {
		fs := fsops.NewMemFS()
		source := filepath.Join("/lib", "Alpha", "Alpha (2).mkv")
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("old"))
		fs.AddFile(source, []byte("v"))
		entries := []Entry{
			occupiedEntry("i1", source, "/lib/Alpha/Alpha.mkv"),
		}

		ResolveTargetConflicts(fs, entries, PolicySuffix)

		assert.Equal(t, filepath.Join("/lib", "Alpha", "Alpha (3).mkv"), entries[0].TargetPath)
	})

	t.Run("exhausted probe space reports unresolvable", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Gamma/Gamma.mkv", []byte("old"))
		for n := 2; n <= suffixProbeLimit; n++ {
			fs.AddFile(filepath.Join("/lib", "Gamma", "Gamma ("+strconv.Itoa(n)+").mkv"), []byte("x"))
		}
		entries := []Entry{
			occupiedEntry("i1", "/in/a.mkv", "/lib/Gamma/Gamma.mkv"),
		}

		ResolveTargetConflicts(fs, entries, PolicySuffix)

		assert.Equal(t, ActionConflict, entries[0].Action)
		assert.Equal(t, ReasonUnableToResolveTargetSuffix, entries[0].Reason)
	})
}
