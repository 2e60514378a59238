package plan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/curator/internal/clock"
	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/hash"
)

var applyTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestApplier(fs fsops.FS) *Applier {
	return NewApplier(fs, hash.NewFakeHasher(), clock.NewFakeClock(applyTime))
}

func applySnapshot(entries ...Entry) Snapshot {
	s := Snapshot{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   applyTime.Add(-time.Hour),
		RootPath:      "/lib",
		DryRun:        true,
		Counts:        RecomputeCounts(entries),
		Entries:       entries,
	}
	s.Fingerprint = Fingerprint(s)
	return s
}

func TestApplySelected(t *testing.T) {
	t.Run("moves selected entries and records inverses", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("alpha"))
		fs.AddFile("/in/b.mkv", []byte("beta"))
		snapshot := applySnapshot(
			moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"),
			moveEntry("i2", "/in/b.mkv", "/lib/Beta/Beta.mkv"),
		)

		applier := newTestApplier(fs)
		run := applier.ApplySelected(context.Background(), snapshot, []string{"/in/a.mkv", "/in/b.mkv"}, ApplyOptions{})

		assert.NotEmpty(t, run.RunID)
		assert.Equal(t, applyTime, run.AppliedAt)
		assert.Equal(t, snapshot.Fingerprint, run.PlanFingerprint)
		assert.Equal(t, 2, run.RequestedCount)
		assert.Equal(t, 2, run.AppliedCount)
		assert.Zero(t, run.SkippedCount)
		assert.Zero(t, run.FailedCount)

		require.Len(t, run.Results, 2)
		for _, result := range run.Results {
			assert.Equal(t, StatusApplied, result.Status)
			assert.Equal(t, ReasonMoved, result.Reason)
			assert.NotEmpty(t, result.SourceChecksum)
		}

		content, ok := fs.Content("/lib/Alpha/Alpha.mkv")
		require.True(t, ok)
		assert.Equal(t, []byte("alpha"), content)
		_, ok = fs.Content("/in/a.mkv")
		assert.False(t, ok)

		require.Len(t, run.UndoOperations, 2)
		assert.Equal(t, UndoOperation{FromPath: "/lib/Alpha/Alpha.mkv", ToPath: "/in/a.mkv"}, run.UndoOperations[0])
	})

	t.Run("records the pre-move checksum", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("alpha"))
		hasher := hash.NewFakeHasher()
		hasher.SetHash("/in/a.mkv", "checksum-a")
		applier := NewApplier(fs, hasher, clock.NewFakeClock(applyTime))

		snapshot := applySnapshot(moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"))
		run := applier.ApplySelected(context.Background(), snapshot, []string{"/in/a.mkv"}, ApplyOptions{})

		require.Len(t, run.Results, 1)
		assert.Equal(t, "checksum-a", run.Results[0].SourceChecksum)
	})

	t.Run("preview checks everything and mutates nothing", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("alpha"))
		snapshot := applySnapshot(moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"))

		applier := newTestApplier(fs)
		run := applier.ApplySelected(context.Background(), snapshot, []string{"/in/a.mkv"}, ApplyOptions{Preview: true})

		assert.True(t, run.Preview)
		assert.Equal(t, 1, run.AppliedCount)
		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusPreview, run.Results[0].Status)
		assert.Equal(t, ReasonWouldMove, run.Results[0].Reason)
		assert.Empty(t, run.Results[0].SourceChecksum)
		assert.Empty(t, run.UndoOperations)

		_, ok := fs.Content("/in/a.mkv")
		assert.True(t, ok)
		_, ok = fs.Content("/lib/Alpha/Alpha.mkv")
		assert.False(t, ok)
	})

	t.Run("selection checks", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("alpha"))
		fs.AddFile("/in/skip.mkv", []byte("s"))
		fs.AddFile("/in/outside.mkv", []byte("o"))
		fs.AddFile("/in/occupied.mkv", []byte("x"))
		fs.AddFile("/lib/Taken/Taken.mkv", []byte("old"))

		skipEntry := moveEntry("i2", "/in/skip.mkv", "/lib/Skip/Skip.mkv")
		skipEntry.Action = ActionSkip
		skipEntry.Reason = ReasonUnsupportedMediaType
		blankTarget := moveEntry("i3", "/in/blank.mkv", "")
		outside := moveEntry("i4", "/in/outside.mkv", "/elsewhere/Out.mkv")
		gone := moveEntry("i5", "/in/gone.mkv", "/lib/Gone/Gone.mkv")
		occupied := moveEntry("i6", "/in/occupied.mkv", "/lib/Taken/Taken.mkv")

		snapshot := applySnapshot(
			moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"),
			skipEntry, blankTarget, outside, gone, occupied,
		)
		applier := newTestApplier(fs)

		run := applier.ApplySelected(context.Background(), snapshot, []string{
			"/in/not-in-plan.mkv", "/in/skip.mkv", "/in/blank.mkv",
			"/in/outside.mkv", "/in/gone.mkv", "/in/occupied.mkv", "/in/a.mkv",
		}, ApplyOptions{})

		byPath := map[string]ItemResult{}
		for _, result := range run.Results {
			byPath[result.SourcePath] = result
		}

		assert.Equal(t, StatusSkipped, byPath["/in/not-in-plan.mkv"].Status)
		assert.Equal(t, ReasonNotFoundInPlan, byPath["/in/not-in-plan.mkv"].Reason)
		assert.Equal(t, StatusSkipped, byPath["/in/skip.mkv"].Status)
		assert.Equal(t, ReasonNotMoveAction, byPath["/in/skip.mkv"].Reason)
		assert.Equal(t, StatusFailed, byPath["/in/blank.mkv"].Status)
		assert.Equal(t, ReasonMissingTargetPath, byPath["/in/blank.mkv"].Reason)
		assert.Equal(t, StatusFailed, byPath["/in/outside.mkv"].Status)
		assert.Equal(t, ReasonTargetOutsideRootPath, byPath["/in/outside.mkv"].Reason)
		assert.Equal(t, StatusFailed, byPath["/in/gone.mkv"].Status)
		assert.Equal(t, ReasonSourceMissing, byPath["/in/gone.mkv"].Reason)
		assert.Equal(t, StatusFailed, byPath["/in/occupied.mkv"].Status)
		assert.Equal(t, ReasonTargetAlreadyExists, byPath["/in/occupied.mkv"].Reason)

		// The healthy selection still applies despite its failed siblings.
		assert.Equal(t, StatusApplied, byPath["/in/a.mkv"].Status)
		assert.Equal(t, 1, run.AppliedCount)
		assert.Equal(t, 2, run.SkippedCount)
		assert.Equal(t, 4, run.FailedCount)
	})

	t.Run("empty plan root fails the item", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("alpha"))
		snapshot := applySnapshot(moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"))
		snapshot.RootPath = ""

		applier := newTestApplier(fs)
		run := applier.ApplySelected(context.Background(), snapshot, []string{"/in/a.mkv"}, ApplyOptions{})

		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusFailed, run.Results[0].Status)
		assert.Equal(t, ReasonInvalidPlanRootPath, run.Results[0].Reason)
	})

	t.Run("rename failure is recorded with the error kind", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("alpha"))
		fs.FailRename = func(oldPath, newPath string) error {
			return errors.New("device busy")
		}
		snapshot := applySnapshot(moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"))

		applier := newTestApplier(fs)
		run := applier.ApplySelected(context.Background(), snapshot, []string{"/in/a.mkv"}, ApplyOptions{})

		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusFailed, run.Results[0].Status)
		assert.True(t, strings.HasPrefix(run.Results[0].Reason, "MoveFailed:"), run.Results[0].Reason)
		assert.Empty(t, run.UndoOperations)
	})

	t.Run("cancellation skips remaining selections", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("alpha"))
		fs.AddFile("/in/b.mkv", []byte("beta"))
		snapshot := applySnapshot(
			moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"),
			moveEntry("i2", "/in/b.mkv", "/lib/Beta/Beta.mkv"),
		)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		applier := newTestApplier(fs)
		run := applier.ApplySelected(ctx, snapshot, []string{"/in/a.mkv", "/in/b.mkv"}, ApplyOptions{})

		assert.Zero(t, run.AppliedCount)
		assert.Equal(t, 2, run.SkippedCount)
		for _, result := range run.Results {
			assert.Equal(t, StatusSkipped, result.Status)
			assert.Equal(t, ReasonCancelled, result.Reason)
		}
		_, ok := fs.Content("/in/a.mkv")
		assert.True(t, ok)
	})

	t.Run("blank and duplicate selections collapse", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("alpha"))
		snapshot := applySnapshot(moveEntry("i1", "/in/a.mkv", "/lib/Alpha/Alpha.mkv"))

		applier := newTestApplier(fs)
		run := applier.ApplySelected(context.Background(), snapshot,
			[]string{"/in/a.mkv", "", "  ", "/in/a.mkv"}, ApplyOptions{})

		assert.Equal(t, 1, run.RequestedCount)
		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusApplied, run.Results[0].Status)
	})

	t.Run("sidecars move with the primary and fail independently", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/Heat/Heat.mkv", []byte("v"))
		fs.AddFile("/in/Heat/Heat.en.srt", []byte("s"))

		entry := moveEntry("i1", "/in/Heat/Heat.mkv", "/lib/Heat/Heat.mkv")
		entry.AssociatedFiles = []AssociatedFile{
			{SourcePath: "/in/Heat/Heat.en.srt", TargetPath: "/lib/Heat/Heat.en.srt"},
			{SourcePath: "/in/Heat/poster.jpg", TargetPath: "/lib/Heat/poster.jpg"},
		}
		snapshot := applySnapshot(entry)

		applier := newTestApplier(fs)
		run := applier.ApplySelected(context.Background(), snapshot, []string{"/in/Heat/Heat.mkv"}, ApplyOptions{})

		require.Len(t, run.Results, 1)
		result := run.Results[0]
		assert.Equal(t, StatusApplied, result.Status)
		require.Len(t, result.AssociatedResults, 2)
		assert.Equal(t, StatusApplied, result.AssociatedResults[0].Status)
		assert.Equal(t, StatusFailed, result.AssociatedResults[1].Status)
		assert.Equal(t, ReasonSourceMissing, result.AssociatedResults[1].Reason)

		_, ok := fs.Content("/lib/Heat/Heat.en.srt")
		assert.True(t, ok)

		// Primary first, then each applied sidecar.
		require.Len(t, run.UndoOperations, 2)
		assert.Equal(t, "/lib/Heat/Heat.mkv", run.UndoOperations[0].FromPath)
		assert.Equal(t, "/lib/Heat/Heat.en.srt", run.UndoOperations[1].FromPath)
	})
}
