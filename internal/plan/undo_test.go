package plan

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/curator/internal/clock"
	"github.com/danieljhkim/curator/internal/fsops"
)

var undoTime = time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)

func newTestUndoer(fs fsops.FS) *Undoer {
	return NewUndoer(fs, clock.NewFakeClock(undoTime))
}

func sourceRun(ops ...UndoOperation) ApplyRun {
	return ApplyRun{
		RunID:          "run-1",
		AppliedAt:      undoTime.Add(-time.Hour),
		PlanRootPath:   "/lib",
		UndoOperations: ops,
	}
}

func TestUndoApplyRun(t *testing.T) {
	t.Run("replays operations last-moved-first", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("a"))
		fs.AddFile("/lib/Beta/Beta.mkv", []byte("b"))

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Alpha/Alpha.mkv", ToPath: "/in/a.mkv"},
			UndoOperation{FromPath: "/lib/Beta/Beta.mkv", ToPath: "/in/b.mkv"},
		), UndoOptions{})

		assert.NotEmpty(t, run.UndoRunID)
		assert.Equal(t, "run-1", run.SourceApplyRunID)
		assert.Equal(t, undoTime, run.UndoneAt)
		assert.Equal(t, 2, run.RequestedCount)
		assert.Equal(t, 2, run.AppliedCount)

		require.Len(t, run.Results, 2)
		assert.Equal(t, "/lib/Beta/Beta.mkv", run.Results[0].FromPath)
		assert.Equal(t, "/lib/Alpha/Alpha.mkv", run.Results[1].FromPath)

		content, ok := fs.Content("/in/a.mkv")
		require.True(t, ok)
		assert.Equal(t, []byte("a"), content)
		_, ok = fs.Content("/lib/Beta/Beta.mkv")
		assert.False(t, ok)
	})

	t.Run("blank operations are dropped", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("a"))

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "", ToPath: "/in/x.mkv"},
			UndoOperation{FromPath: "/lib/Alpha/Alpha.mkv", ToPath: "/in/a.mkv"},
			UndoOperation{FromPath: "/lib/y.mkv", ToPath: "  "},
		), UndoOptions{})

		assert.Equal(t, 1, run.RequestedCount)
		assert.Equal(t, 1, run.AppliedCount)
	})

	t.Run("identical from and to is a noop", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/in/a.mkv", []byte("a"))

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/in/a.mkv", ToPath: "/in/a.mkv"},
		), UndoOptions{})

		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusSkipped, run.Results[0].Status)
		assert.Equal(t, ReasonNoopUndoPath, run.Results[0].Reason)
	})

	t.Run("missing moved item is tolerated", func(t *testing.T) {
		fs := fsops.NewMemFS()

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Gone/Gone.mkv", ToPath: "/in/gone.mkv"},
		), UndoOptions{})

		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusSkipped, run.Results[0].Status)
		assert.Equal(t, ReasonUndoSourceMissing, run.Results[0].Reason)
		assert.Zero(t, run.FailedCount)
	})

	t.Run("occupied restore target under fail policy", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("moved"))
		fs.AddFile("/in/a.mkv", []byte("newcomer"))

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Alpha/Alpha.mkv", ToPath: "/in/a.mkv"},
		), UndoOptions{TargetConflictPolicy: PolicyFail})

		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusFailed, run.Results[0].Status)
		assert.Equal(t, ReasonUndoTargetAlreadyExists, run.Results[0].Reason)

		// Neither file was touched.
		content, _ := fs.Content("/in/a.mkv")
		assert.Equal(t, []byte("newcomer"), content)
		_, ok := fs.Content("/lib/Alpha/Alpha.mkv")
		assert.True(t, ok)
	})

	t.Run("occupied restore target under skip policy", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("moved"))
		fs.AddFile("/in/a.mkv", []byte("newcomer"))

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Alpha/Alpha.mkv", ToPath: "/in/a.mkv"},
		), UndoOptions{TargetConflictPolicy: PolicySkip})

		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusSkipped, run.Results[0].Status)
		assert.Equal(t, ReasonUndoTargetAlreadyExists, run.Results[0].Reason)
		assert.Equal(t, 1, run.SkippedCount)
	})

	t.Run("occupied restore target under suffix policy moves the occupant aside", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("moved"))
		fs.AddFile("/in/a.mkv", []byte("newcomer"))

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Alpha/Alpha.mkv", ToPath: "/in/a.mkv"},
		), UndoOptions{TargetConflictPolicy: PolicySuffix})

		require.Len(t, run.Results, 1)
		result := run.Results[0]
		assert.Equal(t, StatusApplied, result.Status)
		aside := filepath.Join("/in", "a (undo-conflict 2).mkv")
		assert.Equal(t, aside, result.ConflictAsidePath)
		assert.Equal(t, 1, run.ConflictResolvedCount)

		restored, _ := fs.Content("/in/a.mkv")
		assert.Equal(t, []byte("moved"), restored)
		occupant, ok := fs.Content(aside)
		require.True(t, ok)
		assert.Equal(t, []byte("newcomer"), occupant)
	})

	t.Run("empty directories are cleaned up to protected roots", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Show/Season 01/e.mkv", []byte("v"))

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Show/Season 01/e.mkv", ToPath: "/in/e.mkv"},
		), UndoOptions{ProtectedRoots: []string{"/lib", "/in"}})

		assert.Equal(t, 1, run.AppliedCount)
		assert.Equal(t, []string{
			filepath.Join("/lib", "Show", "Season 01"),
			filepath.Join("/lib", "Show"),
		}, run.DeletedDirectories)
		assert.False(t, fsops.DirExists(fs, "/lib/Show"))
		assert.True(t, fsops.DirExists(fs, "/lib"))
	})

	t.Run("cleanup leaves non-empty directories alone", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Show/Season 01/e.mkv", []byte("v"))
		fs.AddFile("/lib/Show/tvshow.nfo", []byte("n"))

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Show/Season 01/e.mkv", ToPath: "/in/e.mkv"},
		), UndoOptions{ProtectedRoots: []string{"/lib"}})

		assert.Equal(t, []string{filepath.Join("/lib", "Show", "Season 01")}, run.DeletedDirectories)
		assert.True(t, fsops.DirExists(fs, "/lib/Show"))
	})

	t.Run("cross-volume directory restore falls back to copy", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Heat/Subs/heat.srt", []byte("s"))
		fs.FailRename = func(oldPath, newPath string) error {
			return syscall.EXDEV
		}

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Heat/Subs", ToPath: "/in/Heat/Subs"},
		), UndoOptions{})

		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusApplied, run.Results[0].Status)

		content, ok := fs.Content("/in/Heat/Subs/heat.srt")
		require.True(t, ok)
		assert.Equal(t, []byte("s"), content)
		assert.False(t, fsops.DirExists(fs, "/lib/Heat/Subs"))
	})

	t.Run("cross-volume file restore fails without fallback", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("a"))
		fs.FailRename = func(oldPath, newPath string) error {
			return syscall.EXDEV
		}

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(context.Background(), sourceRun(
			UndoOperation{FromPath: "/lib/Alpha/Alpha.mkv", ToPath: "/in/a.mkv"},
		), UndoOptions{})

		require.Len(t, run.Results, 1)
		assert.Equal(t, StatusFailed, run.Results[0].Status)
		assert.Contains(t, run.Results[0].Reason, "UndoMoveFailed:")
	})

	t.Run("cancellation skips remaining operations", func(t *testing.T) {
		fs := fsops.NewMemFS()
		fs.AddFile("/lib/Alpha/Alpha.mkv", []byte("a"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		undoer := newTestUndoer(fs)
		run := undoer.UndoApplyRun(ctx, sourceRun(
			UndoOperation{FromPath: "/lib/Alpha/Alpha.mkv", ToPath: "/in/a.mkv"},
		), UndoOptions{})

		assert.Zero(t, run.AppliedCount)
		require.Len(t, run.Results, 1)
		assert.Equal(t, ReasonCancelled, run.Results[0].Reason)
		_, ok := fs.Content("/lib/Alpha/Alpha.mkv")
		assert.True(t, ok)
	})
}
