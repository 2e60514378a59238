package review

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/plan"
)

var lockTime = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func TestCreateLock(t *testing.T) {
	base := basePlanForOverrides()
	noOverrides := OverridesSnapshot{SchemaVersion: SchemaVersion, PlanFingerprint: base.Fingerprint}

	t.Run("freezes the effective plan and selection", func(t *testing.T) {
		lock, warnings := CreateLock(base, noOverrides, []string{"/in/a.mkv"}, lockTime)

		assert.NotEmpty(t, lock.ReviewID)
		assert.Equal(t, lockTime, lock.CreatedAt)
		assert.Equal(t, base.Fingerprint, lock.PlanFingerprint)
		assert.Equal(t, base.RootPath, lock.PlanRootPath)
		assert.Equal(t, []string{"/in/a.mkv"}, lock.SelectedSourcePaths)
		assert.False(t, lock.Applied())
		assert.Empty(t, warnings)

		// The frozen plan carries its own fingerprint.
		assert.NotEmpty(t, lock.EffectivePlan.Fingerprint)
	})

	t.Run("empty selection defaults to every move entry", func(t *testing.T) {
		lock, _ := CreateLock(base, noOverrides, nil, lockTime)
		assert.Equal(t, []string{"/in/a.mkv", "/in/b.mkv"}, lock.SelectedSourcePaths)
	})

	t.Run("override-skipped entries drop out of the default selection", func(t *testing.T) {
		overrides := noOverrides
		overrides.Entries = []OverrideEntry{{SourcePath: "/in/a.mkv", Action: "skip"}}

		lock, _ := CreateLock(base, overrides, nil, lockTime)
		assert.Equal(t, []string{"/in/b.mkv"}, lock.SelectedSourcePaths)
	})

	t.Run("duplicate and blank selections collapse", func(t *testing.T) {
		lock, _ := CreateLock(base, noOverrides, []string{"/in/a.mkv", " ", "/in/a.mkv"}, lockTime)
		assert.Equal(t, []string{"/in/a.mkv"}, lock.SelectedSourcePaths)
	})

	t.Run("override-introduced target collisions produce warnings", func(t *testing.T) {
		overrides := noOverrides
		overrides.Entries = []OverrideEntry{
			{SourcePath: "/in/b.mkv", TargetPath: strp("/lib/Alpha/Alpha.mkv")},
		}

		lock, warnings := CreateLock(base, overrides, nil, lockTime)

		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "/in/a.mkv")
		assert.Contains(t, warnings[0], "/in/b.mkv")

		// Entry actions stay as they are; warnings are advisory.
		for _, entry := range lock.EffectivePlan.Entries {
			assert.Equal(t, plan.ActionMove, entry.Action)
		}
	})
}

func newTestLockStore(t *testing.T) *LockStore {
	t.Helper()
	return NewLockStore(fsops.NewRealFS(), filepath.Join(t.TempDir(), "review-locks.json"))
}

func TestLockStore(t *testing.T) {
	base := basePlanForOverrides()
	noOverrides := OverridesSnapshot{SchemaVersion: SchemaVersion, PlanFingerprint: base.Fingerprint}

	t.Run("append and fetch by id", func(t *testing.T) {
		s := newTestLockStore(t)
		lock, _ := CreateLock(base, noOverrides, nil, lockTime)
		require.NoError(t, s.Append(lock))

		got, ok := s.ByID(lock.ReviewID)
		require.True(t, ok)
		assert.Equal(t, lock.ReviewID, got.ReviewID)
		assert.Equal(t, lock.SelectedSourcePaths, got.SelectedSourcePaths)

		_, ok = s.ByID("missing")
		assert.False(t, ok)
		_, ok = s.ByID("")
		assert.False(t, ok)
	})

	t.Run("list preserves append order", func(t *testing.T) {
		s := newTestLockStore(t)
		first, _ := CreateLock(base, noOverrides, nil, lockTime)
		second, _ := CreateLock(base, noOverrides, nil, lockTime.Add(time.Minute))
		require.NoError(t, s.Append(first))
		require.NoError(t, s.Append(second))

		locks := s.List()
		require.Len(t, locks, 2)
		assert.Equal(t, first.ReviewID, locks[0].ReviewID)
		assert.Equal(t, second.ReviewID, locks[1].ReviewID)
	})

	t.Run("duplicate review ids are rejected", func(t *testing.T) {
		s := newTestLockStore(t)
		lock, _ := CreateLock(base, noOverrides, nil, lockTime)
		require.NoError(t, s.Append(lock))

		err := s.Append(lock)
		assert.True(t, errors.Is(err, ErrDuplicateReviewID))
	})

	t.Run("mark applied is one-shot", func(t *testing.T) {
		s := newTestLockStore(t)
		lock, _ := CreateLock(base, noOverrides, nil, lockTime)
		require.NoError(t, s.Append(lock))

		appliedAt := lockTime.Add(10 * time.Minute)
		require.NoError(t, s.MarkApplied(lock.ReviewID, "run-1", appliedAt))

		got, ok := s.ByID(lock.ReviewID)
		require.True(t, ok)
		assert.True(t, got.Applied())
		assert.Equal(t, "run-1", got.AppliedRunID)
		require.NotNil(t, got.AppliedAt)
		assert.True(t, got.AppliedAt.Equal(appliedAt))

		err := s.MarkApplied(lock.ReviewID, "run-2", appliedAt.Add(time.Minute))
		assert.True(t, errors.Is(err, ErrLockAlreadyApplied))
	})

	t.Run("marking a missing lock fails", func(t *testing.T) {
		s := newTestLockStore(t)
		err := s.MarkApplied("nope", "run-1", lockTime)
		assert.True(t, errors.Is(err, ErrLockNotFound))
	})
}
