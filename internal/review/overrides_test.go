package review

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/curator/internal/plan"
)

var patchTime = time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func currentPlanWithFingerprint(fp string) plan.Snapshot {
	return plan.Snapshot{
		SchemaVersion: plan.SchemaVersion,
		Fingerprint:   fp,
		RootPath:      "/lib",
	}
}

func TestValidateRequest(t *testing.T) {
	current := currentPlanWithFingerprint("abc123")

	valid := PatchRequest{
		ExpectedPlanFingerprint: "abc123",
		Patches: []Patch{
			{SourcePath: "/in/a.mkv", Action: strp("skip")},
		},
	}

	t.Run("valid request passes", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(valid, current))
	})

	t.Run("fingerprint match is case-insensitive", func(t *testing.T) {
		req := valid
		req.ExpectedPlanFingerprint = "ABC123"
		assert.NoError(t, ValidateRequest(req, current))
	})

	t.Run("blank fingerprint is rejected", func(t *testing.T) {
		req := valid
		req.ExpectedPlanFingerprint = " "
		assert.Error(t, ValidateRequest(req, current))
	})

	t.Run("stale fingerprint fails with the mismatch sentinel", func(t *testing.T) {
		req := valid
		req.ExpectedPlanFingerprint = "stale"
		err := ValidateRequest(req, current)
		assert.True(t, errors.Is(err, plan.ErrFingerprintMismatch))
	})

	t.Run("empty patch list is rejected", func(t *testing.T) {
		req := valid
		req.Patches = nil
		assert.Error(t, ValidateRequest(req, current))
	})

	t.Run("blank source path is rejected", func(t *testing.T) {
		req := valid
		req.Patches = []Patch{{SourcePath: " ", Action: strp("skip")}}
		assert.Error(t, ValidateRequest(req, current))
	})

	t.Run("duplicate source paths are rejected", func(t *testing.T) {
		req := valid
		req.Patches = []Patch{
			{SourcePath: "/in/a.mkv", Action: strp("skip")},
			{SourcePath: "/in/a.mkv", Action: strp("move")},
		}
		assert.Error(t, ValidateRequest(req, current))
	})

	t.Run("unsupported action is rejected", func(t *testing.T) {
		req := valid
		req.Patches = []Patch{{SourcePath: "/in/a.mkv", Action: strp("explode")}}
		assert.Error(t, ValidateRequest(req, current))
	})

	t.Run("patch with nothing to change is rejected", func(t *testing.T) {
		req := valid
		req.Patches = []Patch{{SourcePath: "/in/a.mkv"}}
		assert.Error(t, ValidateRequest(req, current))
	})

	t.Run("remove needs no fields", func(t *testing.T) {
		req := valid
		req.Patches = []Patch{{SourcePath: "/in/a.mkv", Remove: true}}
		assert.NoError(t, ValidateRequest(req, current))
	})
}

func TestApplyPatches(t *testing.T) {
	empty := OverridesSnapshot{SchemaVersion: SchemaVersion, PlanFingerprint: "abc123"}

	t.Run("adds a new override", func(t *testing.T) {
		result := ApplyPatches(empty, PatchRequest{
			Patches: []Patch{{SourcePath: "/in/a.mkv", Action: strp("skip")}},
		}, "abc123", patchTime)

		assert.Equal(t, 1, result.UpdatedCount)
		assert.Zero(t, result.RemovedCount)
		assert.Equal(t, "abc123", result.Snapshot.PlanFingerprint)
		assert.Equal(t, patchTime, result.Snapshot.UpdatedAt)
		require.Len(t, result.Snapshot.Entries, 1)
		assert.Equal(t, "skip", result.Snapshot.Entries[0].Action)
		assert.Nil(t, result.Snapshot.Entries[0].TargetPath)
	})

	t.Run("merges onto an existing override", func(t *testing.T) {
		current := empty
		current.Entries = []OverrideEntry{
			{SourcePath: "/in/a.mkv", Action: "skip"},
		}

		result := ApplyPatches(current, PatchRequest{
			Patches: []Patch{{SourcePath: "/in/a.mkv", TargetPath: strp("/lib/Else/a.mkv")}},
		}, "abc123", patchTime)

		require.Len(t, result.Snapshot.Entries, 1)
		entry := result.Snapshot.Entries[0]
		assert.Equal(t, "skip", entry.Action)
		require.NotNil(t, entry.TargetPath)
		assert.Equal(t, "/lib/Else/a.mkv", *entry.TargetPath)
	})

	t.Run("remove deletes the override", func(t *testing.T) {
		current := empty
		current.Entries = []OverrideEntry{
			{SourcePath: "/in/a.mkv", Action: "skip"},
		}

		result := ApplyPatches(current, PatchRequest{
			Patches: []Patch{{SourcePath: "/in/a.mkv", Remove: true}},
		}, "abc123", patchTime)

		assert.Equal(t, 1, result.RemovedCount)
		assert.Empty(t, result.Snapshot.Entries)
	})

	t.Run("remove of an absent override is a quiet no-op", func(t *testing.T) {
		result := ApplyPatches(empty, PatchRequest{
			Patches: []Patch{{SourcePath: "/in/never.mkv", Remove: true}},
		}, "abc123", patchTime)

		assert.Zero(t, result.RemovedCount)
		assert.Zero(t, result.UpdatedCount)
	})

	t.Run("clearing the last field deletes the override", func(t *testing.T) {
		current := empty
		current.Entries = []OverrideEntry{
			{SourcePath: "/in/a.mkv", TargetPath: strp("/lib/Else/a.mkv")},
		}

		result := ApplyPatches(current, PatchRequest{
			Patches: []Patch{{SourcePath: "/in/a.mkv", TargetPath: strp("")}},
		}, "abc123", patchTime)

		assert.Equal(t, 1, result.RemovedCount)
		assert.Empty(t, result.Snapshot.Entries)
	})

	t.Run("entries come back sorted by source path", func(t *testing.T) {
		result := ApplyPatches(empty, PatchRequest{
			Patches: []Patch{
				{SourcePath: "/in/z.mkv", Action: strp("skip")},
				{SourcePath: "/in/a.mkv", Action: strp("none")},
			},
		}, "abc123", patchTime)

		require.Len(t, result.Snapshot.Entries, 2)
		assert.Equal(t, "/in/a.mkv", result.Snapshot.Entries[0].SourcePath)
		assert.Equal(t, "/in/z.mkv", result.Snapshot.Entries[1].SourcePath)
	})
}

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, "move", NormalizeAction("Move"))
	assert.Equal(t, "skip", NormalizeAction("  SKIP  "))
	assert.Equal(t, "", NormalizeAction("explode"))
	assert.Equal(t, "", NormalizeAction(""))

	assert.True(t, IsSupportedAction("conflict"))
	assert.False(t, IsSupportedAction("delete"))
}
