// Package review implements the asynchronous human-review layer over a
// stored plan: per-entry overrides, the effective plan they produce, and
// immutable review locks that freeze an effective plan for a later apply.
package review

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danieljhkim/curator/internal/pathcmp"
	"github.com/danieljhkim/curator/internal/plan"
)

// SchemaVersion is the persisted overrides document version.
const SchemaVersion = 1

// HistoryLimit bounds the overrides history ring.
const HistoryLimit = 200

// OverrideEntry is one stored per-entry override. A nil TargetPath means
// the target is not overridden.
type OverrideEntry struct {
	SourcePath string  `json:"sourcePath"`
	Action     string  `json:"action,omitempty"`
	TargetPath *string `json:"targetPath,omitempty"`
}

// OverridesSnapshot is the persisted override set for one plan fingerprint.
// Overrides are only meaningful for the fingerprint they were computed
// against; reading them for any other fingerprint yields an empty snapshot.
type OverridesSnapshot struct {
	SchemaVersion   int             `json:"schemaVersion"`
	PlanFingerprint string          `json:"planFingerprint"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Entries         []OverrideEntry `json:"entries"`
}

// Patch is one requested override change. Nil Action and TargetPath mean
// "leave unchanged"; an empty TargetPath string clears the override.
type Patch struct {
	SourcePath string  `json:"sourcePath"`
	Action     *string `json:"action,omitempty"`
	TargetPath *string `json:"targetPath,omitempty"`
	Remove     bool    `json:"remove,omitempty"`
}

// PatchRequest patches the override set for the current plan.
type PatchRequest struct {
	ExpectedPlanFingerprint string  `json:"expectedPlanFingerprint"`
	Patches                 []Patch `json:"patches"`
}

// PatchResult reports the outcome of applying a patch request.
type PatchResult struct {
	Snapshot     OverridesSnapshot `json:"snapshot"`
	UpdatedCount int               `json:"updatedCount"`
	RemovedCount int               `json:"removedCount"`
}

// ValidateRequest checks a patch request against the current plan without
// applying anything. A stale fingerprint fails with
// plan.ErrFingerprintMismatch.
func ValidateRequest(req PatchRequest, currentPlan plan.Snapshot) error {
	if strings.TrimSpace(req.ExpectedPlanFingerprint) == "" {
		return fmt.Errorf("expectedPlanFingerprint is required")
	}
	if !strings.EqualFold(req.ExpectedPlanFingerprint, currentPlan.Fingerprint) {
		return plan.ErrFingerprintMismatch
	}
	if len(req.Patches) == 0 {
		return fmt.Errorf("at least one patch is required")
	}

	seen := make(map[string]bool, len(req.Patches))
	for _, patch := range req.Patches {
		if strings.TrimSpace(patch.SourcePath) == "" {
			return fmt.Errorf("patch source path is required")
		}
		key := pathcmp.Key(patch.SourcePath)
		if seen[key] {
			return fmt.Errorf("duplicate patch source path: %s", patch.SourcePath)
		}
		seen[key] = true

		if patch.Remove {
			continue
		}
		if patch.Action != nil && strings.TrimSpace(*patch.Action) != "" && !IsSupportedAction(*patch.Action) {
			return fmt.Errorf("unsupported action override: %s", *patch.Action)
		}
		if patch.Action == nil && patch.TargetPath == nil {
			return fmt.Errorf("patch for %s must set action or targetPath, or remove", patch.SourcePath)
		}
	}
	return nil
}

// ApplyPatches merges a validated patch request into the current override
// set. Each patch merges onto any existing override for its path; a merged
// override left with neither action nor target is deleted instead of stored.
func ApplyPatches(current OverridesSnapshot, req PatchRequest, planFingerprint string, now time.Time) PatchResult {
	overrides := BuildOverrideMap(current)
	order := make([]string, 0, len(overrides))
	byKey := make(map[string]OverrideEntry, len(overrides))
	for key, entry := range overrides {
		order = append(order, key)
		byKey[key] = entry
	}

	updated := 0
	removed := 0
	for _, patch := range req.Patches {
		key := pathcmp.Key(patch.SourcePath)

		if patch.Remove {
			if _, ok := byKey[key]; ok {
				delete(byKey, key)
				removed++
			}
			continue
		}

		existing := byKey[key]

		action := existing.Action
		if patch.Action != nil {
			action = NormalizeAction(*patch.Action)
		}

		targetPath := existing.TargetPath
		if patch.TargetPath != nil {
			trimmed := strings.TrimSpace(*patch.TargetPath)
			if trimmed == "" {
				targetPath = nil
			} else {
				targetPath = &trimmed
			}
		}

		if action == "" && targetPath == nil {
			if _, ok := byKey[key]; ok {
				delete(byKey, key)
				removed++
			}
			continue
		}

		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = OverrideEntry{
			SourcePath: patch.SourcePath,
			Action:     action,
			TargetPath: targetPath,
		}
		updated++
	}

	entries := make([]OverrideEntry, 0, len(byKey))
	for _, key := range order {
		if entry, ok := byKey[key]; ok {
			entries = append(entries, entry)
		}
	}
	sortOverrides(entries)

	return PatchResult{
		Snapshot: OverridesSnapshot{
			SchemaVersion:   SchemaVersion,
			PlanFingerprint: planFingerprint,
			UpdatedAt:       now,
			Entries:         entries,
		},
		UpdatedCount: updated,
		RemovedCount: removed,
	}
}

// NormalizeAction lowercases and validates an action override; unsupported
// values normalize to empty.
func NormalizeAction(action string) string {
	normalized := strings.ToLower(strings.TrimSpace(action))
	if plan.ValidActions[normalized] {
		return normalized
	}
	return ""
}

// IsSupportedAction reports whether action is one of move, skip, none,
// conflict.
func IsSupportedAction(action string) bool {
	return plan.ValidActions[strings.ToLower(strings.TrimSpace(action))]
}

func sortOverrides(entries []OverrideEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return pathcmp.Less(entries[i].SourcePath, entries[j].SourcePath)
	})
}
