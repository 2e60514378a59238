package plan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/pathcmp"
)

// suffixProbeLimit bounds the "{name} (n){ext}" search.
const suffixProbeLimit = 999

// MarkDuplicateTargetConflicts force-converts every group of move entries
// sharing a canonicalized target path to conflict/DuplicateTargetInPlan.
// Runs after suffix resolution, so it only catches irreconcilable collisions.
func MarkDuplicateTargetConflicts(entries []Entry) {
	groups := groupMovesByTarget(entries)
	for _, indexes := range groups {
		if len(indexes) < 2 {
			continue
		}
		for _, i := range indexes {
			entries[i].Action = ActionConflict
			entries[i].Reason = ReasonDuplicateTargetInPlan
		}
	}
}

// ResolveTargetConflicts applies the target conflict policy to entries that
// collided with an existing file or with each other. Under the fail policy
// duplicates are marked and nothing is resolved. Under skip, colliding
// entries are downgraded to skip with the original reason. Under suffix,
// each colliding entry probes "{name} (n){ext}" for a free target,
// reserving probed targets so entries in the same batch never collide.
func ResolveTargetConflicts(fs fsops.FS, entries []Entry, policy string) {
	switch ParsePolicy(policy) {
	case PolicySkip:
		resolveWithPolicy(fs, entries, false)
	case PolicySuffix:
		resolveWithPolicy(fs, entries, true)
	default:
		MarkDuplicateTargetConflicts(entries)
	}
}

func resolveWithPolicy(fs fsops.FS, entries []Entry, suffix bool) {
	reserved := make(map[string]bool)
	for _, entry := range entries {
		if entry.Action == ActionMove && strings.TrimSpace(entry.TargetPath) != "" {
			reserved[pathcmp.Key(entry.TargetPath)] = true
		}
	}

	// Entries that hit an existing on-disk target.
	existing := make([]int, 0)
	for i, entry := range entries {
		if entry.Action == ActionConflict &&
			strings.EqualFold(entry.Reason, ReasonTargetAlreadyExists) &&
			strings.TrimSpace(entry.TargetPath) != "" {
			existing = append(existing, i)
		}
	}
	sortEntryIndexes(entries, existing)

	for _, i := range existing {
		entry := &entries[i]
		if !suffix {
			entry.Action = ActionSkip
			entry.Reason = ReasonTargetAlreadyExists
			continue
		}
		resolveSuffix(fs, entry, reserved)
	}

	// Entries that collide with each other inside the plan.
	for _, indexes := range groupMovesByTarget(entries) {
		if len(indexes) < 2 {
			continue
		}
		sortEntryIndexes(entries, indexes)
		keeper := &entries[indexes[0]]

		for _, i := range indexes[1:] {
			entry := &entries[i]
			if !suffix {
				entry.Action = ActionSkip
				entry.Reason = ReasonDuplicateTargetInPlan
				continue
			}
			resolveSuffix(fs, entry, reserved)
		}

		if strings.EqualFold(keeper.Reason, ReasonDuplicateTargetInPlan) {
			keeper.Reason = ReasonPlanned
		}
	}
}

func resolveSuffix(fs fsops.FS, entry *Entry, reserved map[string]bool) {
	suffixed, ok := suffixedTargetPath(fs, entry.SourcePath, entry.TargetPath, reserved)
	if !ok {
		entry.Action = ActionConflict
		entry.Reason = ReasonUnableToResolveTargetSuffix
		return
	}
	entry.TargetPath = suffixed
	entry.Action = ActionMove
	entry.Reason = ReasonPlannedWithSuffix
	reserved[pathcmp.Key(suffixed)] = true
}

// suffixedTargetPath probes "{name} (n){ext}" for n=2..suffixProbeLimit
// until it finds a path that is not the source, not on disk, and not
// reserved by another entry in the same batch.
func suffixedTargetPath(fs fsops.FS, sourcePath, targetPath string, reserved map[string]bool) (string, bool) {
	dir := filepath.Dir(targetPath)
	ext := filepath.Ext(targetPath)
	stem := strings.TrimSuffix(filepath.Base(targetPath), ext)
	if dir == "" || strings.TrimSpace(stem) == "" {
		return "", false
	}

	for n := 2; n <= suffixProbeLimit; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if pathcmp.Equal(sourcePath, candidate) {
			continue
		}
		if fsops.FileExists(fs, candidate) {
			continue
		}
		if reserved[pathcmp.Key(candidate)] {
			continue
		}
		return candidate, true
	}
	return "", false
}

// groupMovesByTarget groups indexes of move entries by canonicalized target.
func groupMovesByTarget(entries []Entry) map[string][]int {
	groups := make(map[string][]int)
	for i, entry := range entries {
		if entry.Action == ActionMove && strings.TrimSpace(entry.TargetPath) != "" {
			key := pathcmp.Key(entry.TargetPath)
			groups[key] = append(groups[key], i)
		}
	}
	return groups
}

// sortEntryIndexes orders indexes by (sourcePath, itemId) for deterministic
// keeper selection.
func sortEntryIndexes(entries []Entry, indexes []int) {
	sort.Slice(indexes, func(a, b int) bool {
		ea, eb := entries[indexes[a]], entries[indexes[b]]
		if !pathcmp.Equal(ea.SourcePath, eb.SourcePath) {
			return pathcmp.Less(ea.SourcePath, eb.SourcePath)
		}
		return strings.ToLower(ea.ItemID) < strings.ToLower(eb.ItemID)
	})
}
