package review

import (
	"strings"

	"github.com/danieljhkim/curator/internal/pathcmp"
	"github.com/danieljhkim/curator/internal/plan"
)

// BuildOverrideMap indexes an override snapshot by canonicalized source
// path. Later entries win when a stored snapshot somehow carries
// duplicates.
func BuildOverrideMap(snapshot OverridesSnapshot) map[string]OverrideEntry {
	overrides := make(map[string]OverrideEntry, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		if strings.TrimSpace(entry.SourcePath) != "" {
			overrides[pathcmp.Key(entry.SourcePath)] = entry
		}
	}
	return overrides
}

// ApplyOverride returns the entry with the override's non-empty fields
// merged in. The action is replaced only when the override carries a
// supported value; the target only when the override sets one. Every other
// entry field carries through unchanged.
func ApplyOverride(entry plan.Entry, override *OverrideEntry) plan.Entry {
	if override == nil {
		return entry
	}

	effective := entry
	if action := NormalizeAction(override.Action); action != "" {
		effective.Action = action
	}
	if override.TargetPath != nil {
		effective.TargetPath = strings.TrimSpace(*override.TargetPath)
	}
	return effective
}

// BuildEffectivePlan merges a base plan with its overrides and recomputes
// the aggregate counts. The fingerprint stays the base plan's: an effective
// plan is derived state, identified by its inputs.
func BuildEffectivePlan(basePlan plan.Snapshot, overrides OverridesSnapshot) plan.Snapshot {
	overrideMap := BuildOverrideMap(overrides)

	entries := make([]plan.Entry, 0, len(basePlan.Entries))
	for _, entry := range basePlan.Entries {
		if override, ok := overrideMap[pathcmp.Key(entry.SourcePath)]; ok {
			entries = append(entries, ApplyOverride(entry, &override))
		} else {
			entries = append(entries, entry)
		}
	}

	effective := basePlan
	effective.Entries = entries
	effective.Counts = plan.RecomputeCounts(entries)
	return effective
}
