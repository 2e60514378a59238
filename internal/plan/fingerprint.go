package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// fingerprintEntry is the semantic subset of an entry that participates in
// the plan fingerprint. Associated files are derived from source and target,
// so they do not contribute.
type fingerprintEntry struct {
	ItemID             string  `json:"itemId"`
	SourcePath         string  `json:"sourcePath"`
	TargetPath         string  `json:"targetPath"`
	Strategy           string  `json:"strategy"`
	Action             string  `json:"action"`
	Reason             string  `json:"reason"`
	Confidence         float64 `json:"confidence"`
	SuggestedTitle     string  `json:"suggestedTitle"`
	SuggestedMediaType string  `json:"suggestedMediaType"`
}

type fingerprintPayload struct {
	RootPath string             `json:"rootPath"`
	DryRun   bool               `json:"dryRun"`
	Counts   Counts             `json:"counts"`
	Entries  []fingerprintEntry `json:"entries"`
}

// Fingerprint computes the order-independent content hash of a plan: the
// semantic fields of each entry, sorted by (sourcePath, targetPath, itemId),
// serialized to compact JSON and hashed with SHA-256. GeneratedAt and the
// stored fingerprint itself never participate, so rebuilding an unchanged
// plan yields the same fingerprint.
func Fingerprint(snapshot Snapshot) string {
	entries := make([]fingerprintEntry, 0, len(snapshot.Entries))
	for _, e := range snapshot.Entries {
		entries = append(entries, fingerprintEntry{
			ItemID:             e.ItemID,
			SourcePath:         e.SourcePath,
			TargetPath:         e.TargetPath,
			Strategy:           e.Strategy,
			Action:             e.Action,
			Reason:             e.Reason,
			Confidence:         e.Confidence,
			SuggestedTitle:     e.SuggestedTitle,
			SuggestedMediaType: e.SuggestedMediaType,
		})
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].SourcePath != entries[b].SourcePath {
			return entries[a].SourcePath < entries[b].SourcePath
		}
		if entries[a].TargetPath != entries[b].TargetPath {
			return entries[a].TargetPath < entries[b].TargetPath
		}
		return entries[a].ItemID < entries[b].ItemID
	})

	payload := fingerprintPayload{
		RootPath: snapshot.RootPath,
		DryRun:   snapshot.DryRun,
		Counts:   snapshot.Counts,
		Entries:  entries,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Payload is plain structs and never fails to marshal.
		panic(err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
