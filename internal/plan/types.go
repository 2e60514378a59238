package plan

import (
	"errors"
	"strings"
	"time"
)

// ErrFingerprintMismatch is returned when a caller's expected fingerprint
// does not match the stored plan. The caller must re-read the plan; nothing
// is mutated.
var ErrFingerprintMismatch = errors.New("PlanFingerprintMismatch")

// SchemaVersion is the persisted plan document version. Documents carrying
// any other version are treated as absent.
const SchemaVersion = 1

// Entry actions.
const (
	ActionMove     = "move"
	ActionNone     = "none"
	ActionSkip     = "skip"
	ActionConflict = "conflict"
)

// Entry strategies.
const (
	StrategyMovie   = "movie"
	StrategyEpisode = "episode"
	StrategyUnknown = "unknown"
)

// Target conflict policies.
const (
	PolicyFail   = "fail"
	PolicySkip   = "skip"
	PolicySuffix = "suffix"
)

// Machine-readable reason codes attached to plan entries.
const (
	ReasonPlanned                     = "Planned"
	ReasonPlannedWithSuffix           = "PlannedWithSuffix"
	ReasonAlreadyOrganized            = "AlreadyOrganized"
	ReasonTargetAlreadyExists         = "TargetAlreadyExists"
	ReasonDuplicateTargetInPlan       = "DuplicateTargetInPlan"
	ReasonUnableToResolveTargetSuffix = "UnableToResolveTargetSuffix"
	ReasonMissingSourcePath           = "MissingSourcePath"
	ReasonMissingOrganizationRootPath = "MissingOrganizationRootPath"
	ReasonMissingFileExtension        = "MissingFileExtension"
	ReasonInvalidMovieTemplate        = "InvalidMovieTemplate"
	ReasonInvalidEpisodeTemplate      = "InvalidEpisodeTemplate"
	ReasonMissingSeasonOrEpisode      = "MissingSeasonOrEpisode"
	ReasonUnsupportedMediaType        = "UnsupportedMediaType"
)

// AssociatedFile is a planned move for a sidecar file (NFO, subtitle, image)
// or known asset subdirectory that travels with a media item.
type AssociatedFile struct {
	SourcePath string `json:"sourcePath"`
	TargetPath string `json:"targetPath"`
}

// Entry is one source-to-target organization decision.
type Entry struct {
	// ItemID identifies the scanned item this entry was built from.
	ItemID string `json:"itemId"`

	// SourcePath is the current on-disk path of the media file.
	SourcePath string `json:"sourcePath"`

	// TargetPath is the proposed destination, empty when none was computed.
	TargetPath string `json:"targetPath,omitempty"`

	// Strategy is the template family used: movie, episode, or unknown.
	Strategy string `json:"strategy"`

	// Action is one of move, none, skip, conflict.
	Action string `json:"action"`

	// Reason is the machine-readable code explaining the action.
	Reason string `json:"reason"`

	// Confidence is the parse confidence carried from the suggestion.
	Confidence float64 `json:"confidence"`

	SuggestedTitle     string `json:"suggestedTitle"`
	SuggestedMediaType string `json:"suggestedMediaType"`

	// AssociatedFiles are sidecar moves planned alongside the primary move.
	AssociatedFiles []AssociatedFile `json:"associatedFiles,omitempty"`
}

// Counts are the per-action tallies of a plan.
type Counts struct {
	Source   int `json:"source"`
	Planned  int `json:"planned"`
	Noop     int `json:"noop"`
	Skipped  int `json:"skipped"`
	Conflict int `json:"conflict"`
}

// Snapshot is a complete organization plan. Snapshots are immutable once
// persisted; a rebuild supersedes the current snapshot rather than mutating it.
type Snapshot struct {
	SchemaVersion int       `json:"schemaVersion"`
	GeneratedAt   time.Time `json:"generatedAt"`

	// Fingerprint is the order-independent content hash of the plan,
	// used as the optimistic-concurrency token for later operations.
	Fingerprint string `json:"fingerprint"`

	RootPath string  `json:"rootPath"`
	DryRun   bool    `json:"dryRun"`
	Counts   Counts  `json:"counts"`
	Entries  []Entry `json:"entries"`
}

// RecomputeCounts tallies entry actions. Source is the entry count.
func RecomputeCounts(entries []Entry) Counts {
	counts := Counts{Source: len(entries)}
	for _, entry := range entries {
		switch entry.Action {
		case ActionMove:
			counts.Planned++
		case ActionNone:
			counts.Noop++
		case ActionSkip:
			counts.Skipped++
		case ActionConflict:
			counts.Conflict++
		}
	}
	return counts
}

// ParsePolicy normalizes a target conflict policy string, defaulting to fail.
func ParsePolicy(policy string) string {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case PolicySkip:
		return PolicySkip
	case PolicySuffix:
		return PolicySuffix
	default:
		return PolicyFail
	}
}

// ValidActions is the set of actions accepted from review overrides.
var ValidActions = map[string]bool{
	ActionMove:     true,
	ActionNone:     true,
	ActionSkip:     true,
	ActionConflict: true,
}
