package engine

import (
	"github.com/danieljhkim/curator/internal/plan"
	"github.com/danieljhkim/curator/internal/review"
)

// BuildPlanRequest asks for a fresh plan over the configured library.
type BuildPlanRequest struct {
	// LibraryRoot overrides the configured scan root when set.
	LibraryRoot string

	// OrganizeRoot overrides the configured organization root when set.
	OrganizeRoot string

	// TargetConflictPolicy overrides the configured policy when set.
	TargetConflictPolicy string
}

// PatchOverridesRequest patches the review overrides of the current plan.
type PatchOverridesRequest = review.PatchRequest

// CreateReviewLockRequest freezes the current effective plan.
type CreateReviewLockRequest struct {
	ExpectedPlanFingerprint string

	// SelectedSourcePaths defaults to every effective move entry when
	// empty.
	SelectedSourcePaths []string
}

// IssuePreflightRequest issues a single-use apply authorization token.
type IssuePreflightRequest struct {
	ExpectedPlanFingerprint string
	SelectedSourcePaths     []string
}

// ApplyRequest executes selected move entries of the current plan.
// Exactly one selection mechanism applies: a review lock id, an explicit
// path list, or a filter.
type ApplyRequest struct {
	// ReviewID applies a frozen review lock; the lock carries its own
	// selection and effective plan.
	ReviewID string

	// ExpectedPlanFingerprint is required unless ReviewID is set.
	ExpectedPlanFingerprint string

	// SelectedSourcePaths selects entries explicitly.
	SelectedSourcePaths []string

	// Filter selects entries by plan filter when no explicit paths are
	// given.
	Filter *plan.FilterRequest

	// PreflightToken, when set, must validate against the fingerprint
	// and the resolved selection.
	PreflightToken string

	// Preview runs every check without mutating the filesystem.
	Preview bool
}

// UndoRequest reverses a journaled apply run.
type UndoRequest struct {
	// RunID names the apply run; empty means the most recent run.
	RunID string

	// TargetConflictPolicy is fail, skip, or suffix.
	TargetConflictPolicy string
}

// ViewPlanRequest pages through the effective plan.
type ViewPlanRequest = plan.ViewRequest

// TestTemplateRequest renders a path template against a sample suggestion.
type TestTemplateRequest struct {
	Template          string
	MediaType         string
	Title             string
	Year              *int
	Season            *int
	Episode           *int
	Resolution        string
	NormalizeSegments bool
}
