package engine

import (
	"time"

	"github.com/danieljhkim/curator/internal/plan"
	"github.com/danieljhkim/curator/internal/preflight"
	"github.com/danieljhkim/curator/internal/review"
)

// BuildPlanResult reports a completed plan build.
type BuildPlanResult struct {
	Snapshot        plan.Snapshot `json:"snapshot"`
	SuggestionCount int           `json:"suggestionCount"`
}

// PatchOverridesResult reports a completed override patch.
type PatchOverridesResult struct {
	Snapshot     review.OverridesSnapshot `json:"snapshot"`
	UpdatedCount int                      `json:"updatedCount"`
	RemovedCount int                      `json:"removedCount"`

	// EffectiveCounts are the plan counts after override application.
	EffectiveCounts plan.Counts `json:"effectiveCounts"`
}

// CreateReviewLockResult reports a created review lock.
type CreateReviewLockResult struct {
	Lock review.LockSnapshot `json:"lock"`

	// Warnings list duplicate effective target paths in the selection.
	Warnings []string `json:"warnings,omitempty"`
}

// IssuePreflightResult carries an issued token.
type IssuePreflightResult struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ApplyResult reports one apply execution.
type ApplyResult struct {
	Run plan.ApplyRun `json:"run"`

	// PreflightStatus is set when a token was consumed.
	PreflightStatus preflight.ConsumeStatus `json:"preflightStatus,omitempty"`
}

// UndoResult reports one undo execution.
type UndoResult struct {
	Run plan.UndoRun `json:"run"`
}

// PlanStatus summarizes the stored plan for the status view.
type PlanStatus struct {
	Exists      bool        `json:"exists"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	GeneratedAt time.Time   `json:"generatedAt,omitempty"`
	RootPath    string      `json:"rootPath,omitempty"`
	Counts      plan.Counts `json:"counts"`
}

// RunStatus summarizes the most recent apply run.
type RunStatus struct {
	Exists         bool      `json:"exists"`
	RunID          string    `json:"runId,omitempty"`
	AppliedAt      time.Time `json:"appliedAt,omitempty"`
	AppliedCount   int       `json:"appliedCount"`
	SkippedCount   int       `json:"skippedCount"`
	FailedCount    int       `json:"failedCount"`
	Preview        bool      `json:"preview,omitempty"`
	UndoneByRunID  string    `json:"undoneByRunId,omitempty"`
}

// UndoStatus summarizes the most recent undo run.
type UndoStatus struct {
	Exists                bool      `json:"exists"`
	UndoRunID             string    `json:"undoRunId,omitempty"`
	SourceApplyRunID      string    `json:"sourceApplyRunId,omitempty"`
	UndoneAt              time.Time `json:"undoneAt,omitempty"`
	AppliedCount          int       `json:"appliedCount"`
	FailedCount           int       `json:"failedCount"`
	ConflictResolvedCount int       `json:"conflictResolvedCount"`
}

// StatusResult is the one-call operational status.
type StatusResult struct {
	Plan     PlanStatus `json:"plan"`
	LastRun  RunStatus  `json:"lastRun"`
	LastUndo UndoStatus `json:"lastUndo"`
}

// TestTemplateResult carries a rendered template path.
type TestTemplateResult struct {
	RelativePath string `json:"relativePath"`
}
