package plan

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danieljhkim/curator/internal/clock"
	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/hash"
	"github.com/danieljhkim/curator/internal/pathcmp"
)

// Item result statuses.
const (
	StatusApplied = "applied"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
	StatusPreview = "preview"
)

// Reason codes produced by the apply engine.
const (
	ReasonMoved                     = "Moved"
	ReasonWouldMove                 = "WouldMove"
	ReasonCancelled                 = "Cancelled"
	ReasonNotFoundInPlan            = "NotFoundInPlan"
	ReasonNotMoveAction             = "NotMoveAction"
	ReasonMissingTargetPath         = "MissingTargetPath"
	ReasonInvalidPlanRootPath       = "InvalidPlanRootPath"
	ReasonInvalidSourcePath         = "InvalidSourcePath"
	ReasonInvalidTargetPath         = "InvalidTargetPath"
	ReasonTargetOutsideRootPath     = "TargetOutsideRootPath"
	ReasonCrossVolumeMoveNotAllowed = "CrossVolumeMoveNotAllowed"
	ReasonMissingTargetDirectory    = "MissingTargetDirectory"
	ReasonSourceMissing             = "SourceMissing"
)

// UndoOperation is a recorded inverse move: the item now at FromPath is
// restored to ToPath during undo.
type UndoOperation struct {
	FromPath string `json:"fromPath"`
	ToPath   string `json:"toPath"`
}

// AssociatedResult is the outcome of one sidecar move attempt.
type AssociatedResult struct {
	SourcePath string `json:"sourcePath"`
	TargetPath string `json:"targetPath"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// ItemResult is the outcome of one selected path in an apply run.
type ItemResult struct {
	SourcePath string `json:"sourcePath"`
	TargetPath string `json:"targetPath,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`

	// SourceChecksum is the SHA-256 of the primary file taken just before
	// the move, for later audit against the moved content.
	SourceChecksum string `json:"sourceChecksum,omitempty"`

	AssociatedResults []AssociatedResult `json:"associatedResults,omitempty"`
}

// ApplyRun is the immutable record of one apply execution. Only the
// undone-by back-link may be set later, and only by a journal supersede.
type ApplyRun struct {
	RunID           string    `json:"runId"`
	AppliedAt       time.Time `json:"appliedAt"`
	PlanRootPath    string    `json:"planRootPath"`
	PlanFingerprint string    `json:"planFingerprint"`
	Preview         bool      `json:"preview,omitempty"`

	RequestedCount int `json:"requestedCount"`
	AppliedCount   int `json:"appliedCount"`
	SkippedCount   int `json:"skippedCount"`
	FailedCount    int `json:"failedCount"`

	Results        []ItemResult    `json:"results"`
	UndoOperations []UndoOperation `json:"undoOperations,omitempty"`

	// DeletedDirectories is part of the run record shape shared with undo
	// runs; apply itself never deletes directories.
	DeletedDirectories []string `json:"deletedDirectories,omitempty"`

	UndoneByRunID string     `json:"undoneByRunId,omitempty"`
	UndoneAt      *time.Time `json:"undoneAt,omitempty"`
}

// Applier executes the move entries of a plan. It is a stateless function
// over (snapshot, selection): persistence of the resulting run is the
// caller's job, under the operation lock.
type Applier struct {
	FS     fsops.FS
	Hasher hash.Hasher
	Clock  clock.Clock
}

// NewApplier creates an Applier with the given collaborators.
func NewApplier(fs fsops.FS, hasher hash.Hasher, clk clock.Clock) *Applier {
	return &Applier{FS: fs, Hasher: hasher, Clock: clk}
}

// ApplyOptions tunes one apply execution.
type ApplyOptions struct {
	// Preview runs every check but performs no filesystem mutation.
	Preview bool
}

// ApplySelected validates and executes the selected move entries of a plan.
// Every selected path resolves to exactly one item result; failures never
// abort sibling selections. Cancellation is honored between selections,
// never within a single move.
func (a *Applier) ApplySelected(ctx context.Context, snapshot Snapshot, selectedSourcePaths []string, opts ApplyOptions) ApplyRun {
	selections := dedupeSelections(selectedSourcePaths)

	run := ApplyRun{
		RunID:           uuid.NewString(),
		AppliedAt:       a.Clock.Now(),
		PlanRootPath:    snapshot.RootPath,
		PlanFingerprint: snapshot.Fingerprint,
		Preview:         opts.Preview,
		RequestedCount:  len(selections),
		Results:         make([]ItemResult, 0, len(selections)),
	}

	planRoot := resolveAbs(snapshot.RootPath)

	cancelled := false
	for _, selected := range selections {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
		}
		if cancelled {
			run.SkippedCount++
			run.Results = append(run.Results, ItemResult{
				SourcePath: selected,
				Status:     StatusSkipped,
				Reason:     ReasonCancelled,
			})
			continue
		}

		result := a.applyOne(snapshot, planRoot, selected, opts.Preview, &run)
		switch result.Status {
		case StatusApplied, StatusPreview:
			run.AppliedCount++
		case StatusSkipped:
			run.SkippedCount++
		default:
			run.FailedCount++
		}
		run.Results = append(run.Results, result)
	}

	return run
}

func (a *Applier) applyOne(snapshot Snapshot, planRoot, selected string, preview bool, run *ApplyRun) ItemResult {
	entry := findEntry(snapshot.Entries, selected)
	if entry == nil {
		return ItemResult{SourcePath: selected, Status: StatusSkipped, Reason: ReasonNotFoundInPlan}
	}

	result := ItemResult{SourcePath: entry.SourcePath, TargetPath: entry.TargetPath}

	if entry.Action != ActionMove {
		result.Status = StatusSkipped
		result.Reason = ReasonNotMoveAction
		return result
	}
	if strings.TrimSpace(entry.TargetPath) == "" {
		result.Status = StatusFailed
		result.Reason = ReasonMissingTargetPath
		return result
	}
	if planRoot == "" {
		result.Status = StatusFailed
		result.Reason = ReasonInvalidPlanRootPath
		return result
	}

	source := resolveAbs(entry.SourcePath)
	if source == "" {
		result.Status = StatusFailed
		result.Reason = ReasonInvalidSourcePath
		return result
	}
	target := resolveAbs(entry.TargetPath)
	if target == "" {
		result.Status = StatusFailed
		result.Reason = ReasonInvalidTargetPath
		return result
	}
	if !pathcmp.Contains(planRoot, target) {
		result.Status = StatusFailed
		result.Reason = ReasonTargetOutsideRootPath
		return result
	}
	if !pathcmp.SameVolume(source, target) {
		result.Status = StatusFailed
		result.Reason = ReasonCrossVolumeMoveNotAllowed
		return result
	}

	targetDir := filepath.Dir(target)
	if targetDir == "" || targetDir == "." {
		result.Status = StatusFailed
		result.Reason = ReasonMissingTargetDirectory
		return result
	}
	if !fsops.PathExists(a.FS, source) {
		result.Status = StatusFailed
		result.Reason = ReasonSourceMissing
		return result
	}
	if fsops.PathExists(a.FS, target) {
		result.Status = StatusFailed
		result.Reason = ReasonTargetAlreadyExists
		return result
	}

	if preview {
		result.Status = StatusPreview
		result.Reason = ReasonWouldMove
		return result
	}

	if checksum, err := a.Hasher.HashFile(source); err == nil {
		result.SourceChecksum = checksum
	}

	if err := a.FS.MkdirAll(targetDir, 0755); err != nil {
		result.Status = StatusFailed
		result.Reason = moveFailedReason(err)
		return result
	}
	if err := a.FS.Rename(source, target); err != nil {
		result.Status = StatusFailed
		result.Reason = moveFailedReason(err)
		return result
	}

	run.UndoOperations = append(run.UndoOperations, UndoOperation{FromPath: target, ToPath: source})

	result.Status = StatusApplied
	result.Reason = ReasonMoved
	result.AssociatedResults = a.moveAssociated(entry.AssociatedFiles, run)
	return result
}

// moveAssociated attempts each sidecar move independently: one failure is
// recorded on its own result and never fails the primary move.
func (a *Applier) moveAssociated(files []AssociatedFile, run *ApplyRun) []AssociatedResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]AssociatedResult, 0, len(files))
	for _, file := range files {
		result := AssociatedResult{SourcePath: file.SourcePath, TargetPath: file.TargetPath}

		switch {
		case !fsops.PathExists(a.FS, file.SourcePath):
			result.Status = StatusFailed
			result.Reason = ReasonSourceMissing
		case fsops.PathExists(a.FS, file.TargetPath):
			result.Status = StatusFailed
			result.Reason = ReasonTargetAlreadyExists
		default:
			err := a.FS.MkdirAll(filepath.Dir(file.TargetPath), 0755)
			if err == nil {
				err = a.FS.Rename(file.SourcePath, file.TargetPath)
			}
			if err != nil {
				result.Status = StatusFailed
				result.Reason = moveFailedReason(err)
			} else {
				result.Status = StatusApplied
				result.Reason = ReasonMoved
				run.UndoOperations = append(run.UndoOperations, UndoOperation{
					FromPath: file.TargetPath,
					ToPath:   file.SourcePath,
				})
			}
		}

		results = append(results, result)
	}
	return results
}

// findEntry resolves a selected path to its plan entry.
func findEntry(entries []Entry, selected string) *Entry {
	for i := range entries {
		if pathcmp.Equal(entries[i].SourcePath, selected) {
			return &entries[i]
		}
	}
	return nil
}

// dedupeSelections drops blank and duplicate selections, preserving the
// first-seen order.
func dedupeSelections(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		key := pathcmp.Key(path)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, path)
	}
	return out
}

// resolveAbs resolves a path to absolute form, or "" when it cannot be.
func resolveAbs(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return ""
	}
	return abs
}

// moveFailedReason embeds the error kind in a stable reason code.
func moveFailedReason(err error) string {
	return fmt.Sprintf("MoveFailed:%s", errKind(err))
}

func errKind(err error) string {
	kind := fmt.Sprintf("%T", err)
	kind = strings.TrimPrefix(kind, "*")
	if dot := strings.LastIndexByte(kind, '.'); dot >= 0 {
		kind = kind[dot+1:]
	}
	return kind
}
