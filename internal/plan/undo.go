package plan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/danieljhkim/curator/internal/clock"
	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/pathcmp"
)

// Reason codes produced by the undo engine.
const (
	ReasonNoopUndoPath               = "NoopUndoPath"
	ReasonUndoSourceMissing          = "UndoSourceMissing"
	ReasonUndoTargetAlreadyExists    = "UndoTargetAlreadyExists"
	ReasonUndoMissingTargetDirectory = "UndoMissingTargetDirectory"
)

// UndoItemResult is the outcome of replaying one undo operation.
type UndoItemResult struct {
	FromPath string `json:"fromPath"`
	ToPath   string `json:"toPath"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`

	// ConflictAsidePath is set when the suffix policy moved an occupying
	// item aside to clear the restore target.
	ConflictAsidePath string `json:"conflictAsidePath,omitempty"`
}

// UndoRun is the record of one undo execution. Completed restores remain
// even when a later operation in the same run fails.
type UndoRun struct {
	UndoRunID        string    `json:"undoRunId"`
	SourceApplyRunID string    `json:"sourceApplyRunId"`
	UndoneAt         time.Time `json:"undoneAt"`

	RequestedCount        int `json:"requestedCount"`
	AppliedCount          int `json:"appliedCount"`
	SkippedCount          int `json:"skippedCount"`
	FailedCount           int `json:"failedCount"`
	ConflictResolvedCount int `json:"conflictResolvedCount"`

	Results            []UndoItemResult `json:"results"`
	DeletedDirectories []string         `json:"deletedDirectories,omitempty"`
}

// Undoer replays the inverse operations of an apply run. Like the Applier
// it is stateless: journal persistence is the caller's job.
type Undoer struct {
	FS    fsops.FS
	Clock clock.Clock
}

// NewUndoer creates an Undoer.
func NewUndoer(fs fsops.FS, clk clock.Clock) *Undoer {
	return &Undoer{FS: fs, Clock: clk}
}

// UndoOptions tunes one undo execution.
type UndoOptions struct {
	// TargetConflictPolicy is fail, skip, or suffix; applied when the
	// restore target is already occupied.
	TargetConflictPolicy string

	// ProtectedRoots are directories the empty-directory cleanup never
	// deletes or walks above (library and organization roots).
	ProtectedRoots []string
}

// UndoApplyRun replays applyRun.UndoOperations in reverse order,
// last-moved-first. Cancellation is honored between operations.
func (u *Undoer) UndoApplyRun(ctx context.Context, applyRun ApplyRun, opts UndoOptions) UndoRun {
	operations := make([]UndoOperation, 0, len(applyRun.UndoOperations))
	for _, op := range applyRun.UndoOperations {
		if strings.TrimSpace(op.FromPath) != "" && strings.TrimSpace(op.ToPath) != "" {
			operations = append(operations, op)
		}
	}
	for i, j := 0, len(operations)-1; i < j; i, j = i+1, j-1 {
		operations[i], operations[j] = operations[j], operations[i]
	}

	run := UndoRun{
		UndoRunID:        uuid.NewString(),
		SourceApplyRunID: applyRun.RunID,
		UndoneAt:         u.Clock.Now(),
		RequestedCount:   len(operations),
		Results:          make([]UndoItemResult, 0, len(operations)),
	}

	policy := ParsePolicy(opts.TargetConflictPolicy)
	cleanupDirs := make([]string, 0)

	cancelled := false
	for _, op := range operations {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
		}
		if cancelled {
			run.SkippedCount++
			run.Results = append(run.Results, UndoItemResult{
				FromPath: op.FromPath,
				ToPath:   op.ToPath,
				Status:   StatusSkipped,
				Reason:   ReasonCancelled,
			})
			continue
		}

		result := u.undoOne(op, policy, &run)
		switch result.Status {
		case StatusApplied:
			run.AppliedCount++
			cleanupDirs = append(cleanupDirs, filepath.Dir(op.FromPath))
		case StatusSkipped:
			run.SkippedCount++
		default:
			run.FailedCount++
		}
		run.Results = append(run.Results, result)
	}

	run.DeletedDirectories = u.cleanEmptyDirectories(cleanupDirs, opts.ProtectedRoots)
	return run
}

func (u *Undoer) undoOne(op UndoOperation, policy string, run *UndoRun) UndoItemResult {
	result := UndoItemResult{FromPath: op.FromPath, ToPath: op.ToPath}

	if pathcmp.Equal(op.FromPath, op.ToPath) {
		result.Status = StatusSkipped
		result.Reason = ReasonNoopUndoPath
		return result
	}
	if !fsops.PathExists(u.FS, op.FromPath) {
		result.Status = StatusSkipped
		result.Reason = ReasonUndoSourceMissing
		return result
	}

	var asidePath string
	if fsops.PathExists(u.FS, op.ToPath) {
		switch policy {
		case PolicySkip:
			result.Status = StatusSkipped
			result.Reason = ReasonUndoTargetAlreadyExists
			return result
		case PolicySuffix:
			aside, ok := undoConflictAsidePath(u.FS, op.ToPath)
			if !ok {
				result.Status = StatusFailed
				result.Reason = ReasonUndoTargetAlreadyExists
				return result
			}
			if err := u.moveWithFallback(op.ToPath, aside); err != nil {
				result.Status = StatusFailed
				result.Reason = undoMoveFailedReason(err)
				return result
			}
			asidePath = aside
			result.ConflictAsidePath = aside
			run.ConflictResolvedCount++
		default:
			result.Status = StatusFailed
			result.Reason = ReasonUndoTargetAlreadyExists
			return result
		}
	}

	targetDir := filepath.Dir(op.ToPath)
	if targetDir == "" || targetDir == "." {
		u.restoreAside(asidePath, op.ToPath, &result, run)
		result.Status = StatusFailed
		result.Reason = ReasonUndoMissingTargetDirectory
		return result
	}

	if err := u.FS.MkdirAll(targetDir, 0755); err != nil {
		u.restoreAside(asidePath, op.ToPath, &result, run)
		result.Status = StatusFailed
		result.Reason = undoMoveFailedReason(err)
		return result
	}
	if err := u.moveWithFallback(op.FromPath, op.ToPath); err != nil {
		u.restoreAside(asidePath, op.ToPath, &result, run)
		result.Status = StatusFailed
		result.Reason = undoMoveFailedReason(err)
		return result
	}

	result.Status = StatusApplied
	result.Reason = ReasonMoved
	return result
}

// restoreAside best-effort moves an aside item back after a failed restore.
func (u *Undoer) restoreAside(asidePath, originalPath string, result *UndoItemResult, run *UndoRun) {
	if asidePath == "" {
		return
	}
	if err := u.moveWithFallback(asidePath, originalPath); err == nil {
		result.ConflictAsidePath = ""
		run.ConflictResolvedCount--
	}
}

// moveWithFallback renames, falling back to recursive copy-then-delete for
// directories that fail with a cross-volume error.
func (u *Undoer) moveWithFallback(from, to string) error {
	err := u.FS.Rename(from, to)
	if err == nil {
		return nil
	}
	if !fsops.DirExists(u.FS, from) || !isCrossDevice(err) {
		return err
	}
	if copyErr := u.FS.Copy(from, to); copyErr != nil {
		return copyErr
	}
	return u.FS.RemoveAll(from)
}

// undoConflictAsidePath probes "{name} (undo-conflict {n}){ext}" for a free
// path to move an occupying item aside to.
func undoConflictAsidePath(fs fsops.FS, path string) (string, bool) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	if dir == "" || strings.TrimSpace(stem) == "" {
		return "", false
	}

	for n := 2; n <= suffixProbeLimit; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (undo-conflict %d)%s", stem, n, ext))
		if !fsops.PathExists(fs, candidate) {
			return candidate, true
		}
	}
	return "", false
}

// cleanEmptyDirectories walks upward from each start directory, deleting
// empty directories until it reaches a protected root or the top of the
// filesystem. Returns the deleted directories in deletion order.
func (u *Undoer) cleanEmptyDirectories(startDirs, protectedRoots []string) []string {
	deleted := make([]string, 0)
	seen := make(map[string]bool)

	for _, start := range startDirs {
		dir := start
		for {
			if dir == "" || seen[pathcmp.Key(dir)] {
				break
			}
			if isProtectedDir(dir, protectedRoots) {
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			if !fsops.DirExists(u.FS, dir) || !u.isEmptyDir(dir) {
				break
			}
			if err := u.FS.Remove(dir); err != nil {
				break
			}
			seen[pathcmp.Key(dir)] = true
			deleted = append(deleted, dir)
			dir = parent
		}
	}
	return deleted
}

func (u *Undoer) isEmptyDir(dir string) bool {
	entries, err := u.FS.ReadDir(dir)
	return err == nil && len(entries) == 0
}

func isProtectedDir(dir string, protectedRoots []string) bool {
	for _, root := range protectedRoots {
		if strings.TrimSpace(root) != "" && pathcmp.Equal(dir, root) {
			return true
		}
	}
	return false
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

func undoMoveFailedReason(err error) string {
	return fmt.Sprintf("UndoMoveFailed:%s", errKind(err))
}
