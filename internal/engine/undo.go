package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/curator/internal/lockfile"
	"github.com/danieljhkim/curator/internal/plan"
)

// Undo reverses a journaled apply run under the operation lock. A run may
// be undone at most once; the journal's undone-by back-link gates re-undo.
func (e *Engine) Undo(ctx context.Context, req UndoRequest) (*UndoResult, error) {
	opLock, err := lockfile.TryAcquire(e.paths.OperationLock)
	if err != nil {
		if errors.Is(err, lockfile.ErrAlreadyLocked) {
			return nil, ErrOperationInProgress
		}
		return nil, fmt.Errorf("failed to acquire operation lock: %w", err)
	}
	defer func() {
		_ = opLock.Release()
	}()

	run, err := e.resolveUndoRun(req.RunID)
	if err != nil {
		return nil, err
	}
	if run.UndoneByRunID != "" {
		return nil, fmt.Errorf("%w: run %s was undone by %s", ErrAlreadyUndone, run.RunID, run.UndoneByRunID)
	}
	if run.Preview {
		return nil, fmt.Errorf("%w: run %s was a preview and moved nothing", ErrValidation, run.RunID)
	}

	undoer := plan.NewUndoer(e.fs, e.clock)
	undoRun := undoer.UndoApplyRun(ctx, run, plan.UndoOptions{
		TargetConflictPolicy: req.TargetConflictPolicy,
		ProtectedRoots:       e.protectedRoots(),
	})

	if err := e.journal.AppendUndo(undoRun); err != nil {
		return &UndoResult{Run: undoRun}, fmt.Errorf("undo completed but journal append failed: %w", err)
	}

	return &UndoResult{Run: undoRun}, nil
}

func (e *Engine) resolveUndoRun(runID string) (plan.ApplyRun, error) {
	if runID == "" {
		run, ok := e.journal.LatestRun()
		if !ok {
			return plan.ApplyRun{}, fmt.Errorf("%w: no apply runs recorded", ErrNotFound)
		}
		return run, nil
	}

	run, ok := e.journal.FindRun(runID)
	if !ok {
		return plan.ApplyRun{}, fmt.Errorf("%w: apply run %s", ErrNotFound, runID)
	}
	return run, nil
}
