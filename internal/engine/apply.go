package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/curator/internal/lockfile"
	"github.com/danieljhkim/curator/internal/plan"
	"github.com/danieljhkim/curator/internal/preflight"
)

// Apply validates and executes an apply request under the operation lock.
// All validation (fingerprint, review lock, preflight token) happens before
// any filesystem mutation; a validation failure mutates nothing.
func (e *Engine) Apply(ctx context.Context, req ApplyRequest) (*ApplyResult, error) {
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

	current, err := e.currentPlan()
	if err != nil {
		return nil, err
	}

	planToApply, selection, reviewID, err := e.resolveApplySelection(current, req)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{}
	if strings.TrimSpace(req.PreflightToken) != "" {
		status, err := e.preflightStore.ConsumeIfValid(req.PreflightToken, current.Fingerprint, selection)
		if err != nil {
			return nil, fmt.Errorf("failed to consume preflight token: %w", err)
		}
		result.PreflightStatus = status
		if status != preflight.StatusSuccess {
			return nil, fmt.Errorf("%w: %s", ErrPreflightRejected, status)
		}
	}

	applier := plan.NewApplier(e.fs, e.hasher, e.clock)
	run := applier.ApplySelected(ctx, planToApply, selection, plan.ApplyOptions{Preview: req.Preview})
	result.Run = run

	if req.Preview {
		return result, nil
	}

	if err := e.journal.AppendApply(run); err != nil {
		return result, fmt.Errorf("apply completed but journal append failed: %w", err)
	}
	if reviewID != "" {
		if err := e.lockStore.MarkApplied(reviewID, run.RunID, run.AppliedAt); err != nil {
			return result, fmt.Errorf("apply completed but review lock update failed: %w", err)
		}
	}

	return result, nil
}

// resolveApplySelection resolves the plan snapshot and selection an apply
// request targets: a review lock's frozen effective plan, or the live
// effective plan with an explicit or filter-based selection.
func (e *Engine) resolveApplySelection(current plan.Snapshot, req ApplyRequest) (plan.Snapshot, []string, string, error) {
	if strings.TrimSpace(req.ReviewID) != "" {
		lock, ok := e.lockStore.ByID(req.ReviewID)
		if !ok {
			return plan.Snapshot{}, nil, "", fmt.Errorf("%w: review lock %s", ErrNotFound, req.ReviewID)
		}
		if lock.Applied() {
			return plan.Snapshot{}, nil, "", fmt.Errorf("%w: review lock %s already applied by run %s",
				ErrValidation, lock.ReviewID, lock.AppliedRunID)
		}
		if !strings.EqualFold(lock.PlanFingerprint, current.Fingerprint) {
			return plan.Snapshot{}, nil, "", ErrFingerprintMismatch
		}
		return lock.EffectivePlan, lock.SelectedSourcePaths, lock.ReviewID, nil
	}

	if strings.TrimSpace(req.ExpectedPlanFingerprint) == "" {
		return plan.Snapshot{}, nil, "", fmt.Errorf("%w: expectedPlanFingerprint is required", ErrValidation)
	}
	if !strings.EqualFold(req.ExpectedPlanFingerprint, current.Fingerprint) {
		return plan.Snapshot{}, nil, "", ErrFingerprintMismatch
	}

	effective := e.effectivePlan(current)

	if len(req.SelectedSourcePaths) > 0 {
		return effective, req.SelectedSourcePaths, "", nil
	}
	if req.Filter != nil {
		if err := req.Filter.Validate(); err != nil {
			return plan.Snapshot{}, nil, "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
		selection := plan.SelectByFilter(effective, *req.Filter)
		if len(selection.SelectedSourcePaths) == 0 {
			return plan.Snapshot{}, nil, "", fmt.Errorf("%w: filter selected no move entries", ErrValidation)
		}
		return effective, selection.SelectedSourcePaths, "", nil
	}

	return plan.Snapshot{}, nil, "", fmt.Errorf("%w: a selection is required: paths, filter, or review id", ErrValidation)
}
