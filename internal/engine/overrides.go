package engine

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/curator/internal/plan"
	"github.com/danieljhkim/curator/internal/review"
)

// PatchOverrides validates and applies an override patch request against
// the current plan. Nothing is mutated on validation failure.
func (e *Engine) PatchOverrides(req PatchOverridesRequest) (*PatchOverridesResult, error) {
	current, err := e.currentPlan()
	if err != nil {
		return nil, err
	}

	if err := review.ValidateRequest(req, current); err != nil {
		if errors.Is(err, plan.ErrFingerprintMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	overrides := e.overridesStore.CurrentFor(current.Fingerprint)
	result := review.ApplyPatches(overrides, req, current.Fingerprint, e.clock.Now())

	if err := e.overridesStore.Save(result.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist overrides: %w", err)
	}

	effective := review.BuildEffectivePlan(current, result.Snapshot)
	return &PatchOverridesResult{
		Snapshot:        result.Snapshot,
		UpdatedCount:    result.UpdatedCount,
		RemovedCount:    result.RemovedCount,
		EffectiveCounts: effective.Counts,
	}, nil
}

// Overrides returns the override snapshot for the current plan.
func (e *Engine) Overrides() (review.OverridesSnapshot, error) {
	current, err := e.currentPlan()
	if err != nil {
		return review.OverridesSnapshot{}, err
	}
	return e.overridesStore.CurrentFor(current.Fingerprint), nil
}

// OverridesHistory returns the stored override history, oldest first.
func (e *Engine) OverridesHistory() []review.OverridesSnapshot {
	return e.overridesStore.History()
}

// EffectivePlan returns the current plan with overrides merged in.
func (e *Engine) EffectivePlan() (plan.Snapshot, error) {
	current, err := e.currentPlan()
	if err != nil {
		return plan.Snapshot{}, err
	}
	return e.effectivePlan(current), nil
}
