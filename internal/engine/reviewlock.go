package engine

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/curator/internal/review"
)

// CreateReviewLock freezes the current effective plan and selection into
// an immutable, one-time-consumable lock.
func (e *Engine) CreateReviewLock(req CreateReviewLockRequest) (*CreateReviewLockResult, error) {
	current, err := e.currentPlan()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ExpectedPlanFingerprint) == "" {
		return nil, fmt.Errorf("%w: expectedPlanFingerprint is required", ErrValidation)
	}
	if !strings.EqualFold(req.ExpectedPlanFingerprint, current.Fingerprint) {
		return nil, ErrFingerprintMismatch
	}

	overrides := e.overridesStore.CurrentFor(current.Fingerprint)
	lock, warnings := review.CreateLock(current, overrides, req.SelectedSourcePaths, e.clock.Now())

	if err := e.lockStore.Append(lock); err != nil {
		return nil, fmt.Errorf("failed to persist review lock: %w", err)
	}

	return &CreateReviewLockResult{Lock: lock, Warnings: warnings}, nil
}

// ReviewLocks returns all stored review locks in append order.
func (e *Engine) ReviewLocks() []review.LockSnapshot {
	return e.lockStore.List()
}

// ReviewLock returns the lock with the given review id.
func (e *Engine) ReviewLock(reviewID string) (review.LockSnapshot, error) {
	lock, ok := e.lockStore.ByID(reviewID)
	if !ok {
		return review.LockSnapshot{}, fmt.Errorf("%w: review lock %s", ErrNotFound, reviewID)
	}
	return lock, nil
}
