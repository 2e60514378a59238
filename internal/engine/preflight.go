package engine

import (
	"fmt"
	"strings"
)

// IssuePreflight issues a single-use token binding the current plan
// fingerprint to the given selection.
func (e *Engine) IssuePreflight(req IssuePreflightRequest) (*IssuePreflightResult, error) {
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
	if len(req.SelectedSourcePaths) == 0 {
		return nil, fmt.Errorf("%w: at least one selected source path is required", ErrValidation)
	}

	entry, err := e.preflightStore.Issue(current.Fingerprint, req.SelectedSourcePaths)
	if err != nil {
		return nil, fmt.Errorf("failed to issue preflight token: %w", err)
	}

	return &IssuePreflightResult{
		Token:     entry.Token,
		IssuedAt:  entry.IssuedAt,
		ExpiresAt: entry.ExpiresAt,
	}, nil
}
