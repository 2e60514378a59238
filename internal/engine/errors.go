package engine

import (
	"errors"

	"github.com/danieljhkim/curator/internal/plan"
)

var (
	// ErrValidation indicates a validation failure in caller input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrNoPlan indicates no plan has been built yet.
	ErrNoPlan = errors.New("no organization plan stored")

	// ErrOperationInProgress indicates another apply or undo holds the
	// operation lock. Callers must abort, never queue or retry silently.
	ErrOperationInProgress = errors.New("operation already in progress")

	// ErrFingerprintMismatch indicates the caller's expected plan
	// fingerprint is stale. Re-exported so callers only import engine.
	ErrFingerprintMismatch = plan.ErrFingerprintMismatch

	// ErrPreflightRejected indicates a preflight token failed to consume.
	ErrPreflightRejected = errors.New("preflight token rejected")

	// ErrAlreadyUndone indicates the apply run was already reversed.
	ErrAlreadyUndone = errors.New("apply run already undone")
)
