// Package engine provides the core business logic for curator operations.
//
// The engine package acts as the orchestration layer between CLI commands
// and lower-level operations. It coordinates plan building, review
// overrides and locks, preflight tokens, apply/undo execution, and the
// journal.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - BuildPlan/PatchOverrides/CreateReviewLock/IssuePreflight: plan
//     lifecycle operations, each serialized by its own store lock
//   - Apply/Undo: filesystem execution, serialized by the operation lock
//   - Status and query operations: read-only views over the stored state
package engine

import (
	"github.com/danieljhkim/curator/internal/clock"
	"github.com/danieljhkim/curator/internal/config"
	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/hash"
	"github.com/danieljhkim/curator/internal/journal"
	"github.com/danieljhkim/curator/internal/plan"
	"github.com/danieljhkim/curator/internal/preflight"
	"github.com/danieljhkim/curator/internal/review"
	"github.com/danieljhkim/curator/internal/scan"
)

// Engine orchestrates all curator operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fs      fsops.FS
	hasher  hash.Hasher
	clock   clock.Clock
	paths   config.Paths
	options config.Options

	suggestions scan.Source

	planStore      *plan.Store
	overridesStore *review.OverridesStore
	lockStore      *review.LockStore
	preflightStore *preflight.Store
	journal        *journal.Store
}

// New creates a new Engine with the given dependencies.
func New(
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	paths config.Paths,
	options config.Options,
	suggestions scan.Source,
) *Engine {
	return &Engine{
		fs:             fs,
		hasher:         hasher,
		clock:          clk,
		paths:          paths,
		options:        options,
		suggestions:    suggestions,
		planStore:      plan.NewStore(fs, paths.Plan, paths.PlanHistory),
		overridesStore: review.NewOverridesStore(fs, paths.Overrides, paths.OverridesHistory),
		lockStore:      review.NewLockStore(fs, paths.ReviewLocks),
		preflightStore: preflight.NewStore(fs, clk, paths.PreflightTokens),
		journal:        journal.NewStore(fs, paths.Journal),
	}
}

// currentPlan loads the stored plan or fails with ErrNoPlan.
func (e *Engine) currentPlan() (plan.Snapshot, error) {
	snapshot, ok := e.planStore.Current()
	if !ok {
		return plan.Snapshot{}, ErrNoPlan
	}
	return snapshot, nil
}

// effectivePlan merges the current plan with its overrides.
func (e *Engine) effectivePlan(base plan.Snapshot) plan.Snapshot {
	overrides := e.overridesStore.CurrentFor(base.Fingerprint)
	return review.BuildEffectivePlan(base, overrides)
}

// protectedRoots are the directories undo cleanup must never delete.
func (e *Engine) protectedRoots() []string {
	roots := []string{e.options.LibraryRoot, e.options.OrganizeRoot}
	return append(roots, e.options.ProtectedRoots...)
}
