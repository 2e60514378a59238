package engine

import (
	"fmt"

	"github.com/danieljhkim/curator/internal/plan"
)

// ViewPlan returns a filtered, sorted, paged view of the effective plan.
func (e *Engine) ViewPlan(req ViewPlanRequest) (*plan.ViewResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	snapshot, err := e.currentPlan()
	if err != nil {
		return nil, err
	}
	view := plan.BuildView(e.effectivePlan(snapshot), e.clock.Now(), req)
	return &view, nil
}

// Summary returns the aggregate breakdown of the effective plan.
func (e *Engine) Summary() (*plan.Summary, error) {
	snapshot, err := e.currentPlan()
	if err != nil {
		return nil, err
	}
	summary := plan.BuildSummary(e.effectivePlan(snapshot), e.clock.Now())
	return &summary, nil
}

// PlanHistory returns prior plan snapshots, oldest first.
func (e *Engine) PlanHistory() []plan.Snapshot {
	return e.planStore.History()
}

// Runs returns every journaled apply run.
func (e *Engine) Runs() []plan.ApplyRun {
	return e.journal.Runs()
}

// UndoRuns returns every journaled undo run.
func (e *Engine) UndoRuns() []plan.UndoRun {
	return e.journal.UndoRuns()
}

// Run returns one journaled apply run by id.
func (e *Engine) Run(runID string) (plan.ApplyRun, error) {
	run, ok := e.journal.FindRun(runID)
	if !ok {
		return plan.ApplyRun{}, fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	return run, nil
}
