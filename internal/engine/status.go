package engine

// Status reports the stored plan, the most recent apply run, and the most
// recent undo run in one call.
func (e *Engine) Status() *StatusResult {
	status := &StatusResult{}

	if snapshot, ok := e.planStore.Current(); ok {
		status.Plan = PlanStatus{
			Exists:      true,
			Fingerprint: snapshot.Fingerprint,
			GeneratedAt: snapshot.GeneratedAt,
			RootPath:    snapshot.RootPath,
			Counts:      snapshot.Counts,
		}
	}

	if run, ok := e.journal.LatestRun(); ok {
		status.LastRun = RunStatus{
			Exists:        true,
			RunID:         run.RunID,
			AppliedAt:     run.AppliedAt,
			AppliedCount:  run.AppliedCount,
			SkippedCount:  run.SkippedCount,
			FailedCount:   run.FailedCount,
			Preview:       run.Preview,
			UndoneByRunID: run.UndoneByRunID,
		}
	}

	if undoRun, ok := e.journal.LatestUndoRun(); ok {
		status.LastUndo = UndoStatus{
			Exists:                true,
			UndoRunID:             undoRun.UndoRunID,
			SourceApplyRunID:      undoRun.SourceApplyRunID,
			UndoneAt:              undoRun.UndoneAt,
			AppliedCount:          undoRun.AppliedCount,
			FailedCount:           undoRun.FailedCount,
			ConflictResolvedCount: undoRun.ConflictResolvedCount,
		}
	}

	return status
}
