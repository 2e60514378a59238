package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/curator/internal/engine"
	"github.com/danieljhkim/curator/internal/plan"
)

var undoPolicy string

var undoCmd = &cobra.Command{
	Use:   "undo [run-id]",
	Short: "Reverse a journaled apply run",
	Long: `Reverse the moves of a journaled apply run, newest first within the run.
Without [run-id] the most recent run is undone. A run can be undone at most
once, and preview runs cannot be undone.

When a restore target is already occupied, --policy decides the outcome:
fail the item, skip it, or move the occupant aside with a suffixed name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		req := engine.UndoRequest{TargetConflictPolicy: undoPolicy}
		if len(args) > 0 {
			req.RunID = args[0]
		}

		result, err := eng.Undo(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		run := result.Run
		PrintSuccess(fmt.Sprintf("Restored %s (%d skipped, %d failed)", PrintCount(run.AppliedCount, "file", "files"), run.SkippedCount, run.FailedCount))
		PrintLabelValue("Undo run ID", run.UndoRunID)
		PrintLabelValue("Undone run", run.SourceApplyRunID)
		if run.ConflictResolvedCount > 0 {
			PrintWarning(fmt.Sprintf("Moved %s aside to make room", PrintCount(run.ConflictResolvedCount, "occupant", "occupants")))
		}
		if len(run.DeletedDirectories) > 0 {
			PrintSubsection("Removed empty directories:")
			PrintList(run.DeletedDirectories, 1)
		}
		printUndoResults(run.Results)
		return nil
	},
}

func printUndoResults(results []plan.UndoItemResult) {
	problems := make([]string, 0)
	for _, item := range results {
		if item.Status == plan.StatusApplied {
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s (%s)", item.Status, item.FromPath, item.Reason))
	}
	if len(problems) > 0 {
		PrintSubsection("Not restored:")
		PrintList(problems, 1)
	}
}

func init() {
	undoCmd.Flags().StringVar(&undoPolicy, "policy", "fail", "Occupied-target policy: fail, skip, or suffix")
}
