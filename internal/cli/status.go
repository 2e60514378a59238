package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current plan, last run, and last undo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		status := eng.Status()

		if jsonOutput {
			return outputJSON(status)
		}

		PrintSection("Plan")
		if status.Plan.Exists {
			PrintLabelValue("Fingerprint", status.Plan.Fingerprint)
			PrintLabelValue("Generated", status.Plan.GeneratedAt.Format("2006-01-02 15:04:05"))
			PrintLabelValue("Root", status.Plan.RootPath)
			printCounts(status.Plan.Counts)
		} else {
			PrintEmptyState("No plan. Run 'curator plan build' first.")
		}

		PrintSection("Last Apply Run")
		if status.LastRun.Exists {
			PrintLabelValue("Run ID", status.LastRun.RunID)
			PrintLabelValue("Applied", status.LastRun.AppliedAt.Format("2006-01-02 15:04:05"))
			PrintLabelValue("Outcome", fmt.Sprintf("%d applied, %d skipped, %d failed",
				status.LastRun.AppliedCount, status.LastRun.SkippedCount, status.LastRun.FailedCount))
			if status.LastRun.Preview {
				PrintLabelValue("Mode", "preview")
			}
			if status.LastRun.UndoneByRunID != "" {
				PrintLabelValue("Undone by", status.LastRun.UndoneByRunID)
			}
		} else {
			PrintEmptyState("No apply runs.")
		}

		PrintSection("Last Undo Run")
		if status.LastUndo.Exists {
			PrintLabelValue("Undo run ID", status.LastUndo.UndoRunID)
			PrintLabelValue("Undone run", status.LastUndo.SourceApplyRunID)
			PrintLabelValue("Undone", status.LastUndo.UndoneAt.Format("2006-01-02 15:04:05"))
			PrintLabelValue("Outcome", fmt.Sprintf("%d restored, %d failed",
				status.LastUndo.AppliedCount, status.LastUndo.FailedCount))
		} else {
			PrintEmptyState("No undo runs.")
		}
		return nil
	},
}
