package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/curator/internal/plan"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the apply/undo audit journal",
	Long: `The journal is the append-only record of every apply and undo execution.
Runs are never rewritten; an undone apply run carries a back-link to the
undo run that reversed it.`,
}

var journalUndos bool

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled runs, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		if journalUndos {
			undoRuns := eng.UndoRuns()
			if jsonOutput {
				return outputJSON(undoRuns)
			}
			printUndoRunTable(undoRuns)
			return nil
		}

		runs := eng.Runs()
		if jsonOutput {
			return outputJSON(runs)
		}

		PrintSection("Apply Runs")
		if len(runs) == 0 {
			PrintEmptyState("No journaled runs.")
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, run := range runs {
			rows = append(rows, []string{
				run.RunID,
				run.AppliedAt.Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%d/%d/%d", run.AppliedCount, run.SkippedCount, run.FailedCount),
				runState(run),
			})
		}
		PrintTable([]string{"RUN ID", "APPLIED", "OK/SKIP/FAIL", "STATE"}, rows)
		return nil
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one journaled apply run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		run, err := eng.Run(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(run)
		}

		PrintSection("Apply Run")
		PrintLabelValue("Run ID", run.RunID)
		PrintLabelValue("Applied", run.AppliedAt.Format("2006-01-02 15:04:05"))
		PrintLabelValue("Plan fingerprint", run.PlanFingerprint)
		PrintLabelValue("Root", run.PlanRootPath)
		PrintLabelValue("Outcome", fmt.Sprintf("%d applied, %d skipped, %d failed of %d requested",
			run.AppliedCount, run.SkippedCount, run.FailedCount, run.RequestedCount))
		PrintLabelValue("State", runState(run))
		if run.UndoneByRunID != "" {
			PrintLabelValue("Undone by", run.UndoneByRunID)
		}

		if len(run.Results) > 0 {
			fmt.Println()
			rows := make([][]string, 0, len(run.Results))
			for _, item := range run.Results {
				rows = append(rows, []string{item.Status, item.Reason, item.SourcePath})
			}
			PrintTable([]string{"STATUS", "REASON", "SOURCE"}, rows)
		}
		return nil
	},
}

func printUndoRunTable(undoRuns []plan.UndoRun) {
	PrintSection("Undo Runs")
	if len(undoRuns) == 0 {
		PrintEmptyState("No journaled undo runs.")
		return
	}

	rows := make([][]string, 0, len(undoRuns))
	for _, run := range undoRuns {
		rows = append(rows, []string{
			run.UndoRunID,
			run.SourceApplyRunID,
			run.UndoneAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/%d/%d", run.AppliedCount, run.SkippedCount, run.FailedCount),
		})
	}
	PrintTable([]string{"UNDO RUN ID", "APPLY RUN ID", "UNDONE", "OK/SKIP/FAIL"}, rows)
}

func runState(run plan.ApplyRun) string {
	switch {
	case run.Preview:
		return "preview"
	case run.UndoneByRunID != "":
		return "undone"
	default:
		return "applied"
	}
}

func init() {
	journalListCmd.Flags().BoolVar(&journalUndos, "undo", false, "List undo runs instead of apply runs")

	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
}
