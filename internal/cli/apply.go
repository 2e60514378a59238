package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/curator/internal/engine"
	"github.com/danieljhkim/curator/internal/plan"
)

var (
	applyReviewID    string
	applyFingerprint string
	applyPaths       []string
	applyToken       string
	applyPreview     bool

	applyFilterStrategies    []string
	applyFilterReasons       []string
	applyFilterMinConfidence float64
	applyFilterPathPrefix    string
	applyFilterLimit         int
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Execute selected move entries of the current plan",
	Long: `Execute selected move entries of the current plan.

The selection comes from exactly one source: a review lock (--review-id),
explicit paths (--path), or a filter (--filter-*); one of them is required.
Unless --review-id is given, --fingerprint must match the current plan.

With --preview every check runs but nothing is moved and nothing is
journaled. Failures on one entry never abort the others.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		req := engine.ApplyRequest{
			ReviewID:                applyReviewID,
			ExpectedPlanFingerprint: applyFingerprint,
			SelectedSourcePaths:     applyPaths,
			PreflightToken:          applyToken,
			Preview:                 applyPreview,
		}
		if filterFlagsChanged(cmd) {
			filter := plan.FilterRequest{
				Strategies: applyFilterStrategies,
				Reasons:    applyFilterReasons,
				PathPrefix: applyFilterPathPrefix,
				Limit:      applyFilterLimit,
			}
			if cmd.Flags().Changed("filter-min-confidence") {
				filter.MinConfidence = &applyFilterMinConfidence
			}
			req.Filter = &filter
		}

		result, err := eng.Apply(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		run := result.Run
		if run.Preview {
			PrintSection("Preview")
			PrintInfo(fmt.Sprintf("Would move %s (%d skipped, %d failed checks)", PrintCount(run.AppliedCount, "file", "files"), run.SkippedCount, run.FailedCount))
		} else {
			PrintSuccess(fmt.Sprintf("Moved %s (%d skipped, %d failed)", PrintCount(run.AppliedCount, "file", "files"), run.SkippedCount, run.FailedCount))
			PrintLabelValue("Run ID", run.RunID)
		}
		printRunResults(run.Results)
		return nil
	},
}

func filterFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"filter-strategy", "filter-reason", "filter-min-confidence", "filter-path-prefix", "filter-limit"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// printRunResults lists the non-applied outcomes; fully successful runs
// stay quiet beyond the summary line.
func printRunResults(results []plan.ItemResult) {
	problems := make([]string, 0)
	for _, item := range results {
		if item.Status == plan.StatusApplied || item.Status == plan.StatusPreview {
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s (%s)", item.Status, item.SourcePath, item.Reason))
	}
	if len(problems) > 0 {
		PrintSubsection("Not applied:")
		PrintList(problems, 1)
	}
}

func init() {
	applyCmd.Flags().StringVar(&applyReviewID, "review-id", "", "Apply a frozen review lock")
	applyCmd.Flags().StringVar(&applyFingerprint, "fingerprint", "", "Expected plan fingerprint (required without --review-id)")
	applyCmd.Flags().StringSliceVar(&applyPaths, "path", nil, "Source path to apply (repeatable)")
	applyCmd.Flags().StringVar(&applyToken, "token", "", "Preflight token for the selection")
	applyCmd.Flags().BoolVar(&applyPreview, "preview", false, "Run all checks without moving anything")
	applyCmd.Flags().StringSliceVar(&applyFilterStrategies, "filter-strategy", nil, "Select moves by strategy (repeatable)")
	applyCmd.Flags().StringSliceVar(&applyFilterReasons, "filter-reason", nil, "Select moves by reason code (repeatable)")
	applyCmd.Flags().Float64Var(&applyFilterMinConfidence, "filter-min-confidence", 0, "Select moves with at least this confidence")
	applyCmd.Flags().StringVar(&applyFilterPathPrefix, "filter-path-prefix", "", "Select moves under this source path prefix")
	applyCmd.Flags().IntVar(&applyFilterLimit, "filter-limit", 0, "Cap the number of selected moves (0 = no cap)")
}
