package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/curator/internal/engine"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Issue single-use apply authorization tokens",
	Long: `A preflight token binds a plan fingerprint and an exact selection of source
paths. Passing the token to apply proves the selection was reviewed as-is.
Tokens are single-use and expire after ten minutes.`,
}

var (
	preflightIssueFingerprint string
	preflightIssuePaths       []string
)

var preflightIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a token for a reviewed selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.IssuePreflight(engine.IssuePreflightRequest{
			ExpectedPlanFingerprint: preflightIssueFingerprint,
			SelectedSourcePaths:     preflightIssuePaths,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess("Issued preflight token")
		PrintLabelValue("Token", result.Token)
		PrintLabelValue("Expires", result.ExpiresAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	preflightIssueCmd.Flags().StringVar(&preflightIssueFingerprint, "fingerprint", "", "Expected plan fingerprint")
	preflightIssueCmd.Flags().StringSliceVar(&preflightIssuePaths, "path", nil, "Source path in the reviewed selection (repeatable)")
	_ = preflightIssueCmd.MarkFlagRequired("fingerprint")
	_ = preflightIssueCmd.MarkFlagRequired("path")

	preflightCmd.AddCommand(preflightIssueCmd)
}
