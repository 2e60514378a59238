package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/curator/internal/engine"
	"github.com/danieljhkim/curator/internal/review"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Freeze the effective plan into immutable review locks",
	Long: `A review lock freezes the current effective plan and a selection of its
move entries under a review id. Applying the lock later executes exactly
what was frozen, even if overrides change in between. Each lock applies
at most once.`,
}

var (
	lockCreateFingerprint string
	lockCreatePaths       []string
)

var lockCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a review lock over the current effective plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.CreateReviewLock(engine.CreateReviewLockRequest{
			ExpectedPlanFingerprint: lockCreateFingerprint,
			SelectedSourcePaths:     lockCreatePaths,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Created review lock %s", result.Lock.ReviewID))
		PrintLabelValue("Plan fingerprint", result.Lock.PlanFingerprint)
		PrintLabelValue("Selected", PrintCount(len(result.Lock.SelectedSourcePaths), "path", "paths"))
		for _, warning := range result.Warnings {
			PrintWarning(warning)
		}
		return nil
	},
}

var lockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review locks, newest last",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		locks := eng.ReviewLocks()

		if jsonOutput {
			return outputJSON(locks)
		}

		PrintSection("Review Locks")
		if len(locks) == 0 {
			PrintEmptyState("No review locks.")
			return nil
		}

		rows := make([][]string, 0, len(locks))
		for _, lock := range locks {
			rows = append(rows, []string{
				lock.ReviewID,
				lock.CreatedAt.Format("2006-01-02 15:04:05"),
				shortFingerprint(lock.PlanFingerprint),
				fmt.Sprintf("%d", len(lock.SelectedSourcePaths)),
				lockState(lock),
			})
		}
		PrintTable([]string{"REVIEW ID", "CREATED", "FINGERPRINT", "SELECTED", "STATE"}, rows)
		return nil
	},
}

var lockShowCmd = &cobra.Command{
	Use:   "show <review-id>",
	Short: "Show one review lock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		lock, err := eng.ReviewLock(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(lock)
		}

		PrintSection("Review Lock")
		PrintLabelValue("Review ID", lock.ReviewID)
		PrintLabelValue("Created", lock.CreatedAt.Format("2006-01-02 15:04:05"))
		PrintLabelValue("Plan fingerprint", lock.PlanFingerprint)
		PrintLabelValue("Root", lock.PlanRootPath)
		PrintLabelValue("State", lockState(lock))
		if lock.Applied() {
			PrintLabelValue("Applied run", lock.AppliedRunID)
		}
		if len(lock.SelectedSourcePaths) > 0 {
			PrintSubsection("Selected paths:")
			PrintList(lock.SelectedSourcePaths, 1)
		}
		return nil
	},
}

func lockState(lock review.LockSnapshot) string {
	if lock.Applied() {
		return "applied"
	}
	return "pending"
}

func init() {
	lockCreateCmd.Flags().StringVar(&lockCreateFingerprint, "fingerprint", "", "Expected plan fingerprint")
	lockCreateCmd.Flags().StringSliceVar(&lockCreatePaths, "path", nil, "Source path to select (repeatable; default: all effective moves)")
	_ = lockCreateCmd.MarkFlagRequired("fingerprint")

	lockCmd.AddCommand(lockCreateCmd)
	lockCmd.AddCommand(lockListCmd)
	lockCmd.AddCommand(lockShowCmd)
}
