package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/curator/internal/engine"
	"github.com/danieljhkim/curator/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Patch and inspect review overrides of the current plan",
	Long: `Review overrides adjust individual entries of the current plan before apply:
force an entry to skip, restore it to its planned move, or redirect its target.

Overrides are scoped to the plan fingerprint they were written against. A
rebuilt plan starts with an empty override set.`,
}

var (
	reviewPatchFingerprint string
	reviewPatchFile        string
	reviewPatchSource      string
	reviewPatchAction      string
	reviewPatchTarget      string
	reviewPatchRemove      bool
)

var reviewPatchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Apply override patches to the current plan",
	Long: `Apply override patches to the current plan.

A single patch is given with --source plus --action, --target, or --remove.
A batch is given with --file pointing at a JSON array of patch objects:

  [{"sourcePath": "...", "action": "skip"},
   {"sourcePath": "...", "targetPath": "/library/New Name.mkv"},
   {"sourcePath": "...", "remove": true}]

Passing an empty --target clears a previous target override.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		patches, err := collectPatches(cmd)
		if err != nil {
			return err
		}

		result, err := eng.PatchOverrides(engine.PatchOverridesRequest{
			ExpectedPlanFingerprint: reviewPatchFingerprint,
			Patches:                 patches,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Updated %s, removed %s", PrintCount(result.UpdatedCount, "override", "overrides"), PrintCount(result.RemovedCount, "override", "overrides")))
		printCounts(result.EffectiveCounts)
		return nil
	},
}

// collectPatches builds the patch list from --file or the single-patch flags.
func collectPatches(cmd *cobra.Command) ([]review.Patch, error) {
	if reviewPatchFile != "" {
		data, err := os.ReadFile(reviewPatchFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read patch file: %w", err)
		}
		var patches []review.Patch
		if err := json.Unmarshal(data, &patches); err != nil {
			return nil, fmt.Errorf("failed to parse patch file: %w", err)
		}
		return patches, nil
	}

	patch := review.Patch{
		SourcePath: reviewPatchSource,
		Remove:     reviewPatchRemove,
	}
	if cmd.Flags().Changed("action") {
		patch.Action = &reviewPatchAction
	}
	if cmd.Flags().Changed("target") {
		patch.TargetPath = &reviewPatchTarget
	}
	return []review.Patch{patch}, nil
}

var reviewShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the overrides of the current plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		overrides, err := eng.Overrides()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(overrides)
		}

		PrintSection("Review Overrides")
		PrintLabelValue("Plan fingerprint", overrides.PlanFingerprint)
		if len(overrides.Entries) == 0 {
			PrintEmptyState("No overrides.")
			return nil
		}

		rows := make([][]string, 0, len(overrides.Entries))
		for _, entry := range overrides.Entries {
			target := ""
			if entry.TargetPath != nil {
				target = *entry.TargetPath
			}
			rows = append(rows, []string{entry.SourcePath, entry.Action, target})
		}
		PrintTable([]string{"SOURCE", "ACTION", "TARGET OVERRIDE"}, rows)
		return nil
	},
}

var reviewHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List superseded override snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		history := eng.OverridesHistory()

		if jsonOutput {
			return outputJSON(history)
		}

		PrintSection("Override History")
		if len(history) == 0 {
			PrintEmptyState("No superseded override snapshots.")
			return nil
		}

		rows := make([][]string, 0, len(history))
		for _, snapshot := range history {
			rows = append(rows, []string{
				snapshot.UpdatedAt.Format("2006-01-02 15:04:05"),
				shortFingerprint(snapshot.PlanFingerprint),
				fmt.Sprintf("%d", len(snapshot.Entries)),
			})
		}
		PrintTable([]string{"UPDATED", "FINGERPRINT", "OVERRIDES"}, rows)
		return nil
	},
}

func init() {
	reviewPatchCmd.Flags().StringVar(&reviewPatchFingerprint, "fingerprint", "", "Expected plan fingerprint")
	reviewPatchCmd.Flags().StringVar(&reviewPatchFile, "file", "", "JSON file holding an array of patches")
	reviewPatchCmd.Flags().StringVar(&reviewPatchSource, "source", "", "Source path of the entry to override")
	reviewPatchCmd.Flags().StringVar(&reviewPatchAction, "action", "", "Override action: move, skip, none, or conflict")
	reviewPatchCmd.Flags().StringVar(&reviewPatchTarget, "target", "", "Override target path (empty clears)")
	reviewPatchCmd.Flags().BoolVar(&reviewPatchRemove, "remove", false, "Remove the override for --source")
	_ = reviewPatchCmd.MarkFlagRequired("fingerprint")

	reviewCmd.AddCommand(reviewPatchCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	reviewCmd.AddCommand(reviewHistoryCmd)
}
