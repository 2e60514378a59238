package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/curator/internal/engine"
	"github.com/danieljhkim/curator/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build and inspect the organization plan",
	Long: `Build a fresh organization plan from the library, or inspect the current
plan and its history.`,
}

var (
	planBuildLibraryRoot  string
	planBuildOrganizeRoot string
	planBuildPolicy       string
)

var planBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Scan the library and build a fresh plan",
	Long: `Scan the configured library root for media files and build a new plan.

The previous plan, if any, is kept in history. Review overrides do not carry
over: they are scoped to the plan fingerprint they were written against.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.BuildPlan(engine.BuildPlanRequest{
			LibraryRoot:          planBuildLibraryRoot,
			OrganizeRoot:         planBuildOrganizeRoot,
			TargetConflictPolicy: planBuildPolicy,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSuccess(fmt.Sprintf("Planned %s from %s", PrintCount(result.Snapshot.Counts.Planned, "move", "moves"), PrintCount(result.SuggestionCount, "candidate", "candidates")))
		PrintLabelValue("Fingerprint", result.Snapshot.Fingerprint)
		PrintLabelValue("Root", result.Snapshot.RootPath)
		printCounts(result.Snapshot.Counts)
		return nil
	},
}

var (
	planShowStrategies    []string
	planShowActions       []string
	planShowReasons       []string
	planShowMinConfidence float64
	planShowMovesOnly     bool
	planShowPathPrefix    string
	planShowSortBy        string
	planShowSortDirection string
	planShowPage          int
	planShowPageSize      int
)

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective plan with filters and paging",
	Long: `Show entries of the effective plan (current plan with review overrides
applied), filtered, sorted, and paged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		req := engine.ViewPlanRequest{
			Strategies:    planShowStrategies,
			Actions:       planShowActions,
			Reasons:       planShowReasons,
			MovesOnly:     planShowMovesOnly,
			PathPrefix:    planShowPathPrefix,
			SortBy:        planShowSortBy,
			SortDirection: planShowSortDirection,
			Page:          planShowPage,
			PageSize:      planShowPageSize,
		}
		if cmd.Flags().Changed("min-confidence") {
			req.MinConfidence = &planShowMinConfidence
		}

		view, err := eng.ViewPlan(req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(view)
		}

		PrintSection("Plan Entries")
		PrintLabelValue("Fingerprint", view.PlanFingerprint)
		PrintLabelValue("Matched", fmt.Sprintf("%d of %d (page %d, %d per page)", view.FilteredEntries, view.TotalEntries, view.Page, view.PageSize))
		fmt.Println()

		if len(view.Entries) == 0 {
			PrintEmptyState("No entries match the given filters.")
			return nil
		}

		rows := make([][]string, 0, len(view.Entries))
		for _, entry := range view.Entries {
			rows = append(rows, []string{entry.Action, entry.Reason, entry.SourcePath, entry.TargetPath})
		}
		PrintTable([]string{"ACTION", "REASON", "SOURCE", "TARGET"}, rows)
		return nil
	},
}

var planSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the effective plan by action, strategy, and reason",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		summary, err := eng.Summary()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(summary)
		}

		PrintSection("Plan Summary")
		PrintLabelValue("Fingerprint", summary.PlanFingerprint)
		PrintLabelValue("Root", summary.RootPath)
		PrintLabelValue("Entries", fmt.Sprintf("%d", summary.TotalEntries))
		printCounts(summary.Counts)

		printBuckets("Actions", summary.ActionCounts)
		printBuckets("Strategies", summary.StrategyCounts)
		printBuckets("Reasons", summary.ReasonCounts)

		if len(summary.TopTargetFolders) > 0 {
			PrintSubsection("Top target folders:")
			rows := make([][]string, 0, len(summary.TopTargetFolders))
			for _, bucket := range summary.TopTargetFolders {
				rows = append(rows, []string{bucket.Folder, fmt.Sprintf("%d", bucket.Count)})
			}
			PrintTable([]string{"FOLDER", "MOVES"}, rows)
		}
		return nil
	},
}

var planHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List superseded plan snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		history := eng.PlanHistory()

		if jsonOutput {
			return outputJSON(history)
		}

		PrintSection("Plan History")
		if len(history) == 0 {
			PrintEmptyState("No superseded plans.")
			return nil
		}

		rows := make([][]string, 0, len(history))
		for _, snapshot := range history {
			rows = append(rows, []string{
				snapshot.GeneratedAt.Format("2006-01-02 15:04:05"),
				shortFingerprint(snapshot.Fingerprint),
				fmt.Sprintf("%d", len(snapshot.Entries)),
				fmt.Sprintf("%d", snapshot.Counts.Planned),
			})
		}
		PrintTable([]string{"GENERATED", "FINGERPRINT", "ENTRIES", "PLANNED"}, rows)
		return nil
	},
}

var (
	planTemplateTemplate   string
	planTemplateMediaType  string
	planTemplateTitle      string
	planTemplateYear       int
	planTemplateSeason     int
	planTemplateEpisode    int
	planTemplateResolution string
	planTemplateRaw        bool
)

var planTestTemplateCmd = &cobra.Command{
	Use:   "test-template",
	Short: "Render a path template against sample metadata",
	Long: `Render a path template against sample metadata without touching the stored
plan. Useful for checking a template before putting it in the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		req := engine.TestTemplateRequest{
			Template:          planTemplateTemplate,
			MediaType:         planTemplateMediaType,
			Title:             planTemplateTitle,
			Resolution:        planTemplateResolution,
			NormalizeSegments: !planTemplateRaw,
		}
		if cmd.Flags().Changed("year") {
			req.Year = &planTemplateYear
		}
		if cmd.Flags().Changed("season") {
			req.Season = &planTemplateSeason
		}
		if cmd.Flags().Changed("episode") {
			req.Episode = &planTemplateEpisode
		}

		result, err := eng.TestTemplate(req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintLabelValue("Rendered", result.RelativePath)
		return nil
	},
}

func printCounts(counts plan.Counts) {
	PrintLabelValue("Counts", fmt.Sprintf("%d planned, %d noop, %d skipped, %d conflict (of %d)",
		counts.Planned, counts.Noop, counts.Skipped, counts.Conflict, counts.Source))
}

func printBuckets(title string, buckets []plan.CountBucket) {
	if len(buckets) == 0 {
		return
	}
	items := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		items = append(items, fmt.Sprintf("%s: %d", bucket.Key, bucket.Count))
	}
	PrintSubsection(title + ":")
	PrintList(items, 1)
}

func shortFingerprint(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}

func init() {
	planBuildCmd.Flags().StringVar(&planBuildLibraryRoot, "library-root", "", "Library root to scan (overrides config)")
	planBuildCmd.Flags().StringVar(&planBuildOrganizeRoot, "organize-root", "", "Organization root for planned targets (overrides config)")
	planBuildCmd.Flags().StringVar(&planBuildPolicy, "policy", "", "Target conflict policy: fail, skip, or suffix (overrides config)")

	planShowCmd.Flags().StringSliceVar(&planShowStrategies, "strategy", nil, "Filter by strategy (repeatable)")
	planShowCmd.Flags().StringSliceVar(&planShowActions, "action", nil, "Filter by action (repeatable)")
	planShowCmd.Flags().StringSliceVar(&planShowReasons, "reason", nil, "Filter by reason code (repeatable)")
	planShowCmd.Flags().Float64Var(&planShowMinConfidence, "min-confidence", 0, "Minimum entry confidence [0, 1]")
	planShowCmd.Flags().BoolVar(&planShowMovesOnly, "moves-only", false, "Show only move entries")
	planShowCmd.Flags().StringVar(&planShowPathPrefix, "path-prefix", "", "Filter by source path prefix")
	planShowCmd.Flags().StringVar(&planShowSortBy, "sort-by", "sourcePath", "Sort key: sourcePath, targetPath, confidence, strategy, action, reason")
	planShowCmd.Flags().StringVar(&planShowSortDirection, "sort-direction", "asc", "Sort direction: asc or desc")
	planShowCmd.Flags().IntVar(&planShowPage, "page", 1, "Page number (1-based)")
	planShowCmd.Flags().IntVar(&planShowPageSize, "page-size", 50, "Entries per page [1, 1000]")

	planTestTemplateCmd.Flags().StringVar(&planTemplateTemplate, "template", "", "Path template to render")
	planTestTemplateCmd.Flags().StringVar(&planTemplateMediaType, "media-type", "movie", "Sample media type: movie or episode")
	planTestTemplateCmd.Flags().StringVar(&planTemplateTitle, "title", "Sample Title", "Sample title")
	planTestTemplateCmd.Flags().IntVar(&planTemplateYear, "year", 0, "Sample year")
	planTestTemplateCmd.Flags().IntVar(&planTemplateSeason, "season", 0, "Sample season number")
	planTestTemplateCmd.Flags().IntVar(&planTemplateEpisode, "episode", 0, "Sample episode number")
	planTestTemplateCmd.Flags().StringVar(&planTemplateResolution, "resolution", "1080p", "Sample resolution")
	planTestTemplateCmd.Flags().BoolVar(&planTemplateRaw, "raw", false, "Skip path segment normalization")
	_ = planTestTemplateCmd.MarkFlagRequired("template")

	planCmd.AddCommand(planBuildCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planSummaryCmd)
	planCmd.AddCommand(planHistoryCmd)
	planCmd.AddCommand(planTestTemplateCmd)
}
