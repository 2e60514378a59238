package engine

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/curator/internal/plan"
	"github.com/danieljhkim/curator/internal/scan"
)

// BuildPlan scans the library, builds a fresh plan snapshot, and persists
// it as the current plan. The previous plan is superseded into history, not
// mutated.
func (e *Engine) BuildPlan(req BuildPlanRequest) (*BuildPlanResult, error) {
	libraryRoot := firstNonEmpty(req.LibraryRoot, e.options.LibraryRoot)
	organizeRoot := firstNonEmpty(req.OrganizeRoot, e.options.OrganizeRoot)
	policy := firstNonEmpty(req.TargetConflictPolicy, e.options.TargetConflictPolicy)

	if strings.TrimSpace(libraryRoot) == "" {
		return nil, fmt.Errorf("%w: library root is required", ErrValidation)
	}
	if strings.TrimSpace(organizeRoot) == "" {
		return nil, fmt.Errorf("%w: organize root is required", ErrValidation)
	}

	suggestions, err := e.suggestions.Suggestions(libraryRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to scan library: %w", err)
	}

	snapshot := plan.BuildPlan(e.fs, e.clock.Now(), suggestions, plan.BuildConfig{
		RootPath:             organizeRoot,
		MovieTemplate:        e.options.MovieTemplate,
		EpisodeTemplate:      e.options.EpisodeTemplate,
		TargetConflictPolicy: policy,
		NormalizeSegments:    e.options.NormalizeSegments,
	})

	if err := e.planStore.Save(snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist plan: %w", err)
	}

	return &BuildPlanResult{
		Snapshot:        snapshot,
		SuggestionCount: len(suggestions),
	}, nil
}

// TestTemplate renders a path template against a sample suggestion without
// touching any stored state.
func (e *Engine) TestTemplate(req TestTemplateRequest) (*TestTemplateResult, error) {
	if strings.TrimSpace(req.Template) == "" {
		return nil, fmt.Errorf("%w: template is required", ErrValidation)
	}

	sample := scan.Suggestion{
		SuggestedTitle:     req.Title,
		SuggestedMediaType: firstNonEmpty(req.MediaType, "movie"),
		SuggestedYear:      req.Year,
		SuggestedSeason:    req.Season,
		SuggestedEpisode:   req.Episode,
		Resolution:         req.Resolution,
	}

	rendered, err := plan.RenderTestTemplate(req.Template, sample, req.NormalizeSegments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return &TestTemplateResult{RelativePath: rendered}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
