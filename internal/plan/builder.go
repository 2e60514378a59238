package plan

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/pathcmp"
	"github.com/danieljhkim/curator/internal/scan"
)

// BuildConfig carries the settings a plan build depends on. It is passed
// explicitly so the builder holds no global state.
type BuildConfig struct {
	// RootPath is the organization root all targets are planned under.
	RootPath string

	// MovieTemplate and EpisodeTemplate are the relative path templates.
	// Empty values fall back to the defaults.
	MovieTemplate   string
	EpisodeTemplate string

	// TargetConflictPolicy is fail, skip, or suffix.
	TargetConflictPolicy string

	// NormalizeSegments strips reserved characters from rendered segments.
	NormalizeSegments bool
}

// Default path templates and conflict policy.
const (
	DefaultMovieTemplate   = "{TitleWithYear} [{Resolution}]/{TitleWithYear} [{Resolution}]"
	DefaultEpisodeTemplate = "{Title}/Season {Season2}/{Title} S{Season2}E{Episode2} [{Resolution}]"
	DefaultPolicy          = PolicyFail
)

// BuildEntry turns one suggestion into a plan entry. It classifies the
// suggestion into move, none, skip, or conflict and never errors: every
// failure mode is a skip or conflict with a reason code.
func BuildEntry(fs fsops.FS, s scan.Suggestion, cfg BuildConfig) Entry {
	entry := Entry{
		ItemID:             s.ItemID,
		SourcePath:         s.Path,
		Strategy:           StrategyUnknown,
		Action:             ActionSkip,
		Confidence:         s.Confidence,
		SuggestedTitle:     s.SuggestedTitle,
		SuggestedMediaType: s.SuggestedMediaType,
	}

	if strings.TrimSpace(s.Path) == "" {
		entry.Reason = ReasonMissingSourcePath
		return entry
	}
	if strings.TrimSpace(cfg.RootPath) == "" {
		entry.Reason = ReasonMissingOrganizationRootPath
		return entry
	}
	ext := filepath.Ext(s.Path)
	if strings.TrimSpace(ext) == "" {
		entry.Reason = ReasonMissingFileExtension
		return entry
	}

	title := strings.TrimSpace(s.SuggestedTitle)
	if cfg.NormalizeSegments {
		title = NormalizeSegment(s.SuggestedTitle)
	}
	if title == "" {
		title = "Unknown Title"
	}

	movieTemplate := cfg.MovieTemplate
	if strings.TrimSpace(movieTemplate) == "" {
		movieTemplate = DefaultMovieTemplate
	}
	episodeTemplate := cfg.EpisodeTemplate
	if strings.TrimSpace(episodeTemplate) == "" {
		episodeTemplate = DefaultEpisodeTemplate
	}

	var targetPath string
	switch strings.ToLower(s.SuggestedMediaType) {
	case StrategyMovie:
		entry.Strategy = StrategyMovie
		relative, ok := renderRelativePath(movieTemplate, movieTokens(title, s.SuggestedYear, s), cfg.NormalizeSegments)
		if !ok {
			entry.Reason = ReasonInvalidMovieTemplate
			return entry
		}
		targetPath = buildTargetPath(cfg.RootPath, relative, ext)

	case StrategyEpisode:
		entry.Strategy = StrategyEpisode
		if s.SuggestedSeason == nil || s.SuggestedEpisode == nil {
			entry.Reason = ReasonMissingSeasonOrEpisode
			return entry
		}
		relative, ok := renderRelativePath(episodeTemplate, episodeTokens(title, *s.SuggestedSeason, *s.SuggestedEpisode, s), cfg.NormalizeSegments)
		if !ok {
			entry.Reason = ReasonInvalidEpisodeTemplate
			return entry
		}
		targetPath = buildTargetPath(cfg.RootPath, relative, ext)

	default:
		entry.Reason = ReasonUnsupportedMediaType
		return entry
	}

	entry.TargetPath = targetPath
	if pathcmp.Equal(s.Path, targetPath) {
		entry.Action = ActionNone
		entry.Reason = ReasonAlreadyOrganized
		return entry
	}

	if fsops.FileExists(fs, targetPath) {
		entry.Action = ActionConflict
		entry.Reason = ReasonTargetAlreadyExists
		return entry
	}

	entry.Action = ActionMove
	entry.Reason = ReasonPlanned
	entry.AssociatedFiles = discoverAssociatedFiles(fs, s.Path, targetPath, s.SuggestedMediaType)
	return entry
}

// BuildPlan builds, conflict-resolves, counts, and fingerprints a full plan
// snapshot from a batch of suggestions.
func BuildPlan(fs fsops.FS, now time.Time, suggestions []scan.Suggestion, cfg BuildConfig) Snapshot {
	entries := make([]Entry, 0, len(suggestions))
	for _, s := range suggestions {
		entries = append(entries, BuildEntry(fs, s, cfg))
	}

	ResolveTargetConflicts(fs, entries, cfg.TargetConflictPolicy)
	MarkDuplicateTargetConflicts(entries)

	snapshot := Snapshot{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   now,
		RootPath:      cfg.RootPath,
		DryRun:        true,
		Counts:        RecomputeCounts(entries),
		Entries:       entries,
	}
	snapshot.Fingerprint = Fingerprint(snapshot)
	return snapshot
}

// buildTargetPath joins root and relative path, appending the source
// extension unless the template already rendered it.
func buildTargetPath(rootPath, relative, ext string) string {
	if !strings.HasSuffix(strings.ToLower(relative), strings.ToLower(ext)) {
		relative += ext
	}
	return filepath.Join(rootPath, relative)
}
