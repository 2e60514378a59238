package plan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danieljhkim/curator/internal/pathcmp"
)

// Sort fields accepted by ViewRequest.
const (
	SortBySourcePath = "sourcePath"
	SortByTargetPath = "targetPath"
	SortByConfidence = "confidence"
	SortByStrategy   = "strategy"
	SortByAction     = "action"
	SortByReason     = "reason"
)

// ViewRequest filters and pages the entries of a plan snapshot.
type ViewRequest struct {
	Strategies    []string `json:"strategies,omitempty"`
	Actions       []string `json:"actions,omitempty"`
	Reasons       []string `json:"reasons,omitempty"`
	MinConfidence *float64 `json:"minConfidence,omitempty"`
	MovesOnly     bool     `json:"movesOnly,omitempty"`
	PathPrefix    string   `json:"pathPrefix,omitempty"`
	SortBy        string   `json:"sortBy,omitempty"`
	SortDirection string   `json:"sortDirection,omitempty"`
	Page          int      `json:"page"`
	PageSize      int      `json:"pageSize"`
}

// ViewResponse is one page of filtered plan entries.
type ViewResponse struct {
	GeneratedAt     time.Time `json:"generatedAt"`
	PlanFingerprint string    `json:"planFingerprint"`
	TotalEntries    int       `json:"totalEntries"`
	FilteredEntries int       `json:"filteredEntries"`
	Page            int       `json:"page"`
	PageSize        int       `json:"pageSize"`
	SortBy          string    `json:"sortBy"`
	SortDirection   string    `json:"sortDirection"`
	Entries         []Entry   `json:"entries"`
}

// Validate checks a view request before any plan data is touched.
func (r ViewRequest) Validate() error {
	if r.MinConfidence != nil && (*r.MinConfidence < 0 || *r.MinConfidence > 1) {
		return fmt.Errorf("minConfidence must be within [0, 1]")
	}
	if r.Page <= 0 {
		return fmt.Errorf("page must be greater than 0")
	}
	if r.PageSize <= 0 || r.PageSize > 1000 {
		return fmt.Errorf("pageSize must be within [1, 1000]")
	}
	if normalizeSortBy(r.SortBy) == "" {
		return fmt.Errorf("sortBy must be one of: sourcePath, targetPath, confidence, strategy, action, reason")
	}
	if normalizeSortDirection(r.SortDirection) == "" {
		return fmt.Errorf("sortDirection must be asc or desc")
	}
	return nil
}

// BuildView filters, sorts, and pages a snapshot's entries. Call Validate
// first; BuildView assumes a valid request.
func BuildView(snapshot Snapshot, now time.Time, req ViewRequest) ViewResponse {
	strategySet := buildFoldSet(req.Strategies)
	actionSet := buildFoldSet(req.Actions)
	reasonSet := buildFoldSet(req.Reasons)
	prefix := normalizePathPrefix(req.PathPrefix)

	filtered := make([]Entry, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		if len(strategySet) > 0 && !strategySet[strings.ToLower(entry.Strategy)] {
			continue
		}
		if len(actionSet) > 0 && !actionSet[strings.ToLower(entry.Action)] {
			continue
		}
		if len(reasonSet) > 0 && !reasonSet[strings.ToLower(entry.Reason)] {
			continue
		}
		if req.MinConfidence != nil && entry.Confidence < *req.MinConfidence {
			continue
		}
		if req.MovesOnly && entry.Action != ActionMove {
			continue
		}
		if prefix != "" && !hasPathPrefix(entry.SourcePath, prefix) {
			continue
		}
		filtered = append(filtered, entry)
	}

	sortBy := normalizeSortBy(req.SortBy)
	sortDirection := normalizeSortDirection(req.SortDirection)
	sortEntries(filtered, sortBy, sortDirection == "desc")

	skip := (req.Page - 1) * req.PageSize
	page := []Entry{}
	if skip < len(filtered) {
		end := skip + req.PageSize
		if end > len(filtered) {
			end = len(filtered)
		}
		page = filtered[skip:end]
	}

	return ViewResponse{
		GeneratedAt:     now,
		PlanFingerprint: snapshot.Fingerprint,
		TotalEntries:    len(snapshot.Entries),
		FilteredEntries: len(filtered),
		Page:            req.Page,
		PageSize:        req.PageSize,
		SortBy:          sortBy,
		SortDirection:   sortDirection,
		Entries:         page,
	}
}

// FilterRequest selects move-entry source paths for an apply run.
type FilterRequest struct {
	Strategies    []string `json:"strategies,omitempty"`
	Reasons       []string `json:"reasons,omitempty"`
	MinConfidence *float64 `json:"minConfidence,omitempty"`
	PathPrefix    string   `json:"pathPrefix,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// FilterSelection is the outcome of a filter-based selection.
type FilterSelection struct {
	MoveCandidateCount  int      `json:"moveCandidateCount"`
	SelectedSourcePaths []string `json:"selectedSourcePaths"`
}

// Validate checks a filter request.
func (r FilterRequest) Validate() error {
	if r.MinConfidence != nil && (*r.MinConfidence < 0 || *r.MinConfidence > 1) {
		return fmt.Errorf("minConfidence must be within [0, 1]")
	}
	if r.Limit < 0 {
		return fmt.Errorf("limit must be greater than 0 when provided")
	}
	return nil
}

// SelectByFilter picks source paths of move entries matching the filter,
// in deterministic (sourcePath, itemId) order, honoring the limit.
func SelectByFilter(snapshot Snapshot, req FilterRequest) FilterSelection {
	candidates := make([]Entry, 0)
	for _, entry := range snapshot.Entries {
		if entry.Action == ActionMove {
			candidates = append(candidates, entry)
		}
	}
	sortEntries(candidates, SortBySourcePath, false)

	strategySet := buildFoldSet(req.Strategies)
	reasonSet := buildFoldSet(req.Reasons)
	prefix := normalizePathPrefix(req.PathPrefix)

	selected := make([]string, 0, len(candidates))
	for _, entry := range candidates {
		if len(strategySet) > 0 && !strategySet[strings.ToLower(entry.Strategy)] {
			continue
		}
		if len(reasonSet) > 0 && !reasonSet[strings.ToLower(entry.Reason)] {
			continue
		}
		if req.MinConfidence != nil && entry.Confidence < *req.MinConfidence {
			continue
		}
		if prefix != "" && !hasPathPrefix(entry.SourcePath, prefix) {
			continue
		}
		if req.Limit > 0 && len(selected) >= req.Limit {
			break
		}
		selected = append(selected, entry.SourcePath)
	}

	return FilterSelection{
		MoveCandidateCount:  len(candidates),
		SelectedSourcePaths: selected,
	}
}

func sortEntries(entries []Entry, sortBy string, descending bool) {
	less := func(a, b Entry) bool {
		switch sortBy {
		case SortByTargetPath:
			if !pathcmp.Equal(a.TargetPath, b.TargetPath) {
				return pathcmp.Less(a.TargetPath, b.TargetPath)
			}
		case SortByConfidence:
			if a.Confidence != b.Confidence {
				return a.Confidence < b.Confidence
			}
		case SortByStrategy:
			if !strings.EqualFold(a.Strategy, b.Strategy) {
				return strings.ToLower(a.Strategy) < strings.ToLower(b.Strategy)
			}
		case SortByAction:
			if !strings.EqualFold(a.Action, b.Action) {
				return strings.ToLower(a.Action) < strings.ToLower(b.Action)
			}
		case SortByReason:
			if !strings.EqualFold(a.Reason, b.Reason) {
				return strings.ToLower(a.Reason) < strings.ToLower(b.Reason)
			}
		default:
			if !pathcmp.Equal(a.SourcePath, b.SourcePath) {
				return pathcmp.Less(a.SourcePath, b.SourcePath)
			}
		}
		return strings.ToLower(a.ItemID) < strings.ToLower(b.ItemID)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if descending {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}

func normalizeSortBy(sortBy string) string {
	trimmed := strings.TrimSpace(sortBy)
	if trimmed == "" {
		return SortBySourcePath
	}
	for _, known := range []string{SortBySourcePath, SortByTargetPath, SortByConfidence, SortByStrategy, SortByAction, SortByReason} {
		if strings.EqualFold(trimmed, known) {
			return known
		}
	}
	return ""
}

func normalizeSortDirection(direction string) string {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "", "asc":
		return "asc"
	case "desc":
		return "desc"
	default:
		return ""
	}
}

func buildFoldSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			set[strings.ToLower(trimmed)] = true
		}
	}
	return set
}

func normalizePathPrefix(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	return strings.ReplaceAll(trimmed, "/", string(filepath.Separator))
}

func hasPathPrefix(path, prefix string) bool {
	normalized := normalizePathPrefix(path)
	if len(normalized) < len(prefix) {
		return false
	}
	return pathcmp.Fold(normalized[:len(prefix)]) == pathcmp.Fold(prefix)
}
