package plan

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// CountBucket is one (value, count) pair in a summary.
type CountBucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// FolderBucket counts planned moves landing under one top-level folder of
// the organization root.
type FolderBucket struct {
	Folder string `json:"folder"`
	Count  int    `json:"count"`
}

// Summary aggregates a plan snapshot into count buckets for quick review.
type Summary struct {
	GeneratedAt      time.Time      `json:"generatedAt"`
	PlanFingerprint  string         `json:"planFingerprint"`
	RootPath         string         `json:"rootPath"`
	TotalEntries     int            `json:"totalEntries"`
	Counts           Counts         `json:"counts"`
	ActionCounts     []CountBucket  `json:"actionCounts"`
	StrategyCounts   []CountBucket  `json:"strategyCounts"`
	ReasonCounts     []CountBucket  `json:"reasonCounts"`
	TopTargetFolders []FolderBucket `json:"topTargetFolders"`
}

const topFolderLimit = 10

// BuildSummary computes the summary buckets for a snapshot.
func BuildSummary(snapshot Snapshot, now time.Time) Summary {
	actions := make([]string, 0, len(snapshot.Entries))
	strategies := make([]string, 0, len(snapshot.Entries))
	reasons := make([]string, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		actions = append(actions, entry.Action)
		strategies = append(strategies, entry.Strategy)
		reasons = append(reasons, entry.Reason)
	}

	return Summary{
		GeneratedAt:      now,
		PlanFingerprint:  snapshot.Fingerprint,
		RootPath:         snapshot.RootPath,
		TotalEntries:     len(snapshot.Entries),
		Counts:           snapshot.Counts,
		ActionCounts:     buildBuckets(actions),
		StrategyCounts:   buildBuckets(strategies),
		ReasonCounts:     buildBuckets(reasons),
		TopTargetFolders: buildTopTargetFolders(snapshot),
	}
}

func buildBuckets(values []string) []CountBucket {
	counts := make(map[string]int)
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			counts[trimmed]++
		}
	}

	buckets := make([]CountBucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, CountBucket{Key: key, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return strings.ToLower(buckets[i].Key) < strings.ToLower(buckets[j].Key)
	})
	return buckets
}

func buildTopTargetFolders(snapshot Snapshot) []FolderBucket {
	counts := make(map[string]int)
	for _, entry := range snapshot.Entries {
		if entry.Action != ActionMove || strings.TrimSpace(entry.TargetPath) == "" {
			continue
		}
		folder := topTargetFolder(entry.TargetPath, snapshot.RootPath)
		if folder != "" {
			counts[folder]++
		}
	}

	buckets := make([]FolderBucket, 0, len(counts))
	for folder, count := range counts {
		buckets = append(buckets, FolderBucket{Folder: folder, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return strings.ToLower(buckets[i].Folder) < strings.ToLower(buckets[j].Folder)
	})
	if len(buckets) > topFolderLimit {
		buckets = buckets[:topFolderLimit]
	}
	return buckets
}

// topTargetFolder returns the first path segment of the target relative to
// the root, falling back to the target's parent directory name.
func topTargetFolder(targetPath, rootPath string) string {
	if strings.TrimSpace(rootPath) != "" {
		if relative, err := filepath.Rel(rootPath, targetPath); err == nil &&
			!strings.HasPrefix(relative, "..") && !filepath.IsAbs(relative) {
			segments := strings.FieldsFunc(filepath.ToSlash(relative), func(r rune) bool {
				return r == '/'
			})
			if len(segments) > 0 && strings.TrimSpace(segments[0]) != "" {
				return strings.TrimSpace(segments[0])
			}
		}
	}

	leaf := filepath.Base(filepath.Dir(targetPath))
	if leaf == "." || leaf == string(filepath.Separator) || strings.TrimSpace(leaf) == "" {
		return "(unknown)"
	}
	return leaf
}
