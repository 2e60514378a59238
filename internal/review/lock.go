package review

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/pathcmp"
	"github.com/danieljhkim/curator/internal/plan"
	"github.com/danieljhkim/curator/internal/store"
)

// LockRetentionLimit bounds the review lock ring.
const LockRetentionLimit = 200

// Review lock store errors.
var (
	// ErrDuplicateReviewID means an appended lock reused an existing id.
	// Ids are random, so this indicates a storage invariant violation.
	ErrDuplicateReviewID = errors.New("duplicate review id")

	// ErrLockNotFound means no lock exists for the given review id.
	ErrLockNotFound = errors.New("review lock not found")

	// ErrLockAlreadyApplied means the lock was already consumed by an
	// apply run. A lock is terminal once applied.
	ErrLockAlreadyApplied = errors.New("review lock already applied")
)

// LockSnapshot is an immutable, one-time-consumable freeze of an effective
// plan subset. MarkApplied is the only permitted mutation, and only once.
type LockSnapshot struct {
	SchemaVersion int       `json:"schemaVersion"`
	ReviewID      string    `json:"reviewId"`
	CreatedAt     time.Time `json:"createdAt"`

	PlanFingerprint     string   `json:"planFingerprint"`
	PlanRootPath        string   `json:"planRootPath"`
	SelectedSourcePaths []string `json:"selectedSourcePaths"`

	// EffectivePlan is the frozen effective plan, carrying its own
	// recomputed fingerprint.
	EffectivePlan plan.Snapshot `json:"effectivePlan"`

	// Overrides is the override snapshot the effective plan was built
	// from.
	Overrides OverridesSnapshot `json:"overridesSnapshot"`

	AppliedRunID string     `json:"appliedRunId,omitempty"`
	AppliedAt    *time.Time `json:"appliedAt,omitempty"`
}

// Applied reports whether the lock was already consumed.
func (l LockSnapshot) Applied() bool {
	return l.AppliedRunID != ""
}

// CreateLock freezes the effective plan of (basePlan, overrides) and the
// given selection into a new lock snapshot. An empty selection defaults to
// every effective move entry. The returned warnings list any duplicate
// effective target paths in the selection; entry actions are left as they
// are.
func CreateLock(basePlan plan.Snapshot, overrides OverridesSnapshot, selectedSourcePaths []string, now time.Time) (LockSnapshot, []string) {
	effective := BuildEffectivePlan(basePlan, overrides)
	effectiveFingerprint := plan.Fingerprint(effective)
	effective.Fingerprint = effectiveFingerprint

	selection := make([]string, 0)
	seen := make(map[string]bool)
	for _, path := range selectedSourcePaths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		key := pathcmp.Key(path)
		if !seen[key] {
			seen[key] = true
			selection = append(selection, path)
		}
	}
	if len(selection) == 0 {
		for _, entry := range effective.Entries {
			if entry.Action == plan.ActionMove {
				selection = append(selection, entry.SourcePath)
			}
		}
	}

	return LockSnapshot{
		SchemaVersion:       SchemaVersion,
		ReviewID:            uuid.NewString(),
		CreatedAt:           now,
		PlanFingerprint:     basePlan.Fingerprint,
		PlanRootPath:        basePlan.RootPath,
		SelectedSourcePaths: selection,
		EffectivePlan:       effective,
		Overrides:           overrides,
	}, duplicateTargetWarnings(effective, selection)
}

// duplicateTargetWarnings reports selected effective entries that share a
// target path. Override application is not re-checked for duplicates, so
// this is the reviewer's visibility into override-introduced collisions.
func duplicateTargetWarnings(effective plan.Snapshot, selection []string) []string {
	selected := make(map[string]bool, len(selection))
	for _, path := range selection {
		selected[pathcmp.Key(path)] = true
	}

	targets := make(map[string][]string)
	for _, entry := range effective.Entries {
		if entry.Action != plan.ActionMove || strings.TrimSpace(entry.TargetPath) == "" {
			continue
		}
		if !selected[pathcmp.Key(entry.SourcePath)] {
			continue
		}
		key := pathcmp.Key(entry.TargetPath)
		targets[key] = append(targets[key], entry.SourcePath)
	}

	var warnings []string
	for _, sources := range targets {
		if len(sources) > 1 {
			warnings = append(warnings, fmt.Sprintf(
				"duplicate effective target for sources: %s", strings.Join(sources, ", ")))
		}
	}
	return warnings
}

// locksDocument is the persisted review lock ring.
type locksDocument struct {
	SchemaVersion int            `json:"schemaVersion"`
	Locks         []LockSnapshot `json:"locks"`
}

// LockStore persists review locks with bounded retention.
type LockStore struct {
	fs   fsops.FS
	path string
}

// NewLockStore creates a review lock store over the given document path.
func NewLockStore(fs fsops.FS, path string) *LockStore {
	return &LockStore{fs: fs, path: path}
}

// Append adds one lock, enforcing review id uniqueness and the retention
// bound.
func (s *LockStore) Append(lock LockSnapshot) error {
	_, err := store.Update(s.fs, s.path, emptyLocksDocument,
		func(doc locksDocument) (locksDocument, error) {
			doc = normalizeLocksDocument(doc)
			for _, existing := range doc.Locks {
				if strings.EqualFold(existing.ReviewID, lock.ReviewID) {
					return doc, fmt.Errorf("%w: %s", ErrDuplicateReviewID, lock.ReviewID)
				}
			}
			doc.Locks = append(doc.Locks, lock)
			if len(doc.Locks) > LockRetentionLimit {
				doc.Locks = doc.Locks[len(doc.Locks)-LockRetentionLimit:]
			}
			return doc, nil
		})
	return err
}

// List returns all stored locks in append order.
func (s *LockStore) List() []LockSnapshot {
	doc := normalizeLocksDocument(store.Read(s.fs, s.path, emptyLocksDocument))
	return doc.Locks
}

// ByID returns the lock with the given review id.
func (s *LockStore) ByID(reviewID string) (LockSnapshot, bool) {
	if strings.TrimSpace(reviewID) == "" {
		return LockSnapshot{}, false
	}
	for _, lock := range s.List() {
		if strings.EqualFold(lock.ReviewID, reviewID) {
			return lock, true
		}
	}
	return LockSnapshot{}, false
}

// MarkApplied stamps the consuming apply run onto a lock. It fails when
// the lock does not exist or was already applied.
func (s *LockStore) MarkApplied(reviewID, runID string, appliedAt time.Time) error {
	_, err := store.Update(s.fs, s.path, emptyLocksDocument,
		func(doc locksDocument) (locksDocument, error) {
			doc = normalizeLocksDocument(doc)
			for i := range doc.Locks {
				if !strings.EqualFold(doc.Locks[i].ReviewID, reviewID) {
					continue
				}
				if doc.Locks[i].Applied() {
					return doc, fmt.Errorf("%w: %s", ErrLockAlreadyApplied, reviewID)
				}
				doc.Locks[i].AppliedRunID = runID
				at := appliedAt
				doc.Locks[i].AppliedAt = &at
				return doc, nil
			}
			return doc, fmt.Errorf("%w: %s", ErrLockNotFound, reviewID)
		})
	return err
}

func emptyLocksDocument() locksDocument {
	return locksDocument{SchemaVersion: SchemaVersion}
}

func normalizeLocksDocument(doc locksDocument) locksDocument {
	if doc.SchemaVersion != SchemaVersion {
		return emptyLocksDocument()
	}
	return doc
}
