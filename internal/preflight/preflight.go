// Package preflight issues and consumes short-lived, single-use tokens
// that bind a plan fingerprint to an exact selection of source paths. A
// token proves the caller reviewed exactly the plan state and selection
// they are about to apply; any drift between issue and consume invalidates
// it.
package preflight

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danieljhkim/curator/internal/clock"
	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/pathcmp"
	"github.com/danieljhkim/curator/internal/store"
)

// SchemaVersion is the persisted token document version.
const SchemaVersion = 1

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 10 * time.Minute

// MaxEntries caps the token store; the oldest tokens are dropped first.
const MaxEntries = 500

// ConsumeStatus is the outcome of a token consume attempt.
type ConsumeStatus string

// Consume statuses.
const (
	StatusSuccess                 ConsumeStatus = "Success"
	StatusMissingToken            ConsumeStatus = "MissingToken"
	StatusTokenNotFound           ConsumeStatus = "TokenNotFound"
	StatusTokenExpired            ConsumeStatus = "TokenExpired"
	StatusPlanFingerprintMismatch ConsumeStatus = "PlanFingerprintMismatch"
	StatusSelectedSourceMismatch  ConsumeStatus = "SelectedSourceMismatch"
)

// Entry is one issued token.
type Entry struct {
	SchemaVersion      int       `json:"schemaVersion"`
	Token              string    `json:"token"`
	IssuedAt           time.Time `json:"issuedAt"`
	ExpiresAt          time.Time `json:"expiresAt"`
	PlanFingerprint    string    `json:"planFingerprint"`
	SelectedSourceHash string    `json:"selectedSourceHash"`
}

// Snapshot is the persisted token document.
type Snapshot struct {
	SchemaVersion int     `json:"schemaVersion"`
	Entries       []Entry `json:"entries"`
}

// Store issues and consumes preflight tokens against one document.
type Store struct {
	fs    fsops.FS
	clock clock.Clock
	path  string
}

// NewStore creates a preflight token store.
func NewStore(fs fsops.FS, clk clock.Clock, path string) *Store {
	return &Store{fs: fs, clock: clk, path: path}
}

// Issue creates and persists a token binding the plan fingerprint to the
// selection. Expired tokens are pruned on the way.
func (s *Store) Issue(planFingerprint string, selectedSourcePaths []string) (Entry, error) {
	now := s.clock.Now()
	entry := Entry{
		SchemaVersion:      SchemaVersion,
		Token:              uuid.NewString(),
		IssuedAt:           now,
		ExpiresAt:          now.Add(TokenTTL),
		PlanFingerprint:    planFingerprint,
		SelectedSourceHash: SelectedSourceHash(planFingerprint, selectedSourcePaths),
	}

	_, err := s.update(func(entries []Entry) []Entry {
		entries = append(entries, entry)
		if len(entries) > MaxEntries {
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].IssuedAt.Before(entries[j].IssuedAt)
			})
			entries = entries[len(entries)-MaxEntries:]
		}
		return entries
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ConsumeIfValid looks a token up and validates it against the expected
// fingerprint and selection. The entry is always removed regardless of
// outcome: a token is single-use even when the attempt fails, so a
// mismatch cannot be retried against the same token.
func (s *Store) ConsumeIfValid(token, planFingerprint string, selectedSourcePaths []string) (ConsumeStatus, error) {
	if strings.TrimSpace(token) == "" {
		return StatusMissingToken, nil
	}

	now := s.clock.Now()
	expectedHash := SelectedSourceHash(planFingerprint, selectedSourcePaths)
	status := StatusTokenNotFound

	_, err := s.update(func(entries []Entry) []Entry {
		kept := make([]Entry, 0, len(entries))
		for _, entry := range entries {
			if strings.EqualFold(entry.Token, token) {
				switch {
				case !entry.ExpiresAt.After(now):
					status = StatusTokenExpired
				case !strings.EqualFold(entry.PlanFingerprint, planFingerprint):
					status = StatusPlanFingerprintMismatch
				case entry.SelectedSourceHash != expectedHash:
					status = StatusSelectedSourceMismatch
				default:
					status = StatusSuccess
				}
				continue
			}
			kept = append(kept, entry)
		}
		return kept
	})
	if err != nil {
		return StatusTokenNotFound, err
	}
	return status, nil
}

// update runs a locked read-modify-write over the live entries, pruning
// expired and malformed entries on every pass.
func (s *Store) update(transform func([]Entry) []Entry) (Snapshot, error) {
	now := s.clock.Now()
	return store.Update(s.fs, s.path,
		func() Snapshot { return Snapshot{SchemaVersion: SchemaVersion} },
		func(snapshot Snapshot) (Snapshot, error) {
			live := make([]Entry, 0, len(snapshot.Entries))
			for _, entry := range snapshot.Entries {
				if entry.SchemaVersion != SchemaVersion {
					continue
				}
				if strings.TrimSpace(entry.Token) == "" {
					continue
				}
				live = append(live, entry)
			}
			live = transform(live)

			pruned := make([]Entry, 0, len(live))
			for _, entry := range live {
				if entry.ExpiresAt.After(now) {
					pruned = append(pruned, entry)
				}
			}
			sort.Slice(pruned, func(i, j int) bool {
				return pruned[i].IssuedAt.Before(pruned[j].IssuedAt)
			})
			return Snapshot{SchemaVersion: SchemaVersion, Entries: pruned}, nil
		})
}

// SelectedSourceHash computes the hash binding a fingerprint to a
// selection: SHA-256 over the fingerprint and the canonicalized,
// deduplicated, sorted paths, newline-joined.
func SelectedSourceHash(planFingerprint string, selectedSourcePaths []string) string {
	normalized := normalizeSourcePaths(selectedSourcePaths)
	payload := planFingerprint + "\n" + strings.Join(normalized, "\n")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func normalizeSourcePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	normalized := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		canonical := pathcmp.Canonical(path)
		key := pathcmp.Fold(canonical)
		if seen[key] {
			continue
		}
		seen[key] = true
		normalized = append(normalized, canonical)
	}
	sort.Slice(normalized, func(i, j int) bool {
		return pathcmp.Fold(normalized[i]) < pathcmp.Fold(normalized[j])
	})
	return normalized
}
