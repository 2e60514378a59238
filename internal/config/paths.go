// Package config manages curator configuration and filesystem paths.
//
// Configuration includes the locations of curator's persisted documents,
// which can be customized via environment variables. The default root is
// ~/.curator/ containing one JSON document per concern plus the shared
// operation lock file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by curator.
type Paths struct {
	// Root is the base directory for all curator data (default: ~/.curator)
	Root string

	// Plan is the current organization plan document
	Plan string

	// PlanHistory is the bounded ring of superseded plans, newest last
	PlanHistory string

	// Overrides is the current review overrides document
	Overrides string

	// OverridesHistory is the bounded ring of superseded overrides snapshots
	OverridesHistory string

	// ReviewLocks is the bounded ring of immutable review locks
	ReviewLocks string

	// PreflightTokens is the reviewed-preflight token document
	PreflightTokens string

	// Journal is the append-only apply/undo audit journal
	Journal string

	// OperationLock is the shared lock file gating apply and undo execution
	OperationLock string

	// ConfigFile is the path to the global config file
	ConfigFile string
}

// DefaultPaths returns the default paths for curator.
// The root can be overridden with the CURATOR_ROOT environment variable.
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("CURATOR_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".curator")
	}

	return PathsAt(root), nil
}

// PathsAt returns the document paths rooted at the given data directory.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:             root,
		Plan:             filepath.Join(root, "organization-plan.json"),
		PlanHistory:      filepath.Join(root, "organization-plan-history.json"),
		Overrides:        filepath.Join(root, "organization-plan-overrides.json"),
		OverridesHistory: filepath.Join(root, "organization-plan-overrides-history.json"),
		ReviewLocks:      filepath.Join(root, "review-locks.json"),
		PreflightTokens:  filepath.Join(root, "reviewed-preflight-tokens.json"),
		Journal:          filepath.Join(root, "apply-journal.json"),
		OperationLock:    filepath.Join(root, "apply.lock"),
		ConfigFile:       filepath.Join(root, "config.yaml"),
	}
}

// EnsureDirectories creates the data directory if it doesn't exist.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.Root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.Root, err)
	}
	return nil
}
