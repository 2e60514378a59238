// Package store persists versioned JSON documents with crash safety.
//
// Each concern (plan, overrides, review locks, preflight tokens, journal)
// keeps one JSON document on disk. Reads never observe partial writes
// because every write publishes through a temp file + atomic rename.
// Concurrent read-modify-write cycles on one document serialize through a
// .lck sidecar file lock acquired with bounded retry. A document that fails
// to deserialize is treated as corruption: the bad file is copied aside
// with a timestamped name and an empty default is substituted, so one bad
// write never wedges the tool.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/lockfile"
)

// Warn is invoked for recoverable store problems (corrupt documents,
// failed quarantine copies). Callers may replace it; the default writes to
// stderr.
var Warn = func(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "curator: "+format+"\n", args...)
}

// LockPath returns the sidecar lock file path for a document.
func LockPath(path string) string {
	return path + ".lck"
}

// Read loads the document at path, returning def() when the file is
// absent or corrupt. Corrupt files are quarantined aside before the
// default is substituted. Read takes no lock; writers publish atomically,
// so a lone read always sees a complete document.
func Read[T any](fs fsops.FS, path string, def func() T) T {
	data, err := fs.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			Warn("failed to read %s: %v", path, err)
		}
		return def()
	}

	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		if backupPath, ok := quarantine(fs, path); ok {
			Warn("invalid JSON in %s, backed up to %s: %v", path, backupPath, err)
		} else {
			Warn("invalid JSON in %s, backup failed: %v", path, err)
		}
		return def()
	}
	return doc
}

// Write replaces the document at path under the sidecar lock.
func Write[T any](fs fsops.FS, path string, doc T) error {
	lock, err := lockfile.Acquire(LockPath(path))
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	return writeLocked(fs, path, doc)
}

// Update performs a locked read-modify-write cycle: load the current
// document (or def() when absent/corrupt), transform it, and publish the
// result atomically. The updated document is returned.
func Update[T any](fs fsops.FS, path string, def func() T, update func(T) (T, error)) (T, error) {
	var zero T

	lock, err := lockfile.Acquire(LockPath(path))
	if err != nil {
		return zero, err
	}
	defer func() {
		_ = lock.Release()
	}()

	current := Read(fs, path, def)
	updated, err := update(current)
	if err != nil {
		return zero, err
	}

	if err := writeLocked(fs, path, updated); err != nil {
		return zero, err
	}
	return updated, nil
}

func writeLocked[T any](fs fsops.FS, path string, doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// quarantine copies a corrupt document aside with a timestamped name.
func quarantine(fs fsops.FS, path string) (string, bool) {
	timestamp := time.Now().UTC().Format("20060102150405.000")
	backupPath := fmt.Sprintf("%s.corrupt-%s", path, timestamp)
	if err := fs.Copy(path, backupPath); err != nil {
		return "", false
	}
	return backupPath, true
}
