// Package lockfile provides file-based mutual exclusion.
//
// Two kinds of locks are built on the same primitive:
//
//   - the operation lock (apply.lock), acquired non-blocking exactly once so
//     that at most one apply or undo executes across all curator processes
//     sharing a data directory;
//   - per-document store locks (<name>.json.lck sidecars), acquired with a
//     bounded retry so that concurrent read-modify-write cycles on one
//     persisted document serialize instead of clobbering each other.
//
// The lock file itself never carries data; holding the OS-level exclusive
// lock on it is the whole protocol.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrAlreadyLocked is returned by TryAcquire when another holder has the lock.
var ErrAlreadyLocked = errors.New("lock already held")

// ErrTimeout is returned by Acquire when the retry budget is exhausted.
var ErrTimeout = errors.New("timed out acquiring lock")

const (
	retryInterval  = 50 * time.Millisecond
	acquireTimeout = 10 * time.Second

	// maxRetries bounds the constant-interval retry loop to the acquire
	// timeout budget.
	maxRetries = uint64(acquireTimeout / retryInterval)
)

// Handle represents a held lock. Release must be called exactly once.
type Handle struct {
	file *os.File
	path string
}

// Path returns the lock file path.
func (h *Handle) Path() string {
	return h.path
}

// Release unlocks and closes the lock file. The file is left in place for
// the next acquirer.
func (h *Handle) Release() error {
	if h == nil || h.file == nil {
		return nil
	}
	unlockErr := unlock(h.file)
	closeErr := h.file.Close()
	h.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

// TryAcquire attempts to take the exclusive lock without blocking. It
// returns ErrAlreadyLocked when another process (or goroutine) holds it.
func TryAcquire(path string) (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := tryLock(file); err != nil {
		_ = file.Close()
		if errors.Is(err, ErrAlreadyLocked) {
			return nil, ErrAlreadyLocked
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return &Handle{file: file, path: path}, nil
}

// Acquire takes the exclusive lock, retrying every 50ms for up to 10s.
// A held lock that never frees up surfaces as ErrTimeout rather than
// blocking the caller forever.
func Acquire(path string) (*Handle, error) {
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), maxRetries)
	var handle *Handle

	err := backoff.Retry(func() error {
		h, err := TryAcquire(path)
		if err != nil {
			if errors.Is(err, ErrAlreadyLocked) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}
		handle = h
		return nil
	}, bo)
	if err != nil {
		if errors.Is(err, ErrAlreadyLocked) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, err
	}

	return handle, nil
}
