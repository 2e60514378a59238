//go:build windows

package lockfile

import (
	"os"

	"golang.org/x/sys/windows"
)

// tryLock acquires an exclusive non-blocking byte-range lock covering the
// whole file. LockFileEx with LOCKFILE_FAIL_IMMEDIATELY is the Windows
// equivalent of a non-blocking flock.
func tryLock(f *os.File) error {
	ol := new(windows.Overlapped)
	err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, ol)
	if err == windows.ERROR_LOCK_VIOLATION {
		return ErrAlreadyLocked
	}
	return err
}

// unlock releases the byte-range lock.
func unlock(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}
