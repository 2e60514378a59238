//go:build unix

package lockfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// tryLock acquires an exclusive non-blocking flock on the file.
func tryLock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrAlreadyLocked
	}
	return err
}

// unlock releases the flock on the file.
func unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
