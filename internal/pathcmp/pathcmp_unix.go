//go:build !windows

package pathcmp

// fold is the identity on POSIX systems: path comparisons are case-sensitive.
func fold(path string) string {
	return path
}

// SameVolume reports whether two paths reside on the same volume. POSIX
// mounts share a single rooted namespace, so rename is attempted and the
// kernel reports EXDEV if the paths cross filesystems; planning treats them
// as the same volume.
func SameVolume(left, right string) bool {
	return true
}
