// Package pathcmp provides platform-aware path canonicalization and
// comparison.
//
// Every path decision in curator (duplicate-target detection, selection
// matching, containment checks) goes through this package so that the rules
// are consistent everywhere: paths are made absolute, cleaned, stripped of
// trailing separators, and compared case-sensitively on POSIX systems and
// case-insensitively on Windows.
package pathcmp

import (
	"path/filepath"
	"strings"
)

// Canonical returns the canonical form of a path: absolute, cleaned, with
// trailing separators removed. If the path cannot be resolved to an absolute
// path the trimmed input is returned as-is, so comparisons degrade to string
// comparisons rather than failing.
func Canonical(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return trimTrailingSeparators(filepath.Clean(trimmed))
	}
	return trimTrailingSeparators(abs)
}

// Equal reports whether two paths refer to the same location after
// canonicalization.
func Equal(left, right string) bool {
	return fold(Canonical(left)) == fold(Canonical(right))
}

// Less orders two paths by their canonical, platform-folded form. Used to
// keep plan entries and selections in a deterministic order.
func Less(left, right string) bool {
	return fold(Canonical(left)) < fold(Canonical(right))
}

// Key returns a canonical map key for the path. Two paths that Equal each
// other always produce the same key.
func Key(path string) string {
	return fold(Canonical(path))
}

// Fold applies the platform's case folding without canonicalizing. Used for
// raw prefix comparisons where the input is already normalized.
func Fold(path string) string {
	return fold(path)
}

// Contains reports whether path is root itself or lies underneath root.
func Contains(root, path string) bool {
	canonRoot := fold(Canonical(root))
	canonPath := fold(Canonical(path))
	if canonRoot == "" || canonPath == "" {
		return false
	}
	if canonRoot == canonPath {
		return true
	}
	return strings.HasPrefix(canonPath, canonRoot+string(filepath.Separator))
}

func trimTrailingSeparators(path string) string {
	for len(path) > 1 && (path[len(path)-1] == '/' || path[len(path)-1] == '\\') {
		// Never strip the root separator itself.
		if len(path) == len(filepath.VolumeName(path))+1 {
			break
		}
		path = path[:len(path)-1]
	}
	return path
}
