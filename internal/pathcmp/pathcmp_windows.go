//go:build windows

package pathcmp

import (
	"path/filepath"
	"strings"
)

// fold lowercases the path: Windows filesystems are case-insensitive.
func fold(path string) string {
	return strings.ToLower(path)
}

// SameVolume reports whether two paths share the same drive root.
func SameVolume(left, right string) bool {
	leftVol := strings.ToLower(filepath.VolumeName(Canonical(left)))
	rightVol := strings.ToLower(filepath.VolumeName(Canonical(right)))
	return leftVol == rightVol
}
