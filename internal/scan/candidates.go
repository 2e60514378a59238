package scan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/danieljhkim/curator/internal/clock"
	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/pathcmp"
)

// Source yields suggestions for candidate media files. The engine depends
// on this interface, not on any particular parser.
type Source interface {
	// Suggestions returns one suggestion per candidate file under root.
	Suggestions(root string) ([]Suggestion, error)
}

// FilesystemSource walks a library root and produces heuristic suggestions
// for every file with an organizable video extension.
type FilesystemSource struct {
	fs         fsops.FS
	clock      clock.Clock
	extensions map[string]bool
}

// NewFilesystemSource creates a FilesystemSource recognizing the given
// video extensions (lowercase, dot-prefixed).
func NewFilesystemSource(fs fsops.FS, clk clock.Clock, extensions []string) *FilesystemSource {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}
	return &FilesystemSource{fs: fs, clock: clk, extensions: extSet}
}

// Suggestions walks root recursively and parses each candidate filename.
func (s *FilesystemSource) Suggestions(root string) ([]Suggestion, error) {
	canonRoot := pathcmp.Canonical(root)
	if canonRoot == "" {
		return nil, fmt.Errorf("library root is required")
	}
	if !fsops.DirExists(s.fs, canonRoot) {
		return nil, fmt.Errorf("library root %s does not exist", canonRoot)
	}

	var suggestions []Suggestion
	err := s.walk(canonRoot, func(path string) {
		suggestion := ParseFilename(path)
		suggestion.ItemID = uuid.NewString()
		suggestion.ScannedAt = s.clock.Now()
		suggestions = append(suggestions, suggestion)
	})
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (s *FilesystemSource) walk(dir string, visit func(path string)) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := s.walk(path, visit); err != nil {
				return err
			}
			continue
		}
		if s.extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			visit(path)
		}
	}
	return nil
}
