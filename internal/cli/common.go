package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danieljhkim/curator/internal/clock"
	"github.com/danieljhkim/curator/internal/config"
	"github.com/danieljhkim/curator/internal/engine"
	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/hash"
	"github.com/danieljhkim/curator/internal/scan"
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	// Get default paths
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	// Ensure directories exist
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	opts, err := config.LoadOptions(paths)
	if err != nil {
		return nil, err
	}

	// Create real implementations
	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher()
	clk := &clock.RealClock{}
	source := scan.NewFilesystemSource(fs, clk, opts.VideoExtensions)

	// Create engine
	return engine.New(fs, hasher, clk, *paths, *opts, source), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	initColors()
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
