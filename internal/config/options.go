package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Default path templates. Tokens resolve against the suggestion that
// produced a plan entry; see the plan package for the supported set.
const (
	DefaultMovieTemplate   = "{TitleWithYear} [{Resolution}]/{TitleWithYear} [{Resolution}]"
	DefaultEpisodeTemplate = "{Title}/Season {Season2}/{Title} S{Season2}E{Episode2} [{Resolution}]"

	DefaultTargetConflictPolicy = "fail"
)

// DefaultVideoExtensions are the file extensions treated as organizable
// media when scanning a library.
var DefaultVideoExtensions = []string{".mkv", ".mp4", ".avi", ".mov", ".wmv", ".m4v"}

// Options carries the organization settings passed explicitly into every
// engine entry point. There is no global configuration singleton; the CLI
// loads Options once and hands them down.
type Options struct {
	// LibraryRoot is the directory scanned for candidate media files.
	LibraryRoot string `mapstructure:"library_root"`

	// OrganizeRoot is the root directory planned targets are placed under.
	// Apply rejects any target that escapes this root.
	OrganizeRoot string `mapstructure:"organize_root"`

	// MovieTemplate renders the relative target path for movies.
	MovieTemplate string `mapstructure:"movie_template"`

	// EpisodeTemplate renders the relative target path for episodes.
	EpisodeTemplate string `mapstructure:"episode_template"`

	// TargetConflictPolicy is one of "fail", "skip", "suffix".
	TargetConflictPolicy string `mapstructure:"target_conflict_policy"`

	// NormalizeSegments strips filesystem-reserved characters from
	// rendered path segments.
	NormalizeSegments bool `mapstructure:"normalize_segments"`

	// VideoExtensions are the extensions considered organizable media.
	VideoExtensions []string `mapstructure:"video_extensions"`

	// ProtectedRoots are directories the undo engine's empty-directory
	// cleanup never deletes. LibraryRoot and OrganizeRoot are always
	// protected in addition to this list.
	ProtectedRoots []string `mapstructure:"protected_roots"`
}

// LoadOptions reads options from the config file at paths.ConfigFile,
// applying defaults and CURATOR_* environment overrides. A missing config
// file is not an error; the defaults simply apply.
func LoadOptions(paths *Paths) (*Options, error) {
	v := viper.New()
	v.SetConfigFile(paths.ConfigFile)
	v.SetConfigType("yaml")

	// Every key needs a registered default for AutomaticEnv to reach it
	// through Unmarshal.
	v.SetDefault("library_root", "")
	v.SetDefault("organize_root", "")
	v.SetDefault("protected_roots", []string{})
	v.SetDefault("movie_template", DefaultMovieTemplate)
	v.SetDefault("episode_template", DefaultEpisodeTemplate)
	v.SetDefault("target_conflict_policy", DefaultTargetConflictPolicy)
	v.SetDefault("normalize_segments", true)
	v.SetDefault("video_extensions", DefaultVideoExtensions)

	v.SetEnvPrefix("CURATOR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &opts, nil
}
