// Package scan produces organization suggestions for candidate media
// files.
//
// The engine only depends on the Suggestion record; where suggestions come
// from is pluggable. This package ships a filename heuristic parser and a
// filesystem candidate walker, which together give the CLI a usable
// suggestion source without any external inference runtime.
package scan

import "time"

// Suggestion is one candidate file with parsed organization metadata.
type Suggestion struct {
	// ItemID uniquely identifies the candidate within a scan.
	ItemID string `json:"itemId"`

	// Name is the bare filename of the candidate.
	Name string `json:"name"`

	// Path is the absolute source path of the candidate.
	Path string `json:"path"`

	// SuggestedTitle is the parsed title, or "Unknown Title".
	SuggestedTitle string `json:"suggestedTitle"`

	// SuggestedMediaType is "movie", "episode", or "unknown".
	SuggestedMediaType string `json:"suggestedMediaType"`

	// SuggestedYear is the parsed release year, if any.
	SuggestedYear *int `json:"suggestedYear,omitempty"`

	// SuggestedSeason is the parsed season number, if any.
	SuggestedSeason *int `json:"suggestedSeason,omitempty"`

	// SuggestedEpisode is the parsed episode number, if any.
	SuggestedEpisode *int `json:"suggestedEpisode,omitempty"`

	// Confidence is the parser's confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Source names the parser that produced the suggestion.
	Source string `json:"source"`

	// ScannedAt is when the candidate was scanned.
	ScannedAt time.Time `json:"scannedAt"`

	// Optional extras resolved from the filename; template tokens render
	// these verbatim.
	Resolution    string `json:"resolution,omitempty"`
	VideoCodec    string `json:"videoCodec,omitempty"`
	VideoBitDepth string `json:"videoBitDepth,omitempty"`
	AudioCodec    string `json:"audioCodec,omitempty"`
	AudioChannels string `json:"audioChannels,omitempty"`
	ReleaseGroup  string `json:"releaseGroup,omitempty"`
	MediaSource   string `json:"mediaSource,omitempty"`
	Edition       string `json:"edition,omitempty"`
}
