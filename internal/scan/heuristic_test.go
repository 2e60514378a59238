package scan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename_Movies(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantTitle  string
		wantYear   int
		wantRes    string
		wantSource string
	}{
		{
			name:       "scene style release",
			path:       "/incoming/The.Great.Escape.1963.1080p.BluRay.x264-GROUP.mkv",
			wantTitle:  "The Great Escape",
			wantYear:   1963,
			wantRes:    "1080p",
			wantSource: "bluray",
		},
		{
			name:      "spaces and parens",
			path:      "/incoming/Arrival (2016) [2160p].mkv",
			wantTitle: "Arrival",
			wantYear:  2016,
			wantRes:   "2160p",
		},
		{
			name:      "webdl tag",
			path:      "/incoming/Heat.1995.720p.WEB-DL.mp4",
			wantTitle: "Heat",
			wantYear:  1995,
			wantRes:   "720p",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilename(tt.path)

			assert.Equal(t, "movie", got.SuggestedMediaType)
			assert.Equal(t, tt.wantTitle, got.SuggestedTitle)
			require.NotNil(t, got.SuggestedYear)
			assert.Equal(t, tt.wantYear, *got.SuggestedYear)
			assert.Equal(t, tt.wantRes, got.Resolution)
			if tt.wantSource != "" {
				assert.Equal(t, tt.wantSource, got.MediaSource)
			}
			assert.Equal(t, filepath.Base(tt.path), got.Name)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, "heuristic", got.Source)
			assert.Greater(t, got.Confidence, 0.4)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

func TestParseFilename_Episodes(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantTitle   string
		wantSeason  int
		wantEpisode int
	}{
		{
			name:        "SxxEyy marker",
			path:        "/incoming/Breaking.Point.S02E05.1080p.WEB-DL.mkv",
			wantTitle:   "Breaking Point",
			wantSeason:  2,
			wantEpisode: 5,
		},
		{
			name:        "NxM marker",
			path:        "/incoming/Deep Water 3x12 HDTV.mkv",
			wantTitle:   "Deep Water",
			wantSeason:  3,
			wantEpisode: 12,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilename(tt.path)

			assert.Equal(t, "episode", got.SuggestedMediaType)
			assert.Equal(t, tt.wantTitle, got.SuggestedTitle)
			require.NotNil(t, got.SuggestedSeason)
			assert.Equal(t, tt.wantSeason, *got.SuggestedSeason)
			require.NotNil(t, got.SuggestedEpisode)
			assert.Equal(t, tt.wantEpisode, *got.SuggestedEpisode)
		})
	}
}

func TestParseFilename_Unknown(t *testing.T) {
	got := ParseFilename("/incoming/VID_20240101.mkv")

	assert.Equal(t, "unknown", got.SuggestedMediaType)
	assert.Nil(t, got.SuggestedSeason)
	assert.Nil(t, got.SuggestedEpisode)
}

func TestParseFilename_ParentFolderFallback(t *testing.T) {
	t.Run("episode file inherits series title from folder", func(t *testing.T) {
		got := ParseFilename("/incoming/Breaking Point/S01E01.mkv")

		assert.Equal(t, "episode", got.SuggestedMediaType)
		assert.Equal(t, "Breaking Point", got.SuggestedTitle)
	})

	t.Run("movie file inherits year from folder", func(t *testing.T) {
		got := ParseFilename("/incoming/Arrival (2016)/movie.mkv")

		require.NotNil(t, got.SuggestedYear)
		assert.Equal(t, 2016, *got.SuggestedYear)
	})

	t.Run("library folder names are ignored", func(t *testing.T) {
		got := ParseFilename("/media/movies/VID_001.mkv")

		assert.NotEqual(t, "movies", got.SuggestedTitle)
	})
}

func TestParseFilename_ExtrasTokens(t *testing.T) {
	got := ParseFilename("/incoming/Signal.2019.2160p.BluRay.hevc.dts.5.1-FRAME.mkv")

	assert.Equal(t, "2160p", got.Resolution)
	assert.Equal(t, "hevc", got.VideoCodec)
	assert.Equal(t, "dts", got.AudioCodec)
	assert.Equal(t, "5.1", got.AudioChannels)
	assert.Equal(t, "FRAME", got.ReleaseGroup)
}
