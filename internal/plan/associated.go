package plan

import (
	"path/filepath"
	"strings"

	"github.com/danieljhkim/curator/internal/fsops"
	"github.com/danieljhkim/curator/internal/pathcmp"
)

var commonAssetNames = []string{
	"movie.nfo", "poster.jpg", "fanart.jpg", "logo.png",
	"folder.jpg", "landscape.jpg", "backdrop.jpg", "clearlogo.png",
}

var commonAssetDirs = []string{
	"Subs", "extras", "featurettes", "Specials", "behind the scenes", "Featurettes",
}

var seriesAssetNames = []string{
	"tvshow.nfo", "poster.jpg", "fanart.jpg", "banner.jpg",
	"logo.png", "clearlogo.png", "landscape.jpg",
}

// discoverAssociatedFiles finds sidecar files and asset directories that
// should travel with the primary video file: strict name matches in the
// same directory (Movie.en.srt, Movie.nfo), common assets and known
// subdirectories when the folder is private to the item, and series-level
// assets for episodes inside a Season folder.
func discoverAssociatedFiles(fs fsops.FS, sourceVideoPath, targetVideoPath, mediaType string) []AssociatedFile {
	sourceDir := filepath.Dir(sourceVideoPath)
	targetDir := filepath.Dir(targetVideoPath)
	if sourceDir == "" || targetDir == "" || !fsops.DirExists(fs, sourceDir) {
		return nil
	}

	sourceStem := stemOf(sourceVideoPath)
	targetStem := stemOf(targetVideoPath)

	var moves []AssociatedFile
	seen := func(path string) bool {
		for _, m := range moves {
			if pathcmp.Equal(m.SourcePath, path) {
				return true
			}
		}
		return false
	}

	entries, err := fs.ReadDir(sourceDir)
	if err == nil {
		for _, dirEntry := range entries {
			if dirEntry.IsDir() {
				continue
			}
			name := dirEntry.Name()
			path := filepath.Join(sourceDir, name)
			if pathcmp.Equal(path, sourceVideoPath) {
				continue
			}
			if len(name) > len(sourceStem) && strings.EqualFold(name[:len(sourceStem)], sourceStem) {
				suffix := name[len(sourceStem):]
				moves = append(moves, AssociatedFile{
					SourcePath: path,
					TargetPath: filepath.Join(targetDir, targetStem+suffix),
				})
			}
		}
	}

	if !isLikelyPrivateFolder(fs, sourceDir) {
		return moves
	}

	for _, name := range commonAssetNames {
		path := filepath.Join(sourceDir, name)
		if fsops.FileExists(fs, path) && !seen(path) {
			moves = append(moves, AssociatedFile{
				SourcePath: path,
				TargetPath: filepath.Join(targetDir, name),
			})
		}
	}

	for _, dir := range commonAssetDirs {
		path := filepath.Join(sourceDir, dir)
		if fsops.DirExists(fs, path) && !seen(path) {
			moves = append(moves, AssociatedFile{
				SourcePath: path,
				TargetPath: filepath.Join(targetDir, dir),
			})
		}
	}

	if strings.EqualFold(mediaType, StrategyEpisode) {
		seasonDirName := filepath.Base(sourceDir)
		if hasPrefixFold(seasonDirName, "Season") {
			seriesSourceDir := filepath.Dir(sourceDir)
			seriesTargetDir := filepath.Dir(targetDir)
			if seriesSourceDir != "" && seriesTargetDir != "" && isLikelyPrivateFolder(fs, seriesSourceDir) {
				for _, asset := range seriesAssetNames {
					path := filepath.Join(seriesSourceDir, asset)
					if fsops.FileExists(fs, path) && !seen(path) {
						moves = append(moves, AssociatedFile{
							SourcePath: path,
							TargetPath: filepath.Join(seriesTargetDir, asset),
						})
					}
				}
			}
		}
	}

	return moves
}

// isLikelyPrivateFolder reports whether a directory appears to belong to a
// single media item, so its assets are safe to move along.
func isLikelyPrivateFolder(fs fsops.FS, dir string) bool {
	name := filepath.Base(dir)
	if strings.TrimSpace(name) == "" {
		return false
	}

	if hasPrefixFold(name, "Season") ||
		strings.EqualFold(name, "Specials") ||
		strings.EqualFold(name, "Extras") ||
		strings.EqualFold(name, "Subs") ||
		strings.EqualFold(name, "Featurettes") ||
		strings.EqualFold(name, "Behind the Scenes") {
		return true
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return false
	}

	videoCount := 0
	hasSeasonDir := false
	for _, dirEntry := range entries {
		if dirEntry.IsDir() {
			if hasPrefixFold(dirEntry.Name(), "Season") {
				hasSeasonDir = true
			}
			continue
		}
		if likelyVideoExtensions[strings.ToLower(filepath.Ext(dirEntry.Name()))] {
			videoCount++
		}
	}

	if videoCount == 1 {
		return true
	}
	if videoCount == 0 {
		return hasSeasonDir
	}
	return false
}

var likelyVideoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".m4v": true,
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
