package scan

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Regex patterns for filename token extraction.
var (
	seasonEpisodeRe = regexp.MustCompile(`(?i)(?:^|[\W_])(?:s(\d{1,2})[\W_]?e(\d{1,4})|(\d{1,2})x(\d{1,4}))(?:$|[\W_])`)
	yearRe          = regexp.MustCompile(`(?:^|[\W_])((?:19|20)\d{2})(?:$|[\W_])`)
	resolutionRe    = regexp.MustCompile(`(?i)(?:^|[\W_])(2160p|1080p|720p|480p|4k)(?:$|[\W_])`)
	videoCodecRe    = regexp.MustCompile(`(?i)(?:^|[\W_])(x264|x265|h264|h265|hevc|av1|xvid|vp9)(?:$|[\W_])`)
	audioCodecRe    = regexp.MustCompile(`(?i)(?:^|[\W_])(aac|ac3|eac3|dts(?:-hd)?|truehd|atmos|flac|opus)(?:$|[\W_])`)
	audioChannelsRe = regexp.MustCompile(`(?:^|[\W_])(2\.0|5\.1|7\.1)(?:$|[\W_])`)
	mediaSourceRe   = regexp.MustCompile(`(?i)(?:^|[\W_])(bluray|brrip|web-?dl|webrip|hdtv|dvdrip|remux)(?:$|[\W_])`)
	releaseGroupRe  = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
	crcTagRe        = regexp.MustCompile(`\[[0-9a-fA-F]{8}\]`)
	leadingTagRe    = regexp.MustCompile(`^[\[({][^\])}]*[\])}]\s*`)
	splitRe         = regexp.MustCompile(`[.\-_()\[\]\s]+`)
)

var ignoredFolders = map[string]bool{
	"movies":    true,
	"tv":        true,
	"media":     true,
	"organized": true,
	"incoming":  true,
	"downloads": true,
}

// ParseFilename derives a Suggestion from a candidate path using filename
// heuristics. The parent folder names (up to two levels) enrich the result
// when the filename alone doesn't carry a usable title or year.
func ParseFilename(path string) Suggestion {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	suggestion := parseStem(stem)

	dir := filepath.Dir(path)
	for level := 0; level < 2; level++ {
		parentName := filepath.Base(dir)
		dir = filepath.Dir(dir)
		if parentName == "" || parentName == "." || parentName == string(filepath.Separator) {
			break
		}
		if ignoredFolders[strings.ToLower(parentName)] {
			continue
		}

		parent := parseStem(parentName)
		if weakTitle(suggestion.SuggestedTitle) && !weakTitle(parent.SuggestedTitle) {
			suggestion.SuggestedTitle = parent.SuggestedTitle
		}
		if suggestion.SuggestedYear == nil {
			suggestion.SuggestedYear = parent.SuggestedYear
		}
		if suggestion.SuggestedMediaType == "unknown" && parent.SuggestedMediaType != "unknown" {
			suggestion.SuggestedMediaType = parent.SuggestedMediaType
		}
		if suggestion.SuggestedSeason == nil {
			suggestion.SuggestedSeason = parent.SuggestedSeason
		}
		if !weakTitle(suggestion.SuggestedTitle) && suggestion.SuggestedMediaType != "unknown" {
			break
		}
	}

	suggestion.Name = filepath.Base(path)
	suggestion.Path = path
	suggestion.Source = "heuristic"
	return suggestion
}

func parseStem(stem string) Suggestion {
	stem = crcTagRe.ReplaceAllString(stem, "")
	for {
		stripped := leadingTagRe.ReplaceAllString(stem, "")
		if stripped == stem {
			break
		}
		stem = stripped
	}

	suggestion := Suggestion{
		SuggestedTitle:     "Unknown Title",
		SuggestedMediaType: "unknown",
		Confidence:         0.4,
	}

	if m := resolutionRe.FindStringSubmatch(stem); m != nil {
		suggestion.Resolution = strings.ToLower(m[1])
	}
	if m := videoCodecRe.FindStringSubmatch(stem); m != nil {
		suggestion.VideoCodec = strings.ToLower(m[1])
	}
	if m := audioCodecRe.FindStringSubmatch(stem); m != nil {
		suggestion.AudioCodec = strings.ToLower(m[1])
	}
	if m := audioChannelsRe.FindStringSubmatch(stem); m != nil {
		suggestion.AudioChannels = m[1]
	}
	if m := mediaSourceRe.FindStringSubmatch(stem); m != nil {
		suggestion.MediaSource = strings.ToLower(strings.ReplaceAll(m[1], "-", ""))
	}
	if m := releaseGroupRe.FindStringSubmatch(stem); m != nil {
		suggestion.ReleaseGroup = m[1]
	}

	titleStem := stem

	if loc := seasonEpisodeRe.FindStringSubmatchIndex(stem); loc != nil {
		m := seasonEpisodeRe.FindStringSubmatch(stem)
		suggestion.SuggestedMediaType = "episode"
		suggestion.Confidence += 0.35
		if m[1] != "" && m[2] != "" {
			suggestion.SuggestedSeason = atoiPtr(m[1])
			suggestion.SuggestedEpisode = atoiPtr(m[2])
		} else if m[3] != "" && m[4] != "" {
			suggestion.SuggestedSeason = atoiPtr(m[3])
			suggestion.SuggestedEpisode = atoiPtr(m[4])
		}
		titleStem = stem[:loc[0]]
	}

	if m := yearRe.FindStringSubmatch(titleStem); m != nil {
		suggestion.SuggestedYear = atoiPtr(m[1])
		if suggestion.SuggestedMediaType == "unknown" {
			suggestion.SuggestedMediaType = "movie"
			suggestion.Confidence += 0.2
		}
		// The year and everything after it is release metadata, not title.
		if idx := strings.Index(titleStem, m[1]); idx > 0 {
			titleStem = titleStem[:idx]
		}
	}

	if title := cleanTitle(titleStem); title != "" {
		suggestion.SuggestedTitle = title
		suggestion.Confidence += 0.1
	}

	if suggestion.Confidence > 1 {
		suggestion.Confidence = 1
	}
	return suggestion
}

func cleanTitle(stem string) string {
	words := splitRe.Split(stem, -1)
	var kept []string
	for _, word := range words {
		if word == "" || junkWords[strings.ToLower(word)] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func weakTitle(title string) bool {
	if title == "Unknown Title" || len(title) < 3 {
		return true
	}
	_, err := strconv.Atoi(title)
	return err == nil
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

var junkWords = map[string]bool{
	"1080p": true, "720p": true, "2160p": true, "480p": true, "4k": true,
	"bluray": true, "brrip": true, "webrip": true, "webdl": true, "web": true,
	"dl": true, "hdtv": true, "dvdrip": true, "remux": true,
	"x264": true, "x265": true, "h264": true, "h265": true, "hevc": true,
	"av1": true, "xvid": true, "divx": true,
	"aac": true, "ac3": true, "eac3": true, "dts": true, "truehd": true,
	"atmos": true, "flac": true, "opus": true,
	"proper": true, "repack": true, "internal": true, "limited": true,
	"extended": true, "unrated": true, "uhd": true, "hdr": true, "dovi": true,
	"10bit": true, "8bit": true, "multi": true, "dual": true, "audio": true,
	"complete": true, "pack": true,
}
