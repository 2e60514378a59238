package plan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/curator/internal/scan"
)

// movieTokens builds the token table for movie templates.
func movieTokens(title string, year *int, s scan.Suggestion) map[string]string {
	titleWithYear := title
	yearValue := ""
	if year != nil {
		titleWithYear = fmt.Sprintf("%s (%d)", title, *year)
		yearValue = fmt.Sprintf("%d", *year)
	}
	tokens := extraTokens(s)
	tokens["title"] = title
	tokens["titlewithyear"] = titleWithYear
	tokens["year"] = yearValue
	return tokens
}

// episodeTokens builds the token table for episode templates.
func episodeTokens(title string, season, episode int, s scan.Suggestion) map[string]string {
	tokens := extraTokens(s)
	tokens["title"] = title
	tokens["season"] = fmt.Sprintf("%d", season)
	tokens["season2"] = fmt.Sprintf("%02d", season)
	tokens["episode"] = fmt.Sprintf("%d", episode)
	tokens["episode2"] = fmt.Sprintf("%02d", episode)
	return tokens
}

func extraTokens(s scan.Suggestion) map[string]string {
	return map[string]string{
		"resolution":    s.Resolution,
		"videocodec":    s.VideoCodec,
		"videobitdepth": s.VideoBitDepth,
		"audiocodec":    s.AudioCodec,
		"audiochannels": s.AudioChannels,
		"releasegroup":  s.ReleaseGroup,
		"mediasource":   s.MediaSource,
		"edition":       s.Edition,
	}
}

// resolveTemplateTokens substitutes {Token} placeholders. Token names are
// case-insensitive. An unknown token, empty token, or unclosed brace fails
// the whole render.
func resolveTemplateTokens(template string, tokens map[string]string) (string, bool) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		if template[i] != '{' {
			b.WriteByte(template[i])
			i++
			continue
		}

		close := strings.IndexByte(template[i+1:], '}')
		if close < 0 {
			return "", false
		}
		close += i + 1

		token := strings.ToLower(strings.TrimSpace(template[i+1 : close]))
		value, ok := tokens[token]
		if token == "" || !ok {
			return "", false
		}

		b.WriteString(value)
		i = close + 1
	}

	return b.String(), true
}

// renderRelativePath renders a path template into a cleaned relative path.
// Returns false when the template is empty, a token is unknown, or every
// segment normalizes away.
func renderRelativePath(template string, tokens map[string]string, normalizeSegments bool) (string, bool) {
	if strings.TrimSpace(template) == "" {
		return "", false
	}

	rendered, ok := resolveTemplateTokens(template, tokens)
	if !ok {
		return "", false
	}

	raw := strings.FieldsFunc(strings.ReplaceAll(rendered, `\`, "/"), func(r rune) bool {
		return r == '/'
	})
	segments := make([]string, 0, len(raw))
	for _, segment := range raw {
		if normalizeSegments {
			segment = NormalizeSegment(segment)
		} else {
			segment = strings.TrimSpace(strings.Trim(strings.TrimSpace(segment), "."))
		}
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		return "", false
	}

	relative := filepath.Join(segments...)
	relative = cleanRenderedPath(relative)
	if relative == "" {
		return "", false
	}
	return relative, true
}

// cleanRenderedPath removes the debris missing optional tokens leave behind,
// e.g. "Movie (2024) []" becomes "Movie (2024)".
func cleanRenderedPath(path string) string {
	for _, empty := range []string{"[]", "()", "[ ]", "( )"} {
		path = strings.ReplaceAll(path, empty, "")
	}
	for strings.Contains(path, "  ") {
		path = strings.ReplaceAll(path, "  ", " ")
	}
	path = strings.ReplaceAll(path, " .", ".")
	path = strings.ReplaceAll(path, " /", "/")
	path = strings.ReplaceAll(path, ` \`, `\`)
	return strings.TrimSpace(path)
}

// RenderTestTemplate renders a template against a sample suggestion without
// touching the plan or the filesystem. Used by the test-template command.
func RenderTestTemplate(template string, s scan.Suggestion, normalizeSegments bool) (string, error) {
	title := strings.TrimSpace(s.SuggestedTitle)
	if normalizeSegments {
		title = NormalizeSegment(title)
	}
	if title == "" {
		title = "Unknown Title"
	}

	var tokens map[string]string
	switch strings.ToLower(s.SuggestedMediaType) {
	case StrategyEpisode:
		season, episode := 1, 1
		if s.SuggestedSeason != nil {
			season = *s.SuggestedSeason
		}
		if s.SuggestedEpisode != nil {
			episode = *s.SuggestedEpisode
		}
		tokens = episodeTokens(title, season, episode, s)
	default:
		tokens = movieTokens(title, s.SuggestedYear, s)
	}

	rendered, ok := renderRelativePath(template, tokens, normalizeSegments)
	if !ok {
		return "", fmt.Errorf("template %q did not render: unknown token or empty result", template)
	}
	return rendered, nil
}
