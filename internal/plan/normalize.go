package plan

import "strings"

// Characters never allowed in a path segment, across platforms.
const reservedSegmentChars = `<>:"/\|?*`

// NormalizeSegment strips filesystem-reserved characters from a path
// segment, collapses runs of whitespace, and trims trailing dots. An empty
// result becomes "Unknown" so a rendered path never loses a level.
func NormalizeSegment(segment string) string {
	if strings.TrimSpace(segment) == "" {
		return "Unknown"
	}

	var b strings.Builder
	b.Grow(len(segment))
	for _, ch := range segment {
		if ch < 0x20 || strings.ContainsRune(reservedSegmentChars, ch) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(ch)
	}

	collapsed := strings.Join(strings.Fields(b.String()), " ")
	trimmed := strings.Trim(strings.TrimSpace(collapsed), ".")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return "Unknown"
	}
	return trimmed
}
