package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var spaceRun = regexp.MustCompile(`\s+`)

// RuneLen counts characters, not bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// CollapseSpaces folds whitespace runs (NBSP included) into single spaces.
func CollapseSpaces(text string) string {
	text = strings.ReplaceAll(text, "\u00A0", " ")
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// TruncatePreview cuts text to maxChars characters at the last space.
func TruncatePreview(text string, maxChars int) string {
	if maxChars <= 0 || RuneLen(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	truncated := string(runes[:maxChars-1])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}
	return truncated + "…"
}
