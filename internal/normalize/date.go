package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Order matters: the first matching pattern wins.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}[-/.]\d{1,2}[-/.]\d{1,2}`),
	regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}日`),
	regexp.MustCompile(`\[\s*\d{4}[-/.]\d{1,2}[-/.]\d{1,2}\s*\]`),
	regexp.MustCompile(`\d{1,2}[-/.]\d{1,2}[-/.]\d{4}`),
	regexp.MustCompile(`\d{1,2}月\d{1,2}日`),
	regexp.MustCompile(`\d{1,2}天前`),
	regexp.MustCompile(`昨天|今天|前天`),
	regexp.MustCompile(`\d{1,2}小时前`),
	regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}`),
	regexp.MustCompile(`\d{8}`),
}

type dateOrder int

const (
	yearFirst dateOrder = iota
	dayFirst
)

var canonicalShapes = []struct {
	re    *regexp.Regexp
	order dateOrder
}{
	{regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`), yearFirst},
	{regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`), yearFirst},
	{regexp.MustCompile(`(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})`), dayFirst},
}

// stripped from both ends of a matched date
const dateCutset = "[] "

// ExtractDate returns the first date-looking substring of text, or "".
// Matches are stripped of surrounding brackets and spaces.
func ExtractDate(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range datePatterns {
		if m := re.FindString(text); m != "" {
			return strings.Trim(m, dateCutset)
		}
	}
	return ""
}

// IsDateLike reports whether text contains anything ExtractDate would pick up.
func IsDateLike(text string) bool {
	return ExtractDate(text) != ""
}

// Canonicalize rewrites a year-month-day, CJK or day-month-year date found
// anywhere in value as YYYY-MM-DD. Values without such a date, or with an
// out-of-range month or day, come back trimmed but otherwise unchanged.
func Canonicalize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	for _, shape := range canonicalShapes {
		m := shape.re.FindStringSubmatch(value)
		if m == nil {
			continue
		}

		year, month, day := m[1], m[2], m[3]
		if shape.order == dayFirst {
			year, day = m[3], m[1]
		}

		if out, ok := formatDate(year, month, day); ok {
			return out
		}
	}
	return value
}

func formatDate(year, month, day string) (string, bool) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", year, m, d), true
}
