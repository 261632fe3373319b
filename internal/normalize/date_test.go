package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"iso inside text", "发布日期：2025-03-04 来源：xx", "2025-03-04"},
		{"dotted", "2025.01.09", "2025.01.09"},
		{"slashed short", "posted 2025/1/9 by admin", "2025/1/9"},
		{"cjk full", "2024年12月5日 星期四", "2024年12月5日"},
		{"bracketed", "[ 2025-01-09 ]", "2025-01-09"},
		{"day first", "09-01-2025", "09-01-2025"},
		{"cjk month day", "12月5日", "12月5日"},
		{"days ago", "3天前", "3天前"},
		{"yesterday", "发布于昨天", "昨天"},
		{"hours ago", "5小时前", "5小时前"},
		{"english month", "Updated Jan 9, 2025", "Jan 9, 2025"},
		{"english long month", "December 25 2024", "December 25 2024"},
		{"compact", "id 20250109", "20250109"},
		{"none", "no date here", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDate(tt.text))
		})
	}
}

func TestExtractDate_FirstPatternWins(t *testing.T) {
	// year-first beats the compact and relative forms that also appear
	assert.Equal(t, "2025-01-09", ExtractDate("20240101 3天前 2025-01-09"))
}

func TestIsDateLike(t *testing.T) {
	assert.True(t, IsDateLike("2025-01-09"))
	assert.True(t, IsDateLike("今天"))
	assert.False(t, IsDateLike("关于开展专项检查的通知"))
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"dotted", "2025.1.9", "2025-01-09"},
		{"slashed", "2025/12/31", "2025-12-31"},
		{"already canonical", "2025-01-09", "2025-01-09"},
		{"with time", "2025-01-09 10:30", "2025-01-09"},
		{"cjk", "2024年3月5日", "2024-03-05"},
		{"day first", "9-1-2025", "2025-01-09"},
		{"embedded", "发布时间: 2025.03.04", "2025-03-04"},
		{"relative untouched", "3天前", "3天前"},
		{"month day untouched", "12月5日", "12月5日"},
		{"english untouched", "Jan 9, 2025", "Jan 9, 2025"},
		{"out of range untouched", "2025-13-45", "2025-13-45"},
		{"trimmed", "  今天 ", "今天"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.value))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	for _, v := range []string{"2025.1.9", "2024年3月5日", "9/1/2025", "昨天", "junk"} {
		once := Canonicalize(v)
		assert.Equal(t, once, Canonicalize(once), v)
	}
}
