package scraper

import (
	"net/url"
	"strings"
)

// resolveURL makes href absolute against base. Unparseable input is
// returned as-is.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == "" {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}

	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}

// usableHref reports whether href points somewhere a crawler can follow.
func usableHref(href string) bool {
	href = strings.TrimSpace(href)
	return href != "" && !strings.HasPrefix(strings.ToLower(href), "javascript:")
}
