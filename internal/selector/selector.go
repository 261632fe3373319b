// Package selector splits a field selector string into its query part and
// its extraction suffixes.
package selector

import (
	"regexp"
	"strings"
)

// Mode controls how a matched element is turned into a value.
type Mode int

const (
	// ModeText reads the element's visible text. This is the default.
	ModeText Mode = iota
	// ModeHTML reads the element's sanitized inner markup.
	ModeHTML
)

const (
	htmlSuffix  = "::html"
	textSuffix  = "::text"
	firstOfType = ":first-of-type"
)

var attrSuffix = regexp.MustCompile(`(.*?)::attr\((.*?)\)`)

// Parsed is a selector split into its parts. A zero Parsed means "no selector".
type Parsed struct {
	Base string
	Attr string
	Mode Mode
}

// HasBase reports whether there is a query to run.
func (p Parsed) HasBase() bool {
	return p.Base != ""
}

// Parse splits raw into base selector, attribute and mode.
//
//	"a::attr(href)"        -> base "a", attr "href"
//	"li:first-of-type a"   -> base "li a"
//	"div.body::html"       -> base "div.body", html mode
//
// Anything following the closing parenthesis of ::attr(...) is dropped.
// Never fails; an empty string yields a zero Parsed.
func Parse(raw string) Parsed {
	sel := strings.TrimSpace(raw)
	if sel == "" {
		return Parsed{}
	}

	var p Parsed
	switch {
	case strings.HasSuffix(sel, htmlSuffix):
		p.Mode = ModeHTML
		sel = strings.TrimSuffix(sel, htmlSuffix)
	case strings.HasSuffix(sel, textSuffix):
		sel = strings.TrimSuffix(sel, textSuffix)
	}

	if strings.Contains(sel, "::attr(") {
		if m := attrSuffix.FindStringSubmatch(sel); m != nil {
			sel = m[1]
			p.Attr = strings.TrimSpace(m[2])
		}
	}

	sel = strings.ReplaceAll(sel, firstOfType, "")
	p.Base = strings.TrimSpace(sel)
	return p
}
