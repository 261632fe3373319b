package scraper

import (
	"regexp"
	"slices"
	"strings"

	"pagecrawl/internal/dom"
	"pagecrawl/internal/normalize"
)

const (
	// texts shorter than this are ignored as title candidates
	minTitleLen = 6
	maxTitleLen = 100

	maxShortText = 30
	siblingReach = 5

	minTypeLen = 2
	maxTypeLen = 15
)

// a leading bracketed label, or whatever precedes the first separator
var typePrefix = regexp.MustCompile(`^(?:([【\[(].*?[】\])])|([^|:：]*?)\s*[|:：])`)

const typeCutset = "【】[]() |:："

type fallbackInput struct {
	container dom.Node
	attr      string
	category  Category
}

// fallbackOutcome carries either an element to read the usual way or a
// final value. Both empty means nothing was found.
type fallbackOutcome struct {
	element dom.Node
	attr    string
	value   string
}

type fallbackFunc func(e *Extractor, in fallbackInput) fallbackOutcome

// Checked in order; the first entry listing the category wins.
var heuristics = []struct {
	categories []Category
	run        fallbackFunc
}{
	{categories: []Category{CategoryLink, CategoryTitle}, run: anchorFallback},
	{categories: []Category{CategoryDate}, run: dateFallback},
	{categories: []Category{CategoryType}, run: typeFallback},
}

func heuristicFor(c Category) fallbackFunc {
	for _, h := range heuristics {
		if slices.Contains(h.categories, c) {
			return h.run
		}
	}
	return nil
}

func anchorFallback(_ *Extractor, in fallbackInput) fallbackOutcome {
	anchors := in.container.FindAll("a")
	withHref := make([]dom.Node, 0, len(anchors))
	for _, a := range anchors {
		if _, ok := a.Attr("href"); ok {
			withHref = append(withHref, a)
		}
	}
	if len(withHref) > 0 {
		anchors = withHref
	}

	if len(anchors) == 0 {
		return fallbackOutcome{value: longestPlainText(in.container)}
	}

	if in.category == CategoryLink {
		for _, a := range anchors {
			if href, _ := a.Attr("href"); usableHref(href) {
				return fallbackOutcome{element: a, attr: "href"}
			}
		}
		return fallbackOutcome{element: anchors[0], attr: "href"}
	}

	best, bestLen := anchors[0], -1
	for _, a := range anchors {
		if n := normalize.RuneLen(a.Text("")); n > bestLen {
			best, bestLen = a, n
		}
	}
	return fallbackOutcome{element: best, attr: in.attr}
}

// longestPlainText picks the longest text node that does not look like a date.
func longestPlainText(container dom.Node) string {
	best := ""
	for _, s := range container.Strings() {
		s = strings.TrimSpace(s)
		n := normalize.RuneLen(s)
		if n < minTitleLen || n >= maxTitleLen || normalize.IsDateLike(s) {
			continue
		}
		if n > normalize.RuneLen(best) {
			best = s
		}
	}
	return best
}

func dateFallback(_ *Extractor, in fallbackInput) fallbackOutcome {
	c := in.container

	if d := firstShortDate(c.FindAll("span")); d != "" {
		return fallbackOutcome{value: d}
	}
	if d := firstShortDate(c.FindAll("div", "time", "p", "font", "b")); d != "" {
		return fallbackOutcome{value: d}
	}
	if d := normalize.ExtractDate(c.Text(" ")); d != "" {
		return fallbackOutcome{value: d}
	}

	for _, sib := range c.NextSiblings(siblingReach) {
		if d := normalize.ExtractDate(sib.RawText()); d != "" {
			return fallbackOutcome{value: d}
		}
	}
	for _, sib := range c.PreviousSiblings(siblingReach) {
		if d := normalize.ExtractDate(sib.RawText()); d != "" {
			return fallbackOutcome{value: d}
		}
	}

	parent := c.Parent()
	if parent == nil {
		return fallbackOutcome{}
	}
	if d := normalize.ExtractDate(parent.Text(" ")); d != "" {
		return fallbackOutcome{value: d}
	}
	if grand := parent.Parent(); grand != nil {
		if d := normalize.ExtractDate(grand.Text(" ")); d != "" {
			return fallbackOutcome{value: d}
		}
	}
	return fallbackOutcome{}
}

func firstShortDate(nodes []dom.Node) string {
	for _, n := range nodes {
		text := n.Text("")
		if normalize.RuneLen(text) >= maxShortText {
			continue
		}
		if d := normalize.ExtractDate(text); d != "" {
			return d
		}
	}
	return ""
}

func typeFallback(e *Extractor, in fallbackInput) fallbackOutcome {
	text := in.container.Text(" ")

	if m := typePrefix.FindStringSubmatch(text); m != nil {
		label := m[1]
		if label == "" {
			label = m[2]
		}
		label = strings.Trim(label, typeCutset)
		if n := normalize.RuneLen(label); n >= minTypeLen && n < maxTypeLen {
			return fallbackOutcome{value: label}
		}
	}

	for _, term := range e.vocab.TypeTerms {
		if term != "" && strings.Contains(text, term) {
			return fallbackOutcome{value: term}
		}
	}
	return fallbackOutcome{}
}
