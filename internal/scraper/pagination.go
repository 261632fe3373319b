package scraper

import (
	"strings"

	"pagecrawl/internal/dom"
)

// Detector finds the next-page link of a listing page.
type Detector struct {
	vocab *Vocabulary
}

func NewDetector(vocab *Vocabulary) *Detector {
	return &Detector{vocab: vocab}
}

// FindNext returns the absolute URL of the next page, or "" when the page
// has none. A configured next selector is authoritative: when it matches
// no usable link the page is the last one. Without it the detection stages
// run in order and a stage that yields nothing falls through:
//
//  1. anchors whose text contains a next-page keyword
//  2. well-known next-link selectors
//  3. the last link inside a pagination container
func (d *Detector) FindNext(page dom.Node, currentURL string, cfg PaginationConfig) string {
	if !cfg.Enabled {
		return ""
	}

	if sel := strings.TrimSpace(cfg.NextSelector); sel != "" {
		if href := firstUsableHref(page, sel); href != "" {
			return resolveURL(currentURL, href)
		}
		return ""
	}

	anchors := page.FindAll("a")
	for _, kw := range d.vocab.NextPageKeywords {
		if kw == "" {
			continue
		}
		for _, a := range anchors {
			if !strings.Contains(a.Text(""), kw) {
				continue
			}
			if href, _ := a.Attr("href"); usableHref(href) {
				return resolveURL(currentURL, href)
			}
		}
	}

	for _, sel := range d.vocab.NextPageSelectors {
		if href := firstUsableHref(page, sel); href != "" {
			return resolveURL(currentURL, href)
		}
	}

	if len(d.vocab.PaginationContainers) == 0 {
		return ""
	}
	containers, err := page.SelectAll(strings.Join(d.vocab.PaginationContainers, ", "))
	if err != nil {
		return ""
	}
	for _, c := range containers {
		if href := lastUsableHref(c.FindAll("a")); href != "" {
			return resolveURL(currentURL, href)
		}
	}
	return ""
}

func firstUsableHref(page dom.Node, sel string) string {
	nodes, err := page.SelectAll(sel)
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if href, _ := n.Attr("href"); usableHref(href) {
			return strings.TrimSpace(href)
		}
	}
	return ""
}

func lastUsableHref(anchors []dom.Node) string {
	for i := len(anchors) - 1; i >= 0; i-- {
		if href, _ := anchors[i].Attr("href"); usableHref(href) {
			return strings.TrimSpace(href)
		}
	}
	return ""
}
