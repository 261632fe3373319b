// Package dom is the document query capability used by the extraction engine.
//
// Selectors are CSS (goquery/cascadia) unless prefixed with "xpath:", in which
// case they are evaluated by htmlquery against the same tree.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// XPathPrefix marks a selector as an XPath expression.
const XPathPrefix = "xpath:"

// Node is one element (or the document root) of a parsed page.
type Node interface {
	// SelectOne returns the first descendant matching selector, or nil.
	SelectOne(selector string) (Node, error)
	// SelectAll returns all descendants matching selector in document order.
	SelectAll(selector string) ([]Node, error)
	// FindAll returns descendant elements with one of the given tag names.
	FindAll(tags ...string) []Node
	// Attr returns the raw attribute value.
	Attr(name string) (string, bool)
	// Text joins trimmed, non-empty descendant text nodes with sep.
	Text(sep string) string
	// RawText concatenates descendant text nodes untouched.
	RawText() string
	// Strings returns every descendant text node, untrimmed.
	Strings() []string
	// HTML renders the inner markup.
	HTML() (string, error)
	Parent() Node
	// NextSiblings returns up to limit following sibling nodes in document
	// order. Text and comment nodes count toward limit. limit <= 0 means all.
	NextSiblings(limit int) []Node
	// PreviousSiblings is NextSiblings in reverse, nearest first.
	PreviousSiblings(limit int) []Node
}

// text of these elements is not page content
var skipText = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
}

type htmlNode struct {
	n *html.Node
}

// Parse builds a query-capable tree from UTF-8 markup.
func Parse(r io.Reader) (Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &htmlNode{n: root}, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(markup string) (Node, error) {
	return Parse(strings.NewReader(markup))
}

func (h *htmlNode) query(selector string) ([]*html.Node, error) {
	selector = strings.TrimSpace(selector)
	if expr, ok := strings.CutPrefix(selector, XPathPrefix); ok {
		nodes, err := htmlquery.QueryAll(h.n, strings.TrimSpace(expr))
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
		}
		return nodes, nil
	}

	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return goquery.NewDocumentFromNode(h.n).FindMatcher(matcher).Nodes, nil
}

func (h *htmlNode) SelectOne(selector string) (Node, error) {
	nodes, err := h.query(selector)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &htmlNode{n: nodes[0]}, nil
}

func (h *htmlNode) SelectAll(selector string) ([]Node, error) {
	nodes, err := h.query(selector)
	if err != nil {
		return nil, err
	}
	return wrapAll(nodes), nil
}

func (h *htmlNode) FindAll(tags ...string) []Node {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}

	var out []Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && want[c.Data] {
				out = append(out, &htmlNode{n: c})
			}
			walk(c)
		}
	}
	walk(h.n)
	return out
}

func (h *htmlNode) Attr(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range h.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (h *htmlNode) Text(sep string) string {
	parts := make([]string, 0, 8)
	for _, s := range h.Strings() {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

func (h *htmlNode) RawText() string {
	return strings.Join(h.Strings(), "")
}

func (h *htmlNode) Strings() []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			out = append(out, n.Data)
			return
		case html.ElementNode:
			if skipText[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(h.n)
	return out
}

func (h *htmlNode) HTML() (string, error) {
	var buf bytes.Buffer
	for c := h.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render HTML: %w", err)
		}
	}
	return buf.String(), nil
}

func (h *htmlNode) Parent() Node {
	if h.n.Parent == nil {
		return nil
	}
	return &htmlNode{n: h.n.Parent}
}

func (h *htmlNode) NextSiblings(limit int) []Node {
	var out []Node
	for s := h.n.NextSibling; s != nil; s = s.NextSibling {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, &htmlNode{n: s})
	}
	return out
}

func (h *htmlNode) PreviousSiblings(limit int) []Node {
	var out []Node
	for s := h.n.PrevSibling; s != nil; s = s.PrevSibling {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, &htmlNode{n: s})
	}
	return out
}

func wrapAll(nodes []*html.Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &htmlNode{n: n})
	}
	return out
}
