package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"pagecrawl/internal/dom"
	"pagecrawl/internal/normalize"
	"pagecrawl/internal/scraper"
	"pagecrawl/internal/selector"
)

const (
	maxSamples        = 5
	samplePreviewLen  = 100
	defaultPreviewMax = 10
)

// SelectorValidation reports what a selector matches on one page.
type SelectorValidation struct {
	Valid   bool     `json:"valid"`
	Count   int      `json:"count"`
	Samples []string `json:"samples"`
	Error   string   `json:"error,omitempty"`
}

// ValidateSelector fetches source and evaluates raw (suffixes allowed)
// against it. Samples are attribute values, sanitized HTML or text,
// whitespace-collapsed and cut to a short preview.
func (o *Orchestrator) ValidateSelector(ctx context.Context, source, raw string) *SelectorValidation {
	out := &SelectorValidation{Samples: []string{}}

	sel := selector.Parse(raw)
	if !sel.HasBase() {
		out.Error = "selector is empty"
		return out
	}

	resp, err := o.fetcher.Fetch(ctx, source, o.fetcher.NewIdentity(source))
	if err != nil {
		o.logger.Warn("Selector validation fetch failed", "source", source, "error", err.Error())
		out.Error = fmt.Sprintf("fetch %s: %v", source, err)
		return out
	}
	o.metrics.PagesFetched.WithLabelValues(resp.Kind).Inc()

	page, err := dom.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		out.Error = err.Error()
		return out
	}

	nodes, err := page.SelectAll(sel.Base)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	out.Valid = true
	out.Count = len(nodes)

	extractor := scraper.NewExtractor(o.vocab)
	for _, n := range nodes {
		if len(out.Samples) >= maxSamples {
			break
		}
		out.Samples = append(out.Samples, sample(extractor, n, sel))
	}

	o.logger.Info("Selector validated", "source", source, "selector", raw, "count", out.Count)
	return out
}

func sample(e *scraper.Extractor, n dom.Node, sel selector.Parsed) string {
	var text string
	switch {
	case sel.Attr != "":
		text, _ = n.Attr(sel.Attr)
	case sel.Mode == selector.ModeHTML:
		text = e.HTML(n, "sample").Value
	default:
		text = n.Text(" ")
	}
	return normalize.TruncatePreview(normalize.CollapseSpaces(strings.TrimSpace(text)), samplePreviewLen)
}

// Preview crawls the first page of job only and keeps at most limit
// records (10 when limit <= 0).
func (o *Orchestrator) Preview(ctx context.Context, job scraper.Job, limit int) *CrawlResult {
	if limit <= 0 {
		limit = defaultPreviewMax
	}
	job.Pagination.Enabled = false
	return o.Run(ctx, &job, WithLimit(limit))
}
