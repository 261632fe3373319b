package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"

	"pagecrawl/internal/normalize"
	"pagecrawl/internal/scraper"
)

// CrawlResult is the outcome of one invocation. On failure Data is always
// empty; partial records are discarded.
type CrawlResult struct {
	Success      bool
	Data         []*scraper.Record
	Count        int
	PagesCrawled int
	StopReason   string
	Error        string
	Trace        string

	RunID     string
	StartedAt time.Time
}

type successJSON struct {
	Success      bool              `json:"success"`
	Data         []*scraper.Record `json:"data"`
	Count        int               `json:"count"`
	PagesCrawled int               `json:"pages_crawled"`
}

type failureJSON struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Trace   string `json:"trace"`
}

func (r *CrawlResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(failureJSON{Error: r.Error, Trace: r.Trace})
	}
	data := r.Data
	if data == nil {
		data = []*scraper.Record{}
	}
	return json.Marshal(successJSON{
		Success:      true,
		Data:         data,
		Count:        r.Count,
		PagesCrawled: r.PagesCrawled,
	})
}

func failedResult(runID string, startedAt time.Time, err error) *CrawlResult {
	return &CrawlResult{
		RunID:     runID,
		StartedAt: startedAt,
		Error:     err.Error(),
		Trace:     traceOf(err),
	}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// traceOf appends the first stack found in the chain of err.
func traceOf(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		return fmt.Sprintf("%s%+v", err.Error(), st.StackTrace())
	}
	return fmt.Sprintf("%+v", err)
}

// finalize drops blank records and canonicalizes date fields.
func finalize(records []*scraper.Record, vocab *scraper.Vocabulary) []*scraper.Record {
	out := make([]*scraper.Record, 0, len(records))
	for _, rec := range records {
		if rec.IsBlank() {
			continue
		}
		for _, name := range rec.Names() {
			if vocab.Classify(name) != scraper.CategoryDate {
				continue
			}
			if v := rec.Get(name); v != "" {
				rec.Set(name, normalize.Canonicalize(v))
			}
		}
		out = append(out, rec)
	}
	return out
}
