package app

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"pagecrawl/internal/config"
	"pagecrawl/internal/dom"
	"pagecrawl/internal/fetcher"
	"pagecrawl/internal/observability"
	"pagecrawl/internal/scraper"
)

// PageFetcher loads one page source. *fetcher.Fetcher implements it.
type PageFetcher interface {
	NewIdentity(referer string) fetcher.Identity
	Fetch(ctx context.Context, source string, id fetcher.Identity) (*fetcher.FetchResponse, error)
}

type Orchestrator struct {
	cfg      *config.Config
	logger   *observability.Logger
	fetcher  PageFetcher
	metrics  *observability.Metrics
	vocab    *scraper.Vocabulary
	detector *scraper.Detector
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	f PageFetcher,
	metrics *observability.Metrics,
) *Orchestrator {
	vocab := cfg.Vocabulary.WithDefaults()
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		fetcher:  f,
		metrics:  metrics,
		vocab:    &vocab,
		detector: scraper.NewDetector(&vocab),
	}
}

type PaginationStats struct {
	TotalPages    int
	TotalRecords  int
	StoppedReason string
}

type runOptions struct {
	limit int
}

type RunOption func(*runOptions)

// WithLimit keeps only the first n records of the result.
func WithLimit(n int) RunOption {
	return func(o *runOptions) { o.limit = n }
}

// Run performs one crawl, fetching pages in turn until pagination stops.
// Never panics; every failure comes back as an unsuccessful CrawlResult.
func (o *Orchestrator) Run(ctx context.Context, job *scraper.Job, opts ...RunOption) (result *CrawlResult) {
	ro := runOptions{}
	for _, opt := range opts {
		opt(&ro)
	}

	runID := uuid.NewString()
	startedAt := time.Now().UTC()
	log := o.logger.With("run_id", runID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Crawl panicked", "panic", fmt.Sprint(r))
			result = &CrawlResult{
				RunID:     runID,
				StartedAt: startedAt,
				Error:     fmt.Sprintf("panic: %v", r),
				Trace:     string(debug.Stack()),
			}
		}

		o.metrics.CrawlDuration.Observe(time.Since(startedAt).Seconds())
		if result.Success {
			o.metrics.Records.Add(float64(result.Count))
		} else {
			o.metrics.CrawlFailures.Inc()
		}
	}()

	if err := job.Validate(); err != nil {
		log.Error("Invalid job", "error", err.Error())
		return failedResult(runID, startedAt, pkgerrors.Wrap(err, "invalid job"))
	}

	records, stats, err := o.crawl(ctx, job, log)
	if err != nil {
		log.Error("Crawl failed",
			"source", job.Source,
			"pages", stats.TotalPages,
			"reason", stats.StoppedReason,
			"error", err.Error(),
		)
		return failedResult(runID, startedAt, err)
	}

	records = finalize(records, o.vocab)
	if ro.limit > 0 && len(records) > ro.limit {
		records = records[:ro.limit]
	}

	log.Info("Crawl completed",
		"source", job.Source,
		"pages", stats.TotalPages,
		"extracted", stats.TotalRecords,
		"records", len(records),
		"reason", stats.StoppedReason,
		"duration", time.Since(startedAt).String(),
	)

	return &CrawlResult{
		Success:      true,
		Data:         records,
		Count:        len(records),
		PagesCrawled: stats.TotalPages,
		StopReason:   stats.StoppedReason,
		RunID:        runID,
		StartedAt:    startedAt,
	}
}

func (o *Orchestrator) crawl(ctx context.Context, job *scraper.Job, log *observability.Logger) ([]*scraper.Record, *PaginationStats, error) {
	stats := &PaginationStats{}

	maxPages := job.Pagination.MaxPages
	if maxPages <= 0 {
		maxPages = o.cfg.Pagination.DefaultMaxPages
	}

	s := scraper.NewScraper(job.Selectors, o.vocab, scraper.WithFieldHook(o.fieldHook(log)))
	identity := o.fetcher.NewIdentity(job.ReferenceURL())

	currentURL := job.Source
	baseURL := job.ReferenceURL()
	var records []*scraper.Record

	log.Info("Starting crawl",
		"source", job.Source,
		"base_url", baseURL,
		"pagination", job.Pagination.Enabled,
		"max_pages", maxPages,
		"user_agent", identity.UserAgent,
	)

	for {
		pageNum := stats.TotalPages + 1
		if err := ctx.Err(); err != nil {
			stats.StoppedReason = fmt.Sprintf("canceled before page %d", pageNum)
			return nil, stats, fmt.Errorf("crawl canceled: %w", err)
		}

		log.Info("Processing page", "page", pageNum, "url", currentURL)

		resp, err := o.fetcher.Fetch(ctx, currentURL, identity)
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("fetch error at page %d", pageNum)
			return nil, stats, fmt.Errorf("fetch page %d: %w", pageNum, err)
		}
		o.metrics.PagesFetched.WithLabelValues(resp.Kind).Inc()
		stats.TotalPages++

		page, err := dom.Parse(bytes.NewReader(resp.Body))
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("parse error at page %d", pageNum)
			return nil, stats, pkgerrors.Wrapf(err, "parse page %d", pageNum)
		}

		items, err := s.ExtractPage(page, baseURL)
		if err != nil {
			stats.StoppedReason = fmt.Sprintf("extract error at page %d", pageNum)
			return nil, stats, pkgerrors.Wrapf(err, "extract page %d", pageNum)
		}
		records = append(records, items...)
		stats.TotalRecords += len(items)

		log.Info("Page extracted", "page", pageNum, "url", resp.URL, "items", len(items))

		if !job.Pagination.Enabled {
			stats.StoppedReason = "pagination disabled"
			break
		}
		if stats.TotalPages >= maxPages {
			stats.StoppedReason = fmt.Sprintf("reached max pages %d", maxPages)
			break
		}

		next := o.detector.FindNext(page, baseURL, job.Pagination)
		if next == "" {
			stats.StoppedReason = fmt.Sprintf("no next link at page %d", pageNum)
			break
		}
		if next == currentURL {
			stats.StoppedReason = fmt.Sprintf("next link repeats page %d", pageNum)
			break
		}

		log.Debug("Next URL extracted", "page", pageNum, "next_url", next)
		currentURL, baseURL = next, next
	}

	log.Info("Pagination completed",
		"total_pages", stats.TotalPages,
		"total_records", stats.TotalRecords,
		"reason", stats.StoppedReason,
	)
	return records, stats, nil
}

func (o *Orchestrator) fieldHook(log *observability.Logger) scraper.FieldHook {
	return func(field string, category scraper.Category, res scraper.FieldResult) {
		switch {
		case !res.OK():
			o.metrics.FieldErrors.Inc()
			log.Debug("Field extraction failed", "field", field, "error", res.Err.Error())
		case res.Source == scraper.SourceHeuristic:
			o.metrics.FieldFallbacks.WithLabelValues(category.String()).Inc()
			log.Debug("Field filled by heuristic", "field", field, "category", category.String())
		}
	}
}
