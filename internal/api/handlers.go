package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"pagecrawl/internal/app"
	"pagecrawl/internal/scraper"
)

// Crawler is the engine surface the handlers drive. *app.Orchestrator
// implements it.
type Crawler interface {
	Run(ctx context.Context, job *scraper.Job, opts ...app.RunOption) *app.CrawlResult
	Preview(ctx context.Context, job scraper.Job, limit int) *app.CrawlResult
	ValidateSelector(ctx context.Context, source, raw string) *app.SelectorValidation
}

type previewRequest struct {
	URL       string                 `json:"url" binding:"required"`
	BaseURL   string                 `json:"base_url"`
	Selectors scraper.SelectorConfig `json:"selectors"`
	Limit     int                    `json:"limit"`
}

type validateRequest struct {
	URL      string `json:"url" binding:"required"`
	Selector string `json:"selector" binding:"required"`
}

type Handlers struct {
	crawler Crawler
}

func NewHandlers(crawler Crawler) *Handlers {
	return &Handlers{crawler: crawler}
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TestCrawl runs a full job. Crawl failures are still HTTP 200; the
// result carries success=false.
func (h *Handlers) TestCrawl(c *gin.Context) {
	var job scraper.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		badRequest(c, err)
		return
	}
	if err := checkRemote(job.Source, job.BaseURL); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.crawler.Run(c.Request.Context(), &job))
}

// Preview crawls the first page only.
func (h *Handlers) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := checkRemote(req.URL, req.BaseURL); err != nil {
		badRequest(c, err)
		return
	}

	job := scraper.Job{
		Source:    req.URL,
		BaseURL:   req.BaseURL,
		Selectors: req.Selectors,
	}
	c.JSON(http.StatusOK, h.crawler.Preview(c.Request.Context(), job, req.Limit))
}

func (h *Handlers) ValidateSelector(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := checkRemote(req.URL); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.crawler.ValidateSelector(c.Request.Context(), req.URL, req.Selector))
}

// checkRemote accepts only absolute http(s) URLs; empty values are skipped
// (required fields are enforced by binding). Local paths are CLI-only.
func checkRemote(values ...string) error {
	for _, v := range values {
		if v == "" {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(v))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%q is not an http(s) URL", v)
		}
	}
	return nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}
