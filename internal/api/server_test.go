package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecrawl/internal/app"
	"pagecrawl/internal/config"
	"pagecrawl/internal/fetcher"
	"pagecrawl/internal/observability"
	"pagecrawl/internal/scraper"
)

type fakeCrawler struct {
	lastJob   *scraper.Job
	lastLimit int
	lastURL   string
	lastSel   string
	result    *app.CrawlResult
}

func (f *fakeCrawler) Run(_ context.Context, job *scraper.Job, _ ...app.RunOption) *app.CrawlResult {
	f.lastJob = job
	return f.result
}

func (f *fakeCrawler) Preview(_ context.Context, job scraper.Job, limit int) *app.CrawlResult {
	f.lastJob = &job
	f.lastLimit = limit
	return f.result
}

func (f *fakeCrawler) ValidateSelector(_ context.Context, source, raw string) *app.SelectorValidation {
	f.lastURL, f.lastSel = source, raw
	return &app.SelectorValidation{Valid: true, Count: 2, Samples: []string{"a", "b"}}
}

func setupTestServer(t *testing.T) (*fakeCrawler, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := scraper.NewRecord([]string{"标题"})
	rec.Set("标题", "公告")
	crawler := &fakeCrawler{result: &app.CrawlResult{Success: true, Data: []*scraper.Record{rec}, Count: 1, PagesCrawled: 1}}

	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg).Records.Add(1)

	srv := NewServer(":0", time.Second, crawler, reg, observability.NewNopLogger())
	return crawler, srv.Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	_, h := setupTestServer(t)

	w := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestTestCrawl(t *testing.T) {
	crawler, h := setupTestServer(t)

	body := `{"source":"https://e.com/list","selectors":{"container":"li","fields":{"标题":"a","链接":"a::attr(href)"}},"pagination":{"enabled":true,"max_pages":3}}`
	w := do(h, http.MethodPost, "/api/crawler/test", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[{"标题":"公告"}],"count":1,"pages_crawled":1}`, w.Body.String())

	require.NotNil(t, crawler.lastJob)
	assert.Equal(t, "https://e.com/list", crawler.lastJob.Source)
	assert.Equal(t, []string{"标题", "链接"}, crawler.lastJob.Selectors.Fields.Names())
	assert.Equal(t, 3, crawler.lastJob.Pagination.MaxPages)
}

func TestTestCrawl_FailureIsStill200(t *testing.T) {
	crawler, h := setupTestServer(t)
	crawler.result = &app.CrawlResult{Error: "fetch page 1: boom", Trace: "trace"}

	w := do(h, http.MethodPost, "/api/crawler/test", `{"source":"https://e.com/list","selectors":{"fields":{"a":"b"}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"fetch page 1: boom","trace":"trace"}`, w.Body.String())
}

func TestMalformedBodies(t *testing.T) {
	_, h := setupTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"test not json", "/api/crawler/test", "{"},
		{"test fields list", "/api/crawler/test", `{"source":"x","selectors":{"fields":["a"]}}`},
		{"preview without url", "/api/crawler/preview", `{"selectors":{"fields":{"a":"b"}}}`},
		{"validate without selector", "/api/crawler/validate-selector", `{"url":"https://e.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestPreview(t *testing.T) {
	crawler, h := setupTestServer(t)

	w := do(h, http.MethodPost, "/api/crawler/preview", `{"url":"https://e.com/list","base_url":"https://e.com/","selectors":{"container":"li","fields":{"标题":"a"}},"limit":5}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "https://e.com/list", crawler.lastJob.Source)
	assert.Equal(t, "https://e.com/", crawler.lastJob.BaseURL)
	assert.Equal(t, 5, crawler.lastLimit)
}

func TestValidateSelector(t *testing.T) {
	crawler, h := setupTestServer(t)

	w := do(h, http.MethodPost, "/api/crawler/validate-selector", `{"url":"https://e.com/list","selector":"li a"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true,"count":2,"samples":["a","b"]}`, w.Body.String())
	assert.Equal(t, "li a", crawler.lastSel)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := setupTestServer(t)

	w := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pagecrawl_records_total 1")
}

func TestRun_StopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServer("127.0.0.1:0", time.Second, &fakeCrawler{}, prometheus.NewRegistry(), observability.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNonHTTPSourcesRejected(t *testing.T) {
	crawler, h := setupTestServer(t)
	secret := filepath.Join(t.TempDir(), "secret.txt")

	tests := []struct {
		name string
		path string
		body string
	}{
		{"test local path", "/api/crawler/test", `{"source":"` + secret + `","selectors":{"fields":{"a":"body"}}}`},
		{"test file scheme", "/api/crawler/test", `{"source":"file://` + secret + `","selectors":{"fields":{"a":"body"}}}`},
		{"test local base url", "/api/crawler/test", `{"source":"https://e.com/list","base_url":"/etc/","selectors":{"fields":{"a":"body"}}}`},
		{"preview local path", "/api/crawler/preview", `{"url":"` + secret + `","selectors":{"fields":{"a":"body"}}}`},
		{"validate local path", "/api/crawler/validate-selector", `{"url":"` + secret + `","selector":"body"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "not an http(s) URL")
		})
	}
	assert.Nil(t, crawler.lastJob)
	assert.Empty(t, crawler.lastURL)
}

// TestValidateSelector_LocalFileNotReadable wires the real engine the way
// the serve command does.
func TestValidateSelector_LocalFileNotReadable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("db_password=hunter2"), 0o600))

	cfg := config.Default()
	logger := observability.NewNopLogger()
	reg := prometheus.NewRegistry()
	f := fetcher.NewFetcher(cfg, logger, fetcher.WithoutLocalFiles())
	o := app.NewOrchestrator(cfg, logger, f, observability.NewMetrics(reg))
	h := NewServer(":0", time.Second, o, reg, logger).Handler()

	w := do(h, http.MethodPost, "/api/crawler/validate-selector", `{"url":"`+secret+`","selector":"body"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")

	// the engine refuses the path on its own too
	v := o.ValidateSelector(context.Background(), secret, "body")
	assert.False(t, v.Valid)
	assert.Empty(t, v.Samples)
}
