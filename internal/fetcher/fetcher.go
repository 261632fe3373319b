package fetcher

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"pagecrawl/internal/config"
	"pagecrawl/internal/observability"
)

const (
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"

	SourceHTTP = "http"
	SourceFile = "file"
)

// RandSource picks a user agent index. math/rand by default.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.Intn(n) }

// Identity is the browser profile used for every request of one crawl.
type Identity struct {
	UserAgent string
	Referer   string
}

type Fetcher struct {
	client     *resty.Client
	cfg        *config.Config
	logger     *observability.Logger
	rnd        RandSource
	localFiles bool
}

type FetchResponse struct {
	StatusCode int
	// Body is always UTF-8.
	Body    []byte
	URL     string
	Headers http.Header
	// Kind is SourceHTTP or SourceFile.
	Kind            string
	DeclaredCharset string
	DetectedCharset string
}

type Option func(*Fetcher)

// WithRand replaces the user agent picker; tests use it for determinism.
func WithRand(r RandSource) Option {
	return func(f *Fetcher) { f.rnd = r }
}

// WithoutLocalFiles restricts sources to http(s) URLs. Servers use it so
// remote callers cannot read the host's files.
func WithoutLocalFiles() Option {
	return func(f *Fetcher) { f.localFiles = false }
}

// WithTransport swaps the HTTP transport of the underlying client.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) { f.client.SetTransport(rt) }
}

func NewFetcher(cfg *config.Config, logger *observability.Logger, opts ...Option) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.GetHTTPTimeout()).
		SetRetryCount(0).
		SetLogger(logger.Sugar())

	f := &Fetcher{
		client:     client,
		cfg:        cfg,
		logger:     logger,
		rnd:        globalRand{},
		localFiles: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewIdentity picks a user agent from the pool. referer is sent only when
// it is an http(s) URL.
func (f *Fetcher) NewIdentity(referer string) Identity {
	id := Identity{}
	if agents := f.cfg.HTTP.UserAgents; len(agents) > 0 {
		id.UserAgent = agents[f.rnd.IntN(len(agents))]
	}
	if isHTTPURL(referer) {
		id.Referer = referer
	}
	return id
}

// Fetch loads source, either an existing local file (unless disabled with
// WithoutLocalFiles) or a URL. Status codes
// of 400 and above are errors. The body is decoded and converted to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, source string, id Identity) (*FetchResponse, error) {
	if !f.localFiles {
		if !isHTTPURL(source) {
			return nil, errors.Errorf("source %q is not an http(s) URL", source)
		}
		return f.fetchURL(ctx, source, id)
	}
	if isLocalFile(source) {
		return f.readFile(source)
	}
	return f.fetchURL(ctx, source, id)
}

func (f *Fetcher) fetchURL(ctx context.Context, target string, id Identity) (*FetchResponse, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(f.headers(id)).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", target)
	}

	raw := resp.RawBody()
	defer func() {
		if raw == nil {
			return
		}
		if err := raw.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "url", target, "error", err.Error())
		}
	}()

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, errors.Errorf("HTTP error: %s for url: %s", resp.Status(), target)
	}
	if raw == nil {
		return nil, errors.Errorf("empty response for url: %s", target)
	}

	body, err := decodeBody(raw, resp.Header().Get("Content-Encoding"), f.cfg.HTTP.MaxBodyBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "read body of %s", target)
	}

	declared := declaredCharset(resp.Header().Get("Content-Type"))
	text, detected := toUTF8(body, declared)

	finalURL := target
	if rr := resp.RawResponse; rr != nil && rr.Request != nil && rr.Request.URL != nil {
		finalURL = rr.Request.URL.String()
	}

	f.logger.Debug("Response received",
		"url", finalURL,
		"status", resp.StatusCode(),
		"content_encoding", resp.Header().Get("Content-Encoding"),
		"content_type", resp.Header().Get("Content-Type"),
		"declared_charset", declared,
		"detected_charset", detected,
		"body_bytes", len(text),
	)

	return &FetchResponse{
		StatusCode:      resp.StatusCode(),
		Body:            text,
		URL:             finalURL,
		Headers:         resp.Header(),
		Kind:            SourceHTTP,
		DeclaredCharset: declared,
		DetectedCharset: detected,
	}, nil
}

func (f *Fetcher) readFile(path string) (*FetchResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = file.Close() }()

	body, err := io.ReadAll(io.LimitReader(file, f.cfg.HTTP.MaxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	text, detected := toUTF8(body, "")

	return &FetchResponse{
		StatusCode:      http.StatusOK,
		Body:            text,
		URL:             path,
		Kind:            SourceFile,
		DetectedCharset: detected,
	}, nil
}

func (f *Fetcher) headers(id Identity) map[string]string {
	h := map[string]string{
		"Accept":                    acceptHeader,
		"Accept-Language":           f.cfg.HTTP.AcceptLanguage,
		"Accept-Encoding":           "gzip, deflate",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Cache-Control":             "max-age=0",
	}
	if id.UserAgent != "" {
		h["User-Agent"] = id.UserAgent
	}
	if id.Referer != "" {
		h["Referer"] = id.Referer
	}
	return h
}

func isLocalFile(source string) bool {
	if source == "" || isHTTPURL(source) {
		return false
	}
	info, err := os.Stat(source)
	return err == nil && info.Mode().IsRegular()
}

func isHTTPURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
