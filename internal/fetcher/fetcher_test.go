package fetcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"pagecrawl/internal/config"
	"pagecrawl/internal/observability"
)

type fixedRand int

func (r fixedRand) IntN(int) int { return int(r) }

func newTestFetcher(t *testing.T, mutate func(*config.Config)) *Fetcher {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return NewFetcher(cfg, observability.NewNopLogger(), WithRand(fixedRand(2)))
}

func gbk(t *testing.T, s string) []byte {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(out)
}

func TestNewIdentity(t *testing.T) {
	f := newTestFetcher(t, nil)

	id := f.NewIdentity("https://e.com/list")
	assert.Equal(t, config.DefaultUserAgents()[2], id.UserAgent)
	assert.Equal(t, "https://e.com/list", id.Referer)

	id = f.NewIdentity("/tmp/page.html")
	assert.Equal(t, "", id.Referer)
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, nil)
	id := f.NewIdentity(srv.URL + "/")

	resp, err := f.Fetch(context.Background(), srv.URL+"/list", id)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, SourceHTTP, resp.Kind)
	assert.Equal(t, "<html>ok</html>", string(resp.Body))
	assert.Equal(t, srv.URL+"/list", resp.URL)
	assert.Equal(t, config.DefaultUserAgents()[2], got.Get("User-Agent"))
	assert.Equal(t, srv.URL+"/", got.Get("Referer"))
	assert.Equal(t, "gzip, deflate", got.Get("Accept-Encoding"))
	assert.Equal(t, "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7", got.Get("Accept-Language"))
	assert.Equal(t, "navigate", got.Get("Sec-Fetch-Mode"))
	assert.Equal(t, "max-age=0", got.Get("Cache-Control"))
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher(t, nil)
	_, err := f.Fetch(context.Background(), srv.URL, f.NewIdentity(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("<p>zipped</p>"))
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	f := newTestFetcher(t, nil)
	resp, err := f.Fetch(context.Background(), srv.URL, f.NewIdentity(""))
	require.NoError(t, err)
	assert.Equal(t, "<p>zipped</p>", string(resp.Body))
}

func TestFetch_Deflate(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write([]byte("<p>deflated</p>"))
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "deflate")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	f := newTestFetcher(t, nil)
	resp, err := f.Fetch(context.Background(), srv.URL, f.NewIdentity(""))
	require.NoError(t, err)
	assert.Equal(t, "<p>deflated</p>", string(resp.Body))
}

func TestFetch_DeclaredCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=GBK")
		_, _ = w.Write(gbk(t, "<p>通知公告</p>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, nil)
	resp, err := f.Fetch(context.Background(), srv.URL, f.NewIdentity(""))
	require.NoError(t, err)
	assert.Equal(t, "gbk", resp.DeclaredCharset)
	assert.Equal(t, "", resp.DetectedCharset)
	assert.Equal(t, "<p>通知公告</p>", string(resp.Body))
}

func TestFetch_Latin1DeclarationIsSniffed(t *testing.T) {
	page := `<html><head><meta http-equiv="Content-Type" content="text/html; charset=gb2312"></head><body>政策解读</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
		_, _ = w.Write(gbk(t, page))
	}))
	defer srv.Close()

	f := newTestFetcher(t, nil)
	resp, err := f.Fetch(context.Background(), srv.URL, f.NewIdentity(""))
	require.NoError(t, err)
	assert.Equal(t, "iso-8859-1", resp.DeclaredCharset)
	assert.Equal(t, "gbk", resp.DetectedCharset)
	assert.Contains(t, string(resp.Body), "政策解读")
}

func TestFetch_MissingCharsetValidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>要闻动态</p>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, nil)
	resp, err := f.Fetch(context.Background(), srv.URL, f.NewIdentity(""))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", resp.DetectedCharset)
	assert.Equal(t, "<p>要闻动态</p>", string(resp.Body))
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := newTestFetcher(t, func(c *config.Config) { c.HTTP.TimeoutMS = 50 })
	_, err := f.Fetch(context.Background(), srv.URL, f.NewIdentity(""))
	assert.Error(t, err)
}

func TestFetch_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFetcher(t, nil)
	_, err := f.Fetch(ctx, srv.URL, f.NewIdentity(""))
	assert.Error(t, err)
}

func TestFetch_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.html")
	require.NoError(t, os.WriteFile(path, []byte("<ul><li>本地</li></ul>"), 0o600))

	f := newTestFetcher(t, nil)
	resp, err := f.Fetch(context.Background(), path, f.NewIdentity(""))
	require.NoError(t, err)
	assert.Equal(t, SourceFile, resp.Kind)
	assert.Equal(t, path, resp.URL)
	assert.Equal(t, "<ul><li>本地</li></ul>", string(resp.Body))
}

func TestFetch_LocalFilesDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("db_password=hunter2"), 0o600))

	cfg := config.Default()
	f := NewFetcher(cfg, observability.NewNopLogger(), WithoutLocalFiles())

	_, err := f.Fetch(context.Background(), path, f.NewIdentity(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an http(s) URL")

	_, err = f.Fetch(context.Background(), "file://"+path, f.NewIdentity(""))
	assert.Error(t, err)
}

func TestFetch_DirectoryIsNotAFile(t *testing.T) {
	assert.False(t, isLocalFile(t.TempDir()))
	assert.False(t, isLocalFile("https://e.com/list.html"))
}

func TestDecodeBody_Unsupported(t *testing.T) {
	_, err := decodeBody(bytes.NewReader([]byte("x")), "br", 1024)
	assert.Error(t, err)
}

func TestDecodeBody_Limit(t *testing.T) {
	body, err := decodeBody(bytes.NewReader([]byte("abcdef")), "", 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(body))
}

func TestDeclaredCharset(t *testing.T) {
	assert.Equal(t, "gb2312", declaredCharset("text/html; charset=GB2312"))
	assert.Equal(t, "", declaredCharset("text/html"))
	assert.Equal(t, "", declaredCharset(""))
}
