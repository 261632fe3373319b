package fetcher

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// servers that omit a charset are reported with this default by many
// stacks; it is never trusted
const latin1 = "iso-8859-1"

// minimum chardet confidence (0-100) to accept its guess
const minConfidence = 30

func decodeBody(r io.Reader, encoding string, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return raw, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		defer func() { _ = zr.Close() }()
		return io.ReadAll(io.LimitReader(zr, limit))
	case "deflate":
		// RFC says zlib-wrapped, some servers send raw deflate
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer func() { _ = zr.Close() }()
			return io.ReadAll(io.LimitReader(zr, limit))
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer func() { _ = fr.Close() }()
		return io.ReadAll(io.LimitReader(fr, limit))
	default:
		return nil, errors.Errorf("unsupported content encoding %q", encoding)
	}
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

// toUTF8 converts body using the declared charset. A missing or latin-1
// declaration is replaced by sniffing: BOM and <meta> first, then a UTF-8
// validity check, then chardet. detected is empty when sniffing was skipped.
func toUTF8(body []byte, declared string) (out []byte, detected string) {
	name := declared
	if name == "" || name == latin1 {
		detected = sniffCharset(body)
		name = detected
	}

	if name == "" || isUTF8Label(name) {
		return body, detected
	}

	r, err := charset.NewReaderLabel(name, bytes.NewReader(body))
	if err != nil {
		return body, detected
	}
	converted, err := io.ReadAll(r)
	if err != nil {
		return body, detected
	}
	return converted, detected
}

func sniffCharset(body []byte) string {
	if len(body) == 0 {
		return "utf-8"
	}

	// uncertain results are only the utf-8 / windows-1252 guesses
	_, name, certain := charset.DetermineEncoding(body, "")
	if certain || (name != "utf-8" && name != "windows-1252") {
		return name
	}
	if utf8.Valid(body) {
		return "utf-8"
	}

	res, err := chardet.NewHtmlDetector().DetectBest(body)
	if err == nil && res.Confidence >= minConfidence {
		return chardetLabel(res.Charset)
	}
	return "windows-1252"
}

// chardetLabel maps chardet names onto WHATWG labels.
func chardetLabel(name string) string {
	name = strings.ToLower(name)
	if name == "gb-18030" {
		return "gb18030"
	}
	return name
}

func isUTF8Label(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return true
	}
	return false
}
