// Package pdf extracts plain text from PDF attachments so it can be
// folded into the prompt.
//
// It uses ledongthuc/pdf (BSD-3, pure Go, no CGO) for text extraction.
// This is a separate subpackage so that the dependency is only pulled
// in by users who need PDF support.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/lexia/relay"
)

// DefaultMaxFetchBytes caps how much of an attachment is downloaded.
const DefaultMaxFetchBytes = 32 << 20 // 32MB

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient sets a custom HTTP client (e.g. for timeouts or proxies).
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

// WithLogger sets the structured logger. Logging is disabled when not set.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxFetchBytes overrides the download size cap.
func WithMaxFetchBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFetch = n
		}
	}
}

// Extractor fetches a PDF attachment over HTTP and extracts its text.
// It implements relay.PDFExtractor.
type Extractor struct {
	client   *http.Client
	logger   *slog.Logger
	maxFetch int64
}

var _ relay.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a PDF extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		client:   &http.Client{},
		logger:   nopLogger,
		maxFetch: DefaultMaxFetchBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractText downloads the PDF at url and returns its plain text,
// pages joined by blank lines. Unreadable pages are skipped; a document
// with no extractable text is an error so callers can fall back to the
// bare message.
func (e *Extractor) ExtractText(ctx context.Context, url string) (string, error) {
	content, err := e.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := Extract(content)
	if err != nil {
		return "", err
	}

	e.logger.Debug("pdf extracted", "url", url, "bytes", len(content), "chars", len(text))
	return text, nil
}

func (e *Extractor) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &relay.ErrHTTP{Status: resp.StatusCode, Body: string(body)}
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, e.maxFetch+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(content)) > e.maxFetch {
		return nil, fmt.Errorf("pdf exceeds %d byte limit", e.maxFetch)
	}
	return content, nil
}

// Extract extracts plain text from raw PDF content. Text is normalized
// to NFKC so ligatures and fullwidth forms read as ordinary characters.
func Extract(content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty PDF content")
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := extractPageText(page)
		if err != nil {
			continue // skip unreadable pages
		}
		if pageText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}

	cleaned := strings.TrimSpace(norm.NFKC.String(text.String()))
	if cleaned == "" {
		return "", fmt.Errorf("no extractable text")
	}
	return cleaned, nil
}

// extractPageText extracts readable text from a single PDF page.
func extractPageText(page pdf.Page) (string, error) {
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
