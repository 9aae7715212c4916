package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/lexia/relay"
)

// Provider implements relay.Provider for any OpenAI-compatible API.
// It carries no credentials: the API key and model arrive on each
// relay.ChatRequest, because the platform delivers them per turn.
type Provider struct {
	baseURL string
	client  *http.Client
	name    string
	opts    []Option
	logger  *slog.Logger
}

var _ relay.Provider = (*Provider)(nil)

// New creates an OpenAI-compatible streaming chat provider.
//
// baseURL is the API base (e.g. "https://api.openai.com/v1",
// "https://api.groq.com/openai/v1", "http://localhost:11434/v1").
// The /chat/completions path is appended automatically.
func New(baseURL string, opts ...ProviderOption) *Provider {
	p := &Provider{
		baseURL: baseURL,
		client:  &http.Client{},
		name:    "openai",
		logger:  nopLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name (default "openai", configurable via
// WithName).
func (p *Provider) Name() string { return p.name }

// ChatStream opens a streamed completion and forwards decoded events to
// ch. The channel is closed before returning, on success and on error.
func (p *Provider) ChatStream(ctx context.Context, req relay.ChatRequest, ch chan<- relay.StreamEvent) error {
	opts := make([]Option, 0, len(p.opts)+2)
	opts = append(opts, WithTemperature(req.Temperature), WithMaxTokens(req.MaxTokens))
	opts = append(opts, p.opts...)

	body := BuildBody(req.Messages, req.Tools, req.Model, opts...)
	body.Stream = true
	body.StreamOptions = &StreamOptions{IncludeUsage: true}

	resp, err := p.sendHTTP(ctx, body, req.APIKey)
	if err != nil {
		close(ch)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		close(ch)
		return p.httpErr(resp)
	}

	p.logger.Debug("stream opened", "provider", p.name, "model", req.Model, "messages", len(req.Messages))

	// StreamSSE closes ch when done.
	return StreamSSE(ctx, resp.Body, ch)
}

// sendHTTP marshals the request body and sends it to the chat
// completions endpoint.
func (p *Provider) sendHTTP(ctx context.Context, body ChatRequest, apiKey string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	return p.client.Do(httpReq)
}

// httpErr reads the response body and returns a typed HTTP error.
func (p *Provider) httpErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &relay.ErrHTTP{
		Status: resp.StatusCode,
		Body:   string(body),
	}
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
