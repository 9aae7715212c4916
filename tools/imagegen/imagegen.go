// Package imagegen provides the built-in image generation function,
// backed by the OpenAI images API (DALL-E).
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lexia/relay"
)

// FunctionName is the name the model calls to request an image.
const FunctionName = "generate_image"

// Generation defaults.
const (
	DefaultModel   = "dall-e-3"
	DefaultSize    = "1024x1024"
	DefaultQuality = "standard"
	DefaultStyle   = "vivid"
)

var (
	validSizes     = []string{"1024x1024", "1792x1024", "1024x1792"}
	validQualities = []string{"standard", "hd"}
	validStyles    = []string{"vivid", "natural"}
)

// Option configures a Tool.
type Option func(*Tool)

// WithBaseURL overrides the API base (default "https://api.openai.com/v1").
func WithBaseURL(baseURL string) Option {
	return func(t *Tool) { t.baseURL = baseURL }
}

// WithModel overrides the image model (default "dall-e-3").
func WithModel(model string) Option {
	return func(t *Tool) { t.model = model }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Tool) { t.client = c }
}

// WithLogger sets the structured logger. Logging is disabled when not set.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tool) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Tool generates images through the OpenAI images endpoint. Register
// its Definition and Handler with a relay.Registry to offer the
// generate_image function to the model.
type Tool struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// New creates an image generation tool. Image generation is slow, so
// the default client allows two minutes per request.
func New(opts ...Option) *Tool {
	t := &Tool{
		baseURL: "https://api.openai.com/v1",
		model:   DefaultModel,
		client:  &http.Client{Timeout: 2 * time.Minute},
		logger:  nopLogger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Definition describes the generate_image function for the model.
func (t *Tool) Definition() relay.ToolDefinition {
	return relay.ToolDefinition{
		Name:        FunctionName,
		Description: "Generate an image using DALL-E 3 based on a text prompt",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"prompt": {
					"type": "string",
					"description": "The text prompt to generate an image from"
				},
				"size": {
					"type": "string",
					"enum": ["1024x1024", "1792x1024", "1024x1792"],
					"description": "The size of the generated image",
					"default": "1024x1024"
				},
				"quality": {
					"type": "string",
					"enum": ["standard", "hd"],
					"description": "The quality of the generated image",
					"default": "standard"
				},
				"style": {
					"type": "string",
					"enum": ["vivid", "natural"],
					"description": "The style of the generated image",
					"default": "vivid"
				}
			},
			"required": ["prompt"]
		}`),
	}
}

// Handler returns the dispatch handler for generate_image. The result
// text announces the image in chat markdown; the image URL rides along
// as the turn's attachment.
func (t *Tool) Handler() relay.Handler {
	return func(ctx context.Context, env relay.Env, args json.RawMessage) (relay.FunctionResult, error) {
		var params struct {
			Prompt  string `json:"prompt"`
			Size    string `json:"size"`
			Quality string `json:"quality"`
			Style   string `json:"style"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return relay.FunctionResult{}, fmt.Errorf("invalid arguments: %w", err)
		}
		if strings.TrimSpace(params.Prompt) == "" {
			return relay.FunctionResult{}, fmt.Errorf("prompt is required")
		}
		if params.Size == "" {
			params.Size = DefaultSize
		}
		if params.Quality == "" {
			params.Quality = DefaultQuality
		}
		if params.Style == "" {
			params.Style = DefaultStyle
		}
		if !contains(validSizes, params.Size) {
			return relay.FunctionResult{}, fmt.Errorf("size must be one of %s", strings.Join(validSizes, ", "))
		}
		if !contains(validQualities, params.Quality) {
			return relay.FunctionResult{}, fmt.Errorf("quality must be one of %s", strings.Join(validQualities, ", "))
		}
		if !contains(validStyles, params.Style) {
			return relay.FunctionResult{}, fmt.Errorf("style must be one of %s", strings.Join(validStyles, ", "))
		}

		apiKey, ok := env.Get(relay.EnvAPIKey)
		if !ok {
			return relay.FunctionResult{}, &relay.ErrConfig{Name: relay.EnvAPIKey}
		}

		url, err := t.Generate(ctx, apiKey, params.Prompt, params.Size, params.Quality, params.Style)
		if err != nil {
			return relay.FunctionResult{}, fmt.Errorf("Error generating image with DALL-E: %w", err)
		}

		t.logger.Info("image generated", "model", t.model, "size", params.Size, "quality", params.Quality, "style", params.Style)
		text := fmt.Sprintf("\n\n🎨 **Image Generated Successfully!**\n\n**Prompt:** %s\n**Image URL:** %s\n\n*Image created with DALL-E 3*",
			params.Prompt, url)
		return relay.FunctionResult{Text: text, AttachmentURL: url}, nil
	}
}

type generateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	Style   string `json:"style"`
}

type generateResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Generate calls the images endpoint and returns the URL of the
// generated image.
func (t *Tool) Generate(ctx context.Context, apiKey, prompt, size, quality, style string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:   t.model,
		Prompt:  prompt,
		N:       1,
		Size:    size,
		Quality: quality,
		Style:   style,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &relay.ErrHTTP{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", fmt.Errorf("response contained no image")
	}
	return parsed.Data[0].URL, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
