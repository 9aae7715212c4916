package relay

import "context"

// ChatRequest describes one streamed completion request.
type ChatRequest struct {
	// Model is the upstream model identifier, passed through verbatim.
	Model string
	// Messages is the ordered conversation slice the model sees.
	Messages []ChatMessage
	// Tools lists the function definitions offered to the model.
	Tools []ToolDefinition
	// APIKey authenticates this request. Credentials arrive per turn
	// in the inbound variables bag, so the key lives on the request
	// rather than on the provider.
	APIKey string

	Temperature float64
	MaxTokens   int
}

// Provider is a streaming chat completion backend.
//
// ChatStream opens a completion and emits decoded StreamEvents on ch
// until the upstream stream ends. Implementations must close ch before
// returning, whether or not they return an error. Events emitted before
// a failure remain valid; the caller decides whether to surface them.
type Provider interface {
	// Name identifies the backend in logs and error messages.
	Name() string

	ChatStream(ctx context.Context, req ChatRequest, ch chan<- StreamEvent) error
}
