package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// EnvAPIKey is the variable the orchestrator requires before any
// provider call. Turns missing it fail with ErrConfig without touching
// the upstream.
const EnvAPIKey = "OPENAI_API_KEY"

// OutputChannel receives a turn's outbound traffic. Implementations
// forward it to the platform, typically over an SSE response.
type OutputChannel interface {
	// EmitChunk forwards one increment of reply text as it arrives.
	EmitChunk(text string)
	// EmitFinal delivers the completed reply, the token usage retained
	// from the stream, and the attachment URL produced by function
	// calls (empty when none).
	EmitFinal(fullText string, usage Usage, attachmentURL string)
	// EmitError delivers the turn's single failure notification.
	EmitError(message string)
}

// MessageProcessor runs one conversational turn end to end. It is the
// seam between the HTTP layer and the orchestrator, and the point where
// observability wrappers attach.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, msg IncomingMessage, out OutputChannel) error
}

// PDFExtractor fetches a PDF attachment and returns its plain text.
type PDFExtractor interface {
	ExtractText(ctx context.Context, url string) (string, error)
}

// TurnState tracks a turn through the orchestrator lifecycle. States
// advance monotonically; transitions are logged at debug level.
type TurnState int32

const (
	StateIdle TurnState = iota
	StateHistoryLoaded
	StatePromptBuilt
	StateStreaming
	StateFunctionsPending
	StateFinalized
	StateFailed
)

func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHistoryLoaded:
		return "history-loaded"
	case StatePromptBuilt:
		return "prompt-built"
	case StateStreaming:
		return "streaming"
	case StateFunctionsPending:
		return "functions-pending"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the structured logger. Logging is disabled when not
// set.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPDFExtractor enables PDF attachment handling. Without it, PDF
// attachments are logged and skipped.
func WithPDFExtractor(p PDFExtractor) OrchestratorOption {
	return func(o *Orchestrator) {
		o.pdf = p
	}
}

// WithMaxTokens caps the completion length requested from the provider.
func WithMaxTokens(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature requested from the
// provider.
func WithTemperature(t float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if t >= 0 {
			o.temperature = t
		}
	}
}

// Orchestrator drives one conversational turn: it records the inbound
// message, builds the prompt, streams the completion, dispatches any
// function calls the model requested, and finalizes the reply. A single
// Orchestrator serves concurrent turns; all per-turn state is local to
// ProcessMessage.
type Orchestrator struct {
	store       ConversationStore
	provider    Provider
	functions   FunctionDispatcher
	pdf         PDFExtractor
	logger      *slog.Logger
	maxTokens   int
	temperature float64
}

var _ MessageProcessor = (*Orchestrator)(nil)

// NewOrchestrator wires a store, a provider and a function dispatcher
// into a turn processor.
func NewOrchestrator(store ConversationStore, provider Provider, functions FunctionDispatcher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		provider:    provider,
		functions:   functions,
		logger:      nopLogger,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessMessage runs one turn. On success the assistant reply has been
// appended to the store and delivered through out.EmitFinal. On failure
// exactly one out.EmitError notification is sent, the partial reply is
// discarded without being stored, and the typed error is returned.
func (o *Orchestrator) ProcessMessage(ctx context.Context, msg IncomingMessage, out OutputChannel) error {
	state := StateIdle
	log := o.logger.With("thread_id", msg.ThreadID, "response_uuid", msg.ResponseUUID, "model", msg.Model)

	advance := func(next TurnState) {
		log.Debug("turn state", "from", state.String(), "to", next.String())
		state = next
	}

	fail := func(err error) error {
		advance(StateFailed)
		log.Error("turn failed", "error", err)
		out.EmitError(err.Error())
		return err
	}

	env := NewEnv(msg.Variables)
	apiKey, ok := env.Get(EnvAPIKey)
	if !ok {
		return fail(&ErrConfig{Name: EnvAPIKey})
	}

	// The user message joins history before the read, so the returned
	// slice already ends with it.
	o.store.Append(msg.ThreadID, RoleUser, msg.Message)
	history := o.store.History(msg.ThreadID)
	advance(StateHistoryLoaded)

	systemPrompt := BuildSystemPrompt(msg.SystemMessage, msg.ProjectSystemMessage)
	messages := BuildMessageList(systemPrompt, history, msg.Message)
	o.attach(ctx, msg, messages, log)
	advance(StatePromptBuilt)

	req := ChatRequest{
		Model:       msg.Model,
		Messages:    messages,
		Tools:       o.functions.Definitions(),
		APIKey:      apiKey,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}

	advance(StateStreaming)
	events := make(chan StreamEvent, 64)
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- o.provider.ChatStream(ctx, req, events)
	}()

	var (
		reply strings.Builder
		acc   ToolCallAccumulator
		usage Usage
	)
	for ev := range events {
		switch ev.Type {
		case EventTextDelta:
			reply.WriteString(ev.Content)
			out.EmitChunk(ev.Content)
		case EventToolCallDelta:
			acc.Add(ev.Index, ev.ID, ev.Name, ev.ArgsDelta)
		case EventUsage:
			usage = ev.Usage
		}
	}
	if err := <-streamErr; err != nil {
		return fail(&ErrUpstream{Provider: o.provider.Name(), Err: err})
	}

	calls := acc.Finalize()
	attachmentURL := ""
	if len(calls) > 0 {
		advance(StateFunctionsPending)
		log.Info("dispatching function calls", "count", len(calls))
		for _, call := range calls {
			// Progress marker is streamed but kept out of the stored
			// reply.
			out.EmitChunk(fmt.Sprintf("\n⚙️ **Processing function:** %s", call.Name))

			result := o.functions.Dispatch(ctx, env, call)
			if result.Text != "" {
				reply.WriteString(result.Text)
				out.EmitChunk(result.Text)
			}
			if attachmentURL == "" && result.AttachmentURL != "" {
				attachmentURL = result.AttachmentURL
			}
		}
	}

	fullText := reply.String()
	o.store.Append(msg.ThreadID, RoleAssistant, fullText)
	out.EmitFinal(fullText, usage, attachmentURL)
	advance(StateFinalized)
	log.Info("turn completed",
		"reply_chars", len(fullText),
		"function_calls", len(calls),
		"total_tokens", usage.TotalTokens)
	return nil
}

// attach folds the inbound attachment into the trailing user entry of
// messages. PDF text is appended to the message body; images become an
// image URL part for vision models. Attachment failures never fail the
// turn: the entry is left as plain text and the turn continues.
func (o *Orchestrator) attach(ctx context.Context, msg IncomingMessage, messages []ChatMessage, log *slog.Logger) {
	if msg.FileURL == "" {
		return
	}
	last := len(messages) - 1

	switch msg.FileType {
	case FileTypePDF:
		if o.pdf == nil {
			log.Warn("pdf attachment skipped: no extractor configured", "url", msg.FileURL)
			return
		}
		text, err := o.pdf.ExtractText(ctx, msg.FileURL)
		if err != nil {
			log.Error("pdf extraction failed, continuing without attachment",
				"error", &ErrAttachment{URL: msg.FileURL, Err: err})
			return
		}
		messages[last].Content = msg.Message + "\n\nPDF Content:\n" + text
		log.Info("pdf content added to prompt",
			"chars", len(text), "estimated_tokens", estimateTokens(text))
	case FileTypeImage:
		messages[last].ImageURLs = []string{msg.FileURL}
		log.Info("image attached for vision analysis", "url", msg.FileURL)
	default:
		log.Warn("unknown attachment type skipped", "file_type", msg.FileType, "url", msg.FileURL)
	}
}

// estimateTokens approximates the token count of text at four
// characters per token, for log visibility only.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
