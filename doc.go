// Package relay implements an AI-agent chat relay between a hosting
// platform and an OpenAI-compatible LLM provider.
//
// The root package holds the turn pipeline: a bounded in-memory
// conversation store, prompt formatting, streamed tool-call reassembly,
// a function dispatcher, and the session orchestrator that ties them
// together for one request/response cycle.
//
// # Turn Lifecycle
//
// Each inbound platform message is one turn. The orchestrator appends
// the user message to the thread's history, builds the provider message
// list, opens a streamed completion, forwards text deltas to the output
// channel as they arrive, reassembles any streamed tool-call fragments,
// dispatches the completed calls (built-in: DALL-E image generation),
// and finalizes by appending the full assistant reply to history and
// emitting the final envelope with token usage and an optional
// attachment URL.
//
//	store := relay.NewMemoryStore(relay.WithMaxHistory(10))
//	provider := openaicompat.New("https://api.openai.com/v1")
//	functions := relay.NewRegistry()
//	gen := imagegen.New()
//	functions.Register(gen.Definition(), gen.Handler())
//
//	orc := relay.NewOrchestrator(store, provider, functions,
//		relay.WithPDFExtractor(pdf.NewExtractor()))
//	err := orc.ProcessMessage(ctx, msg, out)
//
// # Core Interfaces
//
//   - [ConversationStore] — bounded per-thread message history
//   - [Provider] — streaming LLM backend
//   - [OutputChannel] — platform-facing chunk/final/error emitter
//   - [MessageProcessor] — one-turn entry point (implemented by [Orchestrator])
//   - [PDFExtractor] — attachment text extraction collaborator
//   - [Env] — per-turn credential lookup
//
// See the cmd/relayd directory for the complete service.
package relay
