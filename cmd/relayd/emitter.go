package main

import (
	"net/http"
	"sync"

	"github.com/lexia/relay"
)

// chunkPayload is the body of a "chunk" event: one increment of reply
// text.
type chunkPayload struct {
	Content string `json:"content"`
}

// finalPayload is the body of the "final" event closing a successful
// turn.
type finalPayload struct {
	Response string      `json:"response"`
	Usage    relay.Usage `json:"usage"`
	FileURL  string      `json:"file_url,omitempty"`
}

// errorPayload is the body of the single "error" event on a failed
// turn.
type errorPayload struct {
	Error string `json:"error"`
}

// sseEmitter delivers turn output to the client as Server-Sent Events.
// Writes are serialized; the output contract does not promise a single
// emitting goroutine.
type sseEmitter struct {
	mu sync.Mutex
	w  http.ResponseWriter
}

var _ relay.OutputChannel = (*sseEmitter)(nil)

func newSSEEmitter(w http.ResponseWriter) *sseEmitter {
	return &sseEmitter{w: w}
}

func (e *sseEmitter) EmitChunk(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = relay.WriteSSEEvent(e.w, "chunk", chunkPayload{Content: text})
}

func (e *sseEmitter) EmitFinal(fullText string, usage relay.Usage, attachmentURL string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = relay.WriteSSEEvent(e.w, "final", finalPayload{
		Response: fullText,
		Usage:    usage,
		FileURL:  attachmentURL,
	})
}

func (e *sseEmitter) EmitError(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = relay.WriteSSEEvent(e.w, "error", errorPayload{Error: message})
}
