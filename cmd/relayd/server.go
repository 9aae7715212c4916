package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lexia/relay"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed api.md
var apiDoc []byte

const (
	serviceName    = "relay"
	serviceVersion = "1.0.0"
)

// server routes platform traffic to the turn processor.
type server struct {
	processor    relay.MessageProcessor
	defaultModel string
	logger       *slog.Logger
	mux          *http.ServeMux
}

func newServer(processor relay.MessageProcessor, defaultModel string, logger *slog.Logger) *server {
	s := &server{
		processor:    processor,
		defaultModel: defaultModel,
		logger:       logger,
		mux:          http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/v1/send_message", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleSendMessage(w, r)
	})
	s.mux.HandleFunc("/api/v1/health", s.handleHealth)
	s.mux.HandleFunc("/docs", s.handleDocs)
	s.mux.HandleFunc("/", s.handleRoot)
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleSendMessage runs one conversational turn and streams its output
// as SSE. Turn failures arrive on the stream as an "error" event; the
// HTTP status is already committed by then, so it stays 200.
func (s *server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var msg relay.IncomingMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if msg.ThreadID == "" {
		writeError(w, http.StatusBadRequest, "thread_id is required")
		return
	}
	if msg.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if msg.Model == "" {
		msg.Model = s.defaultModel
	}

	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	out := newSSEEmitter(w)

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("turn panicked", "thread_id", msg.ThreadID, "panic", fmt.Sprint(p))
			out.EmitError(fmt.Sprintf("internal error: %v", p))
		}
	}()

	// Failures are already streamed as an error event and logged by the
	// orchestrator; nothing to add at this layer.
	_ = s.processor.ProcessMessage(r.Context(), msg, out)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": serviceName,
		"version": serviceVersion,
		"endpoints": map[string]string{
			"send_message": "POST /api/v1/send_message",
			"health":       "GET /api/v1/health",
			"docs":         "GET /docs",
		},
	})
}

const docsPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>relay API</title>
<style>
body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
code, pre { background: #f4f4f4; }
pre { padding: 0.75rem; overflow-x: auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; }
</style>
</head>
<body>
%s
</body>
</html>
`

func (s *server) handleDocs(w http.ResponseWriter, r *http.Request) {
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := gm.Convert(apiDoc, &buf); err != nil {
		writeError(w, http.StatusInternalServerError, "render docs: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, docsPage, buf.String())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
