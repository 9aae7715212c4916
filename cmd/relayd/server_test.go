package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lexia/relay"
)

// stubProcessor records the message it was handed and plays a scripted
// sequence of emissions.
type stubProcessor struct {
	msg    relay.IncomingMessage
	run    func(out relay.OutputChannel)
	err    error
	called bool
}

func (s *stubProcessor) ProcessMessage(_ context.Context, msg relay.IncomingMessage, out relay.OutputChannel) error {
	s.called = true
	s.msg = msg
	if s.run != nil {
		s.run(out)
	}
	return s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealth(t *testing.T) {
	srv := newServer(&stubProcessor{}, "gpt-4o", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want %q", body["status"], "healthy")
	}
}

func TestRootInfo(t *testing.T) {
	srv := newServer(&stubProcessor{}, "gpt-4o", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		Service   string            `json:"service"`
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Service != "relay" {
		t.Errorf("service = %q, want %q", body.Service, "relay")
	}
	if body.Endpoints["send_message"] == "" {
		t.Error("endpoint map missing send_message")
	}
}

func TestRootUnknownPath(t *testing.T) {
	srv := newServer(&stubProcessor{}, "gpt-4o", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSendMessageMethodNotAllowed(t *testing.T) {
	srv := newServer(&stubProcessor{}, "gpt-4o", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/send_message", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestSendMessageBadJSON(t *testing.T) {
	proc := &stubProcessor{}
	srv := newServer(proc, "gpt-4o", testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/send_message", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if proc.called {
		t.Error("processor called on malformed payload")
	}
}

func TestSendMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing thread_id", `{"message":"hi","model":"gpt-4o"}`, "thread_id is required"},
		{"missing message", `{"thread_id":"t1","model":"gpt-4o"}`, "message is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &stubProcessor{}
			srv := newServer(proc, "gpt-4o", testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/send_message", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tt.want {
				t.Errorf("error = %q, want %q", body["error"], tt.want)
			}
			if proc.called {
				t.Error("processor called on invalid payload")
			}
		})
	}
}

func TestSendMessageStreams(t *testing.T) {
	proc := &stubProcessor{
		run: func(out relay.OutputChannel) {
			out.EmitChunk("Hello")
			out.EmitChunk(" there")
			out.EmitFinal("Hello there", relay.Usage{PromptTokens: 4, CompletionTokens: 2, TotalTokens: 6}, "")
		},
	}
	srv := newServer(proc, "gpt-4o", testLogger())

	payload := `{"thread_id":"t1","message":"hi","model":"gpt-4o"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send_message", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/event-stream")
	}

	body := rec.Body.String()
	wantOrder := []string{
		`event: chunk` + "\ndata: " + `{"content":"Hello"}`,
		`event: chunk` + "\ndata: " + `{"content":" there"}`,
		`event: final` + "\ndata: " + `{"response":"Hello there","usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`,
	}
	pos := 0
	for _, want := range wantOrder {
		idx := strings.Index(body[pos:], want)
		if idx < 0 {
			t.Fatalf("stream missing %q in order; body:\n%s", want, body)
		}
		pos += idx + len(want)
	}

	if proc.msg.ThreadID != "t1" || proc.msg.Message != "hi" || proc.msg.Model != "gpt-4o" {
		t.Errorf("processor received %+v", proc.msg)
	}
}

func TestSendMessageDefaultModel(t *testing.T) {
	proc := &stubProcessor{
		run: func(out relay.OutputChannel) {
			out.EmitFinal("ok", relay.Usage{}, "")
		},
	}
	srv := newServer(proc, "gpt-4o", testLogger())

	payload := `{"thread_id":"t1","message":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send_message", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if proc.msg.Model != "gpt-4o" {
		t.Errorf("model = %q, want fallback gpt-4o", proc.msg.Model)
	}
}

func TestSendMessageTurnError(t *testing.T) {
	proc := &stubProcessor{
		run: func(out relay.OutputChannel) {
			out.EmitError("missing configuration: OPENAI_API_KEY")
		},
		err: &relay.ErrConfig{Name: "OPENAI_API_KEY"},
	}
	srv := newServer(proc, "gpt-4o", testLogger())

	payload := `{"thread_id":"t1","message":"hi","model":"gpt-4o"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send_message", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	// The stream is already committed, so the status stays 200 and the
	// failure travels as an event.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("stream missing error event; body:\n%s", body)
	}
	if !strings.Contains(body, "missing configuration: OPENAI_API_KEY") {
		t.Errorf("stream missing error message; body:\n%s", body)
	}
}

func TestSendMessagePanicRecovered(t *testing.T) {
	proc := &stubProcessor{
		run: func(out relay.OutputChannel) {
			panic("boom")
		},
	}
	srv := newServer(proc, "gpt-4o", testLogger())

	payload := `{"thread_id":"t1","message":"hi","model":"gpt-4o"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/send_message", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("stream missing error event after panic; body:\n%s", body)
	}
	if !strings.Contains(body, "internal error: boom") {
		t.Errorf("stream missing panic message; body:\n%s", body)
	}
}

func TestDocs(t *testing.T) {
	srv := newServer(&stubProcessor{}, "gpt-4o", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "relay API") {
		t.Error("docs page missing title")
	}
	if !strings.Contains(body, "<table>") {
		t.Error("docs page missing rendered table")
	}
}
