package relay

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrConfigError(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"OPENAI_API_KEY", "missing configuration: OPENAI_API_KEY"},
		{"", "missing configuration: "},
	}
	for _, tt := range tests {
		e := &ErrConfig{Name: tt.name}
		if got := e.Error(); got != tt.want {
			t.Errorf("ErrConfig{%q}.Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestErrUpstreamError(t *testing.T) {
	e := &ErrUpstream{Provider: "openai", Err: errors.New("connection refused")}
	want := "openai: connection refused"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrUpstreamUnwrap(t *testing.T) {
	inner := &ErrHTTP{Status: 503, Body: "overloaded"}
	e := &ErrUpstream{Provider: "openai", Err: inner}

	var httpErr *ErrHTTP
	if !errors.As(e, &httpErr) {
		t.Fatal("errors.As should reach the wrapped ErrHTTP")
	}
	if httpErr.Status != 503 {
		t.Errorf("Status = %d, want 503", httpErr.Status)
	}
}

func TestErrHTTPError(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{429, "too many requests", "http 429: too many requests"},
		{500, "internal server error", "http 500: internal server error"},
		{0, "", "http 0: "},
	}
	for _, tt := range tests {
		e := &ErrHTTP{Status: tt.status, Body: tt.body}
		if got := e.Error(); got != tt.want {
			t.Errorf("ErrHTTP{%d, %q}.Error() = %q, want %q", tt.status, tt.body, got, tt.want)
		}
	}
}

func TestErrAttachmentError(t *testing.T) {
	e := &ErrAttachment{URL: "https://files.example/doc.pdf", Err: fmt.Errorf("http 404")}
	want := "attachment https://files.example/doc.pdf: http 404"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrAttachmentUnwrap(t *testing.T) {
	inner := errors.New("timeout")
	e := &ErrAttachment{URL: "u", Err: inner}
	if !errors.Is(e, inner) {
		t.Error("errors.Is should reach the wrapped error")
	}
}

func TestErrorTypesImplementError(t *testing.T) {
	var _ error = (*ErrConfig)(nil)
	var _ error = (*ErrUpstream)(nil)
	var _ error = (*ErrHTTP)(nil)
	var _ error = (*ErrAttachment)(nil)
}
