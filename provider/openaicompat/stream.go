package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/lexia/relay"
)

// StreamSSE reads an OpenAI SSE stream from body and forwards decoded
// events to ch: text deltas, tool call fragments, and usage. It does no
// accumulation of its own; the consumer assembles fragments.
//
// The channel is closed when streaming completes. Callers should read
// from ch in a separate goroutine. The context cancels channel sends if
// the consumer is no longer interested.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	data: [DONE]\n
func StreamSSE(ctx context.Context, body io.Reader, ch chan<- relay.StreamEvent) error {
	defer close(ch)

	scanner := bufio.NewScanner(body)
	// Increase buffer for large SSE payloads.
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	send := func(ev relay.StreamEvent) error {
		select {
		case ch <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		// SSE lines that carry data start with "data: ".
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		// End-of-stream sentinel.
		if data == "[DONE]" {
			break
		}

		var chunk ChatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed chunks.
			continue
		}

		// Usage arrives on the final chunk or on a choice-less chunk,
		// depending on the backend.
		if chunk.Usage != nil {
			ev := relay.StreamEvent{Type: relay.EventUsage, Usage: relay.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}}
			if err := send(ev); err != nil {
				return err
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta == nil {
			continue
		}

		if delta.Content != "" {
			ev := relay.StreamEvent{Type: relay.EventTextDelta, Content: delta.Content}
			if err := send(ev); err != nil {
				return err
			}
		}

		for _, tc := range delta.ToolCalls {
			ev := relay.StreamEvent{
				Type:      relay.EventToolCallDelta,
				Index:     tc.Index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				ArgsDelta: tc.Function.Arguments,
			}
			if err := send(ev); err != nil {
				return err
			}
		}
	}

	return scanner.Err()
}
