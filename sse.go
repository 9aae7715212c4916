package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteSSEEvent writes a single Server-Sent Event to w and flushes it.
// data is JSON-encoded into the event payload. The HTTP layer uses this
// to forward chunk, final and error events to the platform; it returns
// an error if w does not support flushing or data cannot be encoded.
func WriteSSEEvent(w http.ResponseWriter, eventType string, data any) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support flushing")
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, encoded)
	flusher.Flush()
	return nil
}
