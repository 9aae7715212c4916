package relay

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PendingToolCall is a snapshot of one partially streamed tool call.
type PendingToolCall struct {
	Index int
	ID    string
	Name  string
	Args  string
}

// CompletedToolCall is a reassembled tool call ready for dispatch.
// ArgsErr is non-nil when the accumulated argument text never parsed as
// JSON; such calls are still dispatched so the failure is reported in
// the reply rather than silently dropped.
type CompletedToolCall struct {
	Index   int
	ID      string
	Name    string
	Args    json.RawMessage
	ArgsErr error
}

// ToolCallAccumulator reassembles streamed tool-call fragments into
// complete calls. Providers send a call's id and name on its opening
// fragment and spread its argument text over many chunks, keyed by a
// zero-based call index. The zero value is ready to use.
//
// Fragments may arrive with index gaps; slots that never receive a
// fragment stay absent and are skipped at finalization. Not safe for
// concurrent use: one accumulator serves one streamed response.
type ToolCallAccumulator struct {
	slots []*pendingSlot
}

type pendingSlot struct {
	id   string
	name string
	args strings.Builder
}

// Add feeds one fragment. The first fragment for an index creates the
// call; id and name are recorded whenever non-empty (providers send
// them once, on the opening fragment); argsDelta is appended verbatim.
func (a *ToolCallAccumulator) Add(index int, id, name, argsDelta string) {
	if index < 0 {
		return
	}
	for len(a.slots) <= index {
		a.slots = append(a.slots, nil)
	}
	slot := a.slots[index]
	if slot == nil {
		slot = &pendingSlot{}
		a.slots[index] = slot
	}
	if id != "" {
		slot.id = id
	}
	if name != "" {
		slot.name = name
	}
	if argsDelta != "" {
		slot.args.WriteString(argsDelta)
	}
}

// Snapshot returns the calls accumulated so far in index order, with
// their argument buffers as received. Safe to call mid-stream.
func (a *ToolCallAccumulator) Snapshot() []PendingToolCall {
	pending := make([]PendingToolCall, 0, len(a.slots))
	for i, slot := range a.slots {
		if slot == nil {
			continue
		}
		pending = append(pending, PendingToolCall{
			Index: i,
			ID:    slot.id,
			Name:  slot.name,
			Args:  slot.args.String(),
		})
	}
	return pending
}

// Finalize parses each accumulated argument buffer and returns the
// completed calls in index order. An empty buffer finalizes as the
// empty object; a buffer that is not valid JSON yields the call with
// ArgsErr set and the raw text preserved in Args.
func (a *ToolCallAccumulator) Finalize() []CompletedToolCall {
	calls := make([]CompletedToolCall, 0, len(a.slots))
	for i, slot := range a.slots {
		if slot == nil {
			continue
		}
		call := CompletedToolCall{Index: i, ID: slot.id, Name: slot.name}
		buf := slot.args.String()
		switch {
		case buf == "":
			call.Args = json.RawMessage("{}")
		default:
			var v any
			if err := json.Unmarshal([]byte(buf), &v); err != nil {
				call.ArgsErr = fmt.Errorf("parse arguments: %w", err)
			}
			call.Args = json.RawMessage(buf)
		}
		calls = append(calls, call)
	}
	return calls
}
