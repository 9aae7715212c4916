package relay

import (
	"context"
	"encoding/json"
	"fmt"
)

// FunctionResult is the outcome of one dispatched function call. Text
// is appended to the assistant reply; AttachmentURL, when non-empty,
// names a file produced by the call. IsError marks results that report
// a failure instead of a value.
type FunctionResult struct {
	Text          string
	AttachmentURL string
	IsError       bool
}

// Handler executes one function call with parsed arguments and the
// turn's credential environment.
type Handler func(ctx context.Context, env Env, args json.RawMessage) (FunctionResult, error)

// FunctionDispatcher advertises function definitions to the model and
// runs the calls it makes. Implementations never propagate call
// failures as errors; failures become textual results.
type FunctionDispatcher interface {
	Definitions() []ToolDefinition
	Dispatch(ctx context.Context, env Env, call CompletedToolCall) FunctionResult
}

// Registry maps function names to handlers and isolates their
// failures: unknown names, malformed arguments, handler errors, and
// handler panics all surface as textual results, so one bad call can
// never abort the turn or its sibling calls.
type Registry struct {
	names    []string
	defs     map[string]ToolDefinition
	handlers map[string]Handler
}

var _ FunctionDispatcher = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[string]ToolDefinition),
		handlers: make(map[string]Handler),
	}
}

// Register adds a function under def.Name, replacing any previous
// registration with the same name.
func (r *Registry) Register(def ToolDefinition, h Handler) {
	if _, exists := r.defs[def.Name]; !exists {
		r.names = append(r.names, def.Name)
	}
	r.defs[def.Name] = def
	r.handlers[def.Name] = h
}

// Definitions returns the registered definitions in registration order,
// ready to advertise to the model.
func (r *Registry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.names))
	for _, name := range r.names {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// Dispatch runs one completed call and always produces a result.
func (r *Registry) Dispatch(ctx context.Context, env Env, call CompletedToolCall) FunctionResult {
	h, ok := r.handlers[call.Name]
	if !ok {
		return FunctionResult{
			Text:    fmt.Sprintf("\n\n❌ **Function Error:** Unknown function: %s", call.Name),
			IsError: true,
		}
	}
	if call.ArgsErr != nil {
		return executionError(call.Name, call.ArgsErr)
	}
	res, err := runHandler(ctx, env, h, call.Args)
	if err != nil {
		return executionError(call.Name, err)
	}
	return res
}

func runHandler(ctx context.Context, env Env, h Handler, args json.RawMessage) (res FunctionResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h(ctx, env, args)
}

func executionError(name string, err error) FunctionResult {
	return FunctionResult{
		Text:    fmt.Sprintf("\n\n❌ **Function Execution Error:** Error executing function %s: %v", name, err),
		IsError: true,
	}
}
