package openaicompat

import (
	"encoding/json"

	"github.com/lexia/relay"
)

// BuildBody converts relay ChatMessages and a model name into an
// OpenAI-format ChatRequest. System messages stay in the messages array
// as role:"system". Messages carrying image URLs become multimodal
// content blocks so vision models can read them. When tools are present
// the request asks the model to pick freely (tool_choice "auto");
// options applied afterwards can override that.
func BuildBody(messages []relay.ChatMessage, tools []relay.ToolDefinition, model string, opts ...Option) ChatRequest {
	msgs := make([]Message, 0, len(messages))
	for _, m := range messages {
		if len(m.ImageURLs) > 0 {
			blocks := make([]ContentBlock, 0, len(m.ImageURLs)+1)
			if m.Content != "" {
				blocks = append(blocks, ContentBlock{Type: "text", Text: m.Content})
			}
			for _, url := range m.ImageURLs {
				blocks = append(blocks, ContentBlock{
					Type:     "image_url",
					ImageURL: &ImageURL{URL: url},
				})
			}
			msgs = append(msgs, Message{Role: m.Role, Content: blocks})
			continue
		}
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}

	req := ChatRequest{
		Model:    model,
		Messages: msgs,
	}

	if len(tools) > 0 {
		req.Tools = BuildToolDefs(tools)
		req.ToolChoice = "auto"
	}

	for _, opt := range opts {
		opt(&req)
	}

	return req
}

// BuildToolDefs converts relay ToolDefinitions to OpenAI tool format.
func BuildToolDefs(tools []relay.ToolDefinition) []Tool {
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if len(params) == 0 {
			params = json.RawMessage(`{}`)
		}
		out = append(out, Tool{
			Type: "function",
			Function: Function{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
