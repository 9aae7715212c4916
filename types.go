package relay

import "encoding/json"

// Message roles. History stores user and assistant entries; the system
// role appears only in provider-facing message lists.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Attachment types accepted on inbound messages.
const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
)

// Message is one stored conversation history entry. Immutable once
// appended.
type Message struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// UserMessage builds a user history entry with a fresh ID and timestamp.
func UserMessage(threadID, content string) Message {
	return Message{
		ID:        NewID(),
		ThreadID:  threadID,
		Role:      RoleUser,
		Content:   content,
		CreatedAt: NowUnix(),
	}
}

// AssistantMessage builds an assistant history entry with a fresh ID and
// timestamp.
func AssistantMessage(threadID, content string) Message {
	return Message{
		ID:        NewID(),
		ThreadID:  threadID,
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: NowUnix(),
	}
}

// ChatMessage is a provider-facing message entry. History maps to
// ChatMessage with IDs and timestamps dropped. A user entry may carry
// image URLs, which the provider encodes as multi-part content.
type ChatMessage struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

// Variable is one entry of the inbound credential bag.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// IncomingMessage is the platform's inbound chat payload. Optional
// fields are empty when absent; FileType and FileURL describe at most
// one attachment.
type IncomingMessage struct {
	ThreadID             string     `json:"thread_id"`
	Message              string     `json:"message"`
	Model                string     `json:"model"`
	ResponseUUID         string     `json:"response_uuid,omitempty"`
	SystemMessage        string     `json:"system_message,omitempty"`
	ProjectSystemMessage string     `json:"project_system_message,omitempty"`
	Variables            []Variable `json:"variables,omitempty"`
	FileType             string     `json:"file_type,omitempty"`
	FileURL              string     `json:"file_url,omitempty"`
}

// Usage mirrors the provider's token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolDefinition describes a callable function advertised to the model.
// Parameters holds a raw JSON schema object.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// StreamEventType identifies the kind of provider stream event.
type StreamEventType string

const (
	// EventTextDelta carries an incremental reply text chunk.
	EventTextDelta StreamEventType = "text-delta"
	// EventToolCallDelta carries one fragment of a streamed tool call:
	// the call index plus whichever of id, name, and argument text the
	// provider included in this chunk.
	EventToolCallDelta StreamEventType = "tool-call-delta"
	// EventUsage carries token accounting. Providers send it at most
	// once, at the end of the stream.
	EventUsage StreamEventType = "usage"
)

// StreamEvent is a typed event decoded from a provider stream.
// Consumers receive these on the channel passed to ChatStream.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	// Content carries the text delta (text-delta only).
	Content string `json:"content,omitempty"`
	// Index, ID, Name, and ArgsDelta describe a tool-call fragment
	// (tool-call-delta only). ID and Name are set on the fragment that
	// opens the call; ArgsDelta carries argument text to append.
	Index     int    `json:"index,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	ArgsDelta string `json:"args_delta,omitempty"`
	// Usage carries token counts (usage only). Zero value otherwise.
	Usage Usage `json:"usage,omitempty"`
}
