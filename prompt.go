package relay

// DefaultSystemPrompt is used when the inbound message carries no
// system message of its own.
const DefaultSystemPrompt = "You are a helpful AI assistant."

// BuildSystemPrompt combines the base instruction with optional project
// context. An empty base falls back to DefaultSystemPrompt; a non-empty
// projectContext is appended as a labeled section after a blank line.
func BuildSystemPrompt(base, projectContext string) string {
	prompt := DefaultSystemPrompt
	if base != "" {
		prompt = base
	}
	if projectContext != "" {
		prompt += "\n\nProject Context: " + projectContext
	}
	return prompt
}

// BuildMessageList produces the provider message list for one turn: the
// system entry, the thread history mapped to role+content pairs, and
// the current inbound text as the trailing user entry.
//
// History is read after the inbound message has been appended to the
// store, so the current text also appears as the last history entry.
// The trailing entry is the one attachment content is injected into.
// Inputs are never mutated.
func BuildMessageList(systemPrompt string, history []Message, currentMessage string) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(history)+2)
	msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: systemPrompt})
	for _, m := range history {
		msgs = append(msgs, ChatMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, ChatMessage{Role: RoleUser, Content: currentMessage})
	return msgs
}
