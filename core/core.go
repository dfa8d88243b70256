package core

import "strings"

// Role identifies the conversational role of a message.
type Role string

// Conversation roles recognized across providers.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message holds a role plus an ordered sequence of heterogeneous parts.
// Message order within a conversation history is significant and preserved
// end to end.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewSystemMessage builds a system message from plain text.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{TextPart{Text: text}}}
}

// NewUserMessage builds a user message from the given parts.
func NewUserMessage(parts ...Part) Message {
	return Message{Role: RoleUser, Parts: parts}
}

// NewUserTextMessage builds a user message from plain text.
func NewUserTextMessage(text string) Message {
	return NewUserMessage(TextPart{Text: text})
}

// NewAssistantMessage builds an assistant message from the given parts.
func NewAssistantMessage(parts ...Part) Message {
	return Message{Role: RoleAssistant, Parts: parts}
}

// NewToolResultMessage builds a tool-role message carrying a single result.
func NewToolResultMessage(callID, name, content string, isErr bool) Message {
	return Message{Role: RoleTool, Parts: []Part{ToolResultPart{
		ToolCallID: callID,
		Name:       name,
		Content:    content,
		IsError:    isErr,
	}}}
}

// Text concatenates the text parts of the message in order, skipping
// non-text parts.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// ToolCalls returns the tool calls requested by an assistant message, in
// part order. Nil when the message requests none.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.ToolCall)
		}
	}
	return calls
}
