package core

// Part represents a polymorphic segment of message content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ImagePart is an inline image content segment.
type ImagePart struct {
	Data     []byte // Raw image bytes
	MIMEType string // e.g. "image/png"
}

// isPart implements the Part interface for ImagePart.
func (ImagePart) isPart() {}

// AudioPart is an inline audio content segment.
type AudioPart struct {
	Data     []byte // Raw audio bytes
	MIMEType string // e.g. "audio/wav"
}

// isPart implements the Part interface for AudioPart.
func (AudioPart) isPart() {}

// ToolCall describes a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id,omitempty"`        // Provider call id (generated when the provider omits one)
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// ToolCallPart wraps a ToolCall as a content part of an assistant message.
type ToolCallPart struct {
	ToolCall
}

// isPart implements the Part interface for ToolCallPart.
func (ToolCallPart) isPart() {}

// ToolResultPart carries the outcome of a tool call back to the model. It
// appears in messages with RoleTool and correlates via ToolCallID.
type ToolResultPart struct {
	ToolCallID string // Matches the originating ToolCall ID
	Name       string // Tool name
	Content    string // Stringified result (or error text when IsError)
	IsError    bool
}

// isPart implements the Part interface for ToolResultPart.
func (ToolResultPart) isPart() {}
