package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageText(t *testing.T) {
	msg := Message{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "The answer "},
		ToolCallPart{ToolCall: ToolCall{ID: "call_1", Name: "lookup"}},
		TextPart{Text: "is 42."},
	}}
	assert.Equal(t, "The answer is 42.", msg.Text())
}

func TestMessageText_NoTextParts(t *testing.T) {
	msg := Message{Role: RoleAssistant, Parts: []Part{
		ToolCallPart{ToolCall: ToolCall{ID: "call_1", Name: "lookup"}},
	}}
	assert.Equal(t, "", msg.Text())
}

func TestMessageToolCalls(t *testing.T) {
	msg := Message{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "calling"},
		ToolCallPart{ToolCall: ToolCall{ID: "a", Name: "first"}},
		ToolCallPart{ToolCall: ToolCall{ID: "b", Name: "second", Arguments: `{"x":1}`}},
	}}
	calls := msg.ToolCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Name)
	assert.Equal(t, "b", calls[1].ID)

	assert.Nil(t, Message{Role: RoleUser}.ToolCalls())
}

func TestMessageConstructors(t *testing.T) {
	sys := NewSystemMessage("be brief")
	assert.Equal(t, RoleSystem, sys.Role)
	assert.Equal(t, "be brief", sys.Text())

	user := NewUserMessage(TextPart{Text: "hi"}, ImagePart{Data: []byte{1}, MIMEType: "image/png"})
	assert.Equal(t, RoleUser, user.Role)
	assert.Len(t, user.Parts, 2)

	res := NewToolResultMessage("call_1", "lookup", "42", false)
	assert.Equal(t, RoleTool, res.Role)
	part, ok := res.Parts[0].(ToolResultPart)
	assert.True(t, ok)
	assert.Equal(t, "call_1", part.ToolCallID)
	assert.False(t, part.IsError)
}
