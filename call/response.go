package call

import (
	"fmt"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/tool"
)

// ToolValidationError reports a tool call whose arguments did not satisfy
// the declared schema.
type ToolValidationError = tool.ValidationFailedError

// Response pairs a provider response with the tools that were declared for
// the call, so extracted tool calls can be bound and validated.
type Response struct {
	raw    provider.Response
	tools  []tool.Tool
	inputs []core.Message
}

// Content returns the text content, empty for pure tool-call responses.
func (r *Response) Content() string { return r.raw.Content() }

// ID returns the provider response id.
func (r *Response) ID() string { return r.raw.ID() }

// Model returns the model that actually responded, which may differ from
// the requested alias. Empty when the provider does not report it.
func (r *Response) Model() string { return r.raw.Model() }

// FinishReasons returns the provider finish reasons.
func (r *Response) FinishReasons() []string { return r.raw.FinishReasons() }

// Usage returns token usage, nil when the provider did not report any.
func (r *Response) Usage() *provider.Usage { return r.raw.Usage() }

// Raw exposes the underlying provider response.
func (r *Response) Raw() provider.Response { return r.raw }

// ToolCalls binds every extracted tool call to its declared tool,
// validating argument JSON against the schema. The first failing call
// aborts with a *ToolValidationError.
func (r *Response) ToolCalls() ([]*tool.Invocation, error) {
	calls := r.raw.ToolCalls()
	if len(calls) == 0 {
		return nil, nil
	}
	invocations := make([]*tool.Invocation, 0, len(calls))
	for _, tc := range calls {
		inv, err := tool.Bind(r.tools, tc)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, inv)
	}
	return invocations, nil
}

// Tool returns the first bound tool call, nil when the response has none.
func (r *Response) Tool() (*tool.Invocation, error) {
	invocations, err := r.ToolCalls()
	if err != nil {
		return nil, err
	}
	if len(invocations) == 0 {
		return nil, nil
	}
	return invocations[0], nil
}

// UserMessageParam returns the last input message when it was a user
// message, nil otherwise.
func (r *Response) UserMessageParam() *core.Message {
	if len(r.inputs) == 0 {
		return nil
	}
	last := r.inputs[len(r.inputs)-1]
	if last.Role != core.RoleUser {
		return nil
	}
	return &last
}

// Message returns the assistant message for appending to history.
func (r *Response) Message() core.Message { return r.raw.Message() }

// ToolResultMessages converts executed tool results into the history
// messages a follow-up request needs.
func (r *Response) ToolResultMessages(results ...tool.Result) []core.Message {
	messages := make([]core.Message, len(results))
	for i, res := range results {
		messages[i] = res.Message()
	}
	return messages
}

// JSONOutput extracts the JSON payload of a structured-extraction call.
// In JSON mode the content is the payload; otherwise the first tool call's
// raw argument JSON is. A response with neither is an error.
func JSONOutput(r *Response, jsonMode bool) (string, error) {
	if jsonMode {
		if content := r.Content(); content != "" {
			return content, nil
		}
	}
	if calls := r.raw.ToolCalls(); len(calls) > 0 {
		return calls[0].Arguments, nil
	}
	return "", fmt.Errorf("call: response has no content and no tool calls to extract JSON from")
}

// ChunkJSONOutput is the streaming counterpart of JSONOutput. Chunks that
// carry neither content nor a tool-call delta yield the empty string.
func ChunkJSONOutput(ck provider.Chunk, jsonMode bool) string {
	if jsonMode {
		return ck.Content()
	}
	if calls := ck.ToolCalls(); len(calls) > 0 {
		return calls[0].Arguments
	}
	return ""
}
