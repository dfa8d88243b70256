package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/internal/util"
)

// ValidationFailedError reports a model-requested tool call whose arguments
// do not satisfy the declared schema, or that names no declared tool.
type ValidationFailedError struct {
	ToolName string
	CallID   string
	Err      error
}

// Error implements the error interface for ValidationFailedError.
func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("tool call %s (%s): %v", e.ToolName, e.CallID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ValidationFailedError) Unwrap() error { return e.Err }

// Invocation is a tool call extracted from a model response, bound to its
// declared Tool with parsed, schema-validated arguments. It carries the
// provider call ID so results can be correlated in the follow-up message.
type Invocation struct {
	CallID string
	Tool   Tool
	Args   map[string]any
}

// Bind matches an extracted tool call against the declared tools, parses
// its JSON arguments and validates them against the tool's schema.
func Bind(tools []Tool, call core.ToolCall) (*Invocation, error) {
	var target Tool
	for _, t := range tools {
		if t.Name() == call.Name {
			target = t
			break
		}
	}
	if target == nil {
		return nil, &ValidationFailedError{
			ToolName: call.Name,
			CallID:   call.ID,
			Err:      fmt.Errorf("no declared tool named %q", call.Name),
		}
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, &ValidationFailedError{
				ToolName: call.Name,
				CallID:   call.ID,
				Err:      fmt.Errorf("unparsable arguments: %w", err),
			}
		}
	}
	if err := util.ValidateParameters(args, target.Parameters()); err != nil {
		return nil, &ValidationFailedError{ToolName: call.Name, CallID: call.ID, Err: err}
	}

	return &Invocation{CallID: call.ID, Tool: target, Args: args}, nil
}

// Invoke executes the bound tool with the validated arguments.
func (inv *Invocation) Invoke(ctx context.Context) (any, error) {
	return inv.Tool.Call(ctx, inv.Args)
}

// Result pairs an invocation with its outcome for history re-injection.
// Execution errors are carried as data, not propagated, so a conversation
// can continue after a failed tool call.
type Result struct {
	Invocation *Invocation
	Value      any
	Err        error
}

// Content returns the stringified outcome: the value on success, the error
// text on failure.
func (r Result) Content() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if s, ok := r.Value.(string); ok {
		return s
	}
	if r.Value == nil {
		return ""
	}
	if data, err := json.Marshal(r.Value); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", r.Value)
}

// Message converts the result into the tool-role message that re-injects it
// into conversation history.
func (r Result) Message() core.Message {
	return core.NewToolResultMessage(
		r.Invocation.CallID,
		r.Invocation.Tool.Name(),
		r.Content(),
		r.Err != nil,
	)
}
