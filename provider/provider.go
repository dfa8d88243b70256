package provider

import (
	"context"
	"fmt"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/tool"
)

// CallParams are the provider-agnostic generation parameters. Pointer
// fields are tri-state: nil means "use the provider default".
type CallParams struct {
	Model         string   `json:"model,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	MaxTokens     *int64   `json:"max_tokens,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// Merge returns a copy with any set field of override taking precedence.
func (p CallParams) Merge(override *CallParams) CallParams {
	if override == nil {
		return p
	}
	merged := p
	if override.Model != "" {
		merged.Model = override.Model
	}
	if override.Temperature != nil {
		merged.Temperature = override.Temperature
	}
	if override.MaxTokens != nil {
		merged.MaxTokens = override.MaxTokens
	}
	if override.TopP != nil {
		merged.TopP = override.TopP
	}
	if override.StopSequences != nil {
		merged.StopSequences = override.StopSequences
	}
	return merged
}

// Float returns a pointer to v for use in CallParams literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v for use in CallParams literals.
func Int(v int64) *int64 { return &v }

// Request captures the normalized model input for one generation call.
type Request struct {
	Messages []core.Message    `json:"messages"`
	Tools    []tool.Definition `json:"tools,omitempty"`
	Params   CallParams        `json:"params"`

	// JSONMode requests a structured JSON object response. Adapters whose
	// provider has no native response format append a synthetic instruction
	// instead, and suppress tool declarations either way: structured
	// extraction and free tool calling are mutually exclusive per call.
	JSONMode bool `json:"json_mode,omitempty"`
}

// JSONModeInstruction is the synthetic system instruction adapters append
// when the provider has no native structured-output switch.
const JSONModeInstruction = "Respond with a single valid JSON object and nothing else. Do not call any tools."

// Usage captures token accounting for a response or chunk.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Add returns the element-wise sum, used when folding stream chunks.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// Response is the uniform read-only view over one provider-native response.
// Accessors return zero values (empty string, nil) for anything the
// provider does not report.
type Response interface {
	// Content returns the first-choice text content, empty for a pure
	// tool-call response.
	Content() string

	// ID returns the provider response id, if reported.
	ID() string

	// Model returns the responding model name; empty when the provider
	// does not echo it.
	Model() string

	// FinishReasons returns the finish reasons, nil when absent.
	FinishReasons() []string

	// Usage returns token usage, nil when the provider does not report it.
	Usage() *Usage

	// ToolCalls returns the tool calls requested by the response, in
	// order, nil when there are none. Argument payloads are raw JSON text;
	// schema validation happens in the call layer.
	ToolCalls() []core.ToolCall

	// Message returns the assistant message parameter for re-injecting
	// this response into conversation history.
	Message() core.Message
}

// Chunk is the per-chunk analog of Response for streaming. Content is the
// empty string when a chunk carries only a tool-call delta.
type Chunk interface {
	Content() string
	ID() string
	Model() string
	FinishReasons() []string
	Usage() *Usage
	ToolCalls() []core.ToolCall
}

// Stream is a lazy, forward-only, single-pass sequence of chunks. A
// mid-stream transport error terminates iteration and surfaces from Err.
// Close releases the underlying connection and is safe to call more than
// once.
type Stream interface {
	Next() bool
	Current() Chunk
	Err() error
	Close() error
}

// Adapter is the contract every provider module implements: translate a
// normalized Request into the provider's native schema, invoke the
// underlying SDK and wrap the native response into the uniform surface.
// Transport and auth errors pass through unchanged so callers can apply
// their own retry policy; only translation failures wrap as *AdapterError.
type Adapter interface {
	// Name identifies the provider ("openai", "anthropic", ...).
	Name() string

	// Generate performs a blocking completion call.
	Generate(ctx context.Context, req Request) (Response, error)

	// Stream starts a streaming completion call.
	Stream(ctx context.Context, req Request) (Stream, error)
}

// AdapterError reports a request/response translation failure inside an
// adapter. Provider transport errors are never wrapped in this type.
type AdapterError struct {
	Provider string
	Op       string
	Err      error
}

// Error implements the error interface for AdapterError.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("provider/%s: %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AdapterError) Unwrap() error { return e.Err }
