// Package openai implements provider.Adapter over the OpenAI Chat
// Completions API (including streaming and function/tool calling). It
// adapts promptwire's normalized Request into the SDK's message format and
// wraps completions and chunks behind the uniform response surface.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/provider"
)

// Options configure the OpenAI adapter. Per-request CallParams override the
// defaults set here.
type Options struct {
	Model   string
	APIKey  string
	BaseURL string // override for OpenAI-compatible endpoints
	Name    string // adapter name reported for compatible endpoints
}

// Adapter wraps the OpenAI Chat Completions API behind provider.Adapter.
type Adapter struct {
	client *openai.Client
	opts   Options
	name   string
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a new OpenAI adapter using the official client.
func New(optFns ...func(o *Options)) *Adapter {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)
	return &Adapter{client: &client, opts: opts, name: opts.Name}
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Adapter {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Adapter{client: client, opts: opts, name: opts.Name}
}

func defaultOptions() Options {
	return Options{Model: openai.ChatModelGPT4oMini, Name: "openai"}
}

// Name implements provider.Adapter.
func (a *Adapter) Name() string { return a.name }

// Generate implements blocking generation. Transport errors from the SDK
// pass through unchanged.
func (a *Adapter) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &provider.AdapterError{
			Provider: a.name,
			Op:       "wrap response",
			Err:      fmt.Errorf("no choices returned"),
		}
	}
	return &Response{raw: resp}, nil
}

// Stream implements streaming generation.
func (a *Adapter) Stream(ctx context.Context, req provider.Request) (provider.Stream, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}
	return &Stream{raw: a.client.Chat.Completions.NewStreaming(ctx, params)}, nil
}

// buildParams assembles the native request including tool declarations.
func (a *Adapter) buildParams(req provider.Request) (openai.ChatCompletionNewParams, error) {
	messages, err := buildMessages(req.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	model := req.Params.Model
	if model == "" {
		model = a.opts.Model
	}
	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    model,
	}
	if req.Params.Temperature != nil {
		params.Temperature = openai.Float(*req.Params.Temperature)
	}
	if req.Params.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(*req.Params.MaxTokens)
	}
	if req.Params.TopP != nil {
		params.TopP = openai.Float(*req.Params.TopP)
	}
	if len(req.Params.StopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: req.Params.StopSequences,
		}
	}

	if req.JSONMode {
		// Native structured output; tools are suppressed for the call.
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
		return params, nil
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, def := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        def.Name,
					Description: openai.String(def.Description),
					Parameters:  def.Parameters,
				},
			}
		}
		params.Tools = tools
	}
	return params, nil
}

// buildMessages converts normalized messages into OpenAI chat messages.
func buildMessages(messages []core.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case core.RoleUser:
			um, err := userMessage(m)
			if err != nil {
				return nil, err
			}
			out = append(out, um)
		case core.RoleAssistant:
			out = append(out, assistantMessage(m))
		case core.RoleTool:
			for _, p := range m.Parts {
				if tr, ok := p.(core.ToolResultPart); ok {
					out = append(out, openai.ToolMessage(tr.Content, tr.ToolCallID))
				}
			}
		default:
			if text := m.Text(); text != "" {
				out = append(out, openai.UserMessage(text))
			}
		}
	}
	return out, nil
}

// userMessage builds a user message, using content parts only when the
// message carries non-text content.
func userMessage(m core.Message) (openai.ChatCompletionMessageParamUnion, error) {
	multimodal := false
	for _, p := range m.Parts {
		switch p.(type) {
		case core.ImagePart, core.AudioPart:
			multimodal = true
		}
	}
	if !multimodal {
		return openai.UserMessage(m.Text()), nil
	}

	var parts []openai.ChatCompletionContentPartUnionParam
	for _, p := range m.Parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				parts = append(parts, openai.TextContentPart(part.Text))
			}
		case core.ImagePart:
			url := "data:" + part.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(part.Data)
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: url,
			}))
		case core.AudioPart:
			format, err := audioFormat(part.MIMEType)
			if err != nil {
				return openai.ChatCompletionMessageParamUnion{}, err
			}
			parts = append(parts, openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
				Data:   base64.StdEncoding.EncodeToString(part.Data),
				Format: format,
			}))
		}
	}
	return openai.UserMessage(parts), nil
}

// audioFormat maps a sniffed MIME type onto the closed set the Chat
// Completions input_audio part accepts.
func audioFormat(mimeType string) (string, error) {
	switch mimeType {
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return "wav", nil
	case "audio/mpeg", "audio/mp3":
		return "mp3", nil
	default:
		return "", &provider.AdapterError{
			Provider: "openai",
			Op:       "build request",
			Err:      fmt.Errorf("unsupported audio type %s", mimeType),
		}
	}
}

// assistantMessage converts an assistant history message, preserving any
// tool calls it carried.
func assistantMessage(m core.Message) openai.ChatCompletionMessageParamUnion {
	calls := m.ToolCalls()
	if len(calls) == 0 {
		return openai.AssistantMessage(m.Text())
	}
	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
	for i, tc := range calls {
		toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
			ID:   tc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		}
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
		Role:      "assistant",
		ToolCalls: toolCalls,
	}}
}

// Response wraps a native chat completion behind provider.Response.
type Response struct {
	raw *openai.ChatCompletion
}

// Content returns the text content of the 0th choice.
func (r *Response) Content() string { return r.raw.Choices[0].Message.Content }

// ID returns the completion id.
func (r *Response) ID() string { return r.raw.ID }

// Model returns the responding model name.
func (r *Response) Model() string { return r.raw.Model }

// FinishReasons returns the finish reasons across choices.
func (r *Response) FinishReasons() []string {
	var reasons []string
	for _, ch := range r.raw.Choices {
		if ch.FinishReason != "" {
			reasons = append(reasons, string(ch.FinishReason))
		}
	}
	return reasons
}

// Usage returns prompt/completion token usage.
func (r *Response) Usage() *provider.Usage {
	u := r.raw.Usage
	if u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0 {
		return nil
	}
	return &provider.Usage{InputTokens: u.PromptTokens, OutputTokens: u.CompletionTokens}
}

// ToolCalls extracts the 0th choice's tool calls. Missing call ids are
// filled in so results always correlate.
func (r *Response) ToolCalls() []core.ToolCall {
	native := r.raw.Choices[0].Message.ToolCalls
	if len(native) == 0 {
		return nil
	}
	calls := make([]core.ToolCall, len(native))
	for i, tc := range native {
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		calls[i] = core.ToolCall{ID: id, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
	}
	return calls
}

// Message returns the assistant message parameter for history re-injection.
func (r *Response) Message() core.Message {
	var parts []core.Part
	if content := r.Content(); content != "" {
		parts = append(parts, core.TextPart{Text: content})
	}
	for _, tc := range r.ToolCalls() {
		parts = append(parts, core.ToolCallPart{ToolCall: tc})
	}
	return core.Message{Role: core.RoleAssistant, Parts: parts}
}

// Stream wraps the SDK's SSE stream behind provider.Stream.
type Stream struct {
	raw *ssestream.Stream[openai.ChatCompletionChunk]
}

// Next implements provider.Stream.
func (s *Stream) Next() bool { return s.raw.Next() }

// Current implements provider.Stream.
func (s *Stream) Current() provider.Chunk { return Chunk{raw: s.raw.Current()} }

// Err implements provider.Stream.
func (s *Stream) Err() error { return s.raw.Err() }

// Close implements provider.Stream.
func (s *Stream) Close() error { return s.raw.Close() }

// Chunk wraps one native streaming chunk.
type Chunk struct {
	raw openai.ChatCompletionChunk
}

// Content returns the 0th choice's text delta, empty for tool-call-only
// and usage-only chunks.
func (c Chunk) Content() string {
	if len(c.raw.Choices) == 0 {
		return ""
	}
	return c.raw.Choices[0].Delta.Content
}

// ID returns the completion id carried by every chunk.
func (c Chunk) ID() string { return c.raw.ID }

// Model returns the responding model name.
func (c Chunk) Model() string { return c.raw.Model }

// FinishReasons returns the finish reason once the terminal chunk arrives.
func (c Chunk) FinishReasons() []string {
	var reasons []string
	for _, ch := range c.raw.Choices {
		if ch.FinishReason != "" {
			reasons = append(reasons, ch.FinishReason)
		}
	}
	return reasons
}

// Usage returns usage from the final include_usage chunk, nil elsewhere.
func (c Chunk) Usage() *provider.Usage {
	u := c.raw.Usage
	if u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0 {
		return nil
	}
	return &provider.Usage{InputTokens: u.PromptTokens, OutputTokens: u.CompletionTokens}
}

// ToolCalls returns the tool-call deltas of the 0th choice. Only the first
// fragment of a call carries its id and name; later fragments append to
// Arguments, matching the fold contract.
func (c Chunk) ToolCalls() []core.ToolCall {
	if len(c.raw.Choices) == 0 {
		return nil
	}
	deltas := c.raw.Choices[0].Delta.ToolCalls
	if len(deltas) == 0 {
		return nil
	}
	calls := make([]core.ToolCall, len(deltas))
	for i, tc := range deltas {
		calls[i] = core.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
	}
	return calls
}
