// Package anthropic implements provider.Adapter over the Anthropic Messages
// API. Tool results are re-injected as tool_result blocks inside user
// messages, and JSON mode is emulated with a trailing system instruction
// since the API has no native structured-output switch.
package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/google/uuid"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/tool"
)

// Options configure the Anthropic adapter (default model id, max tokens,
// API key). Per-request CallParams override the defaults set here.
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// Adapter wraps the Anthropic Messages API behind provider.Adapter.
type Adapter struct {
	client *anthropic.Client
	opts   Options
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a new Anthropic adapter using the official client.
func New(optFns ...func(o *Options)) *Adapter {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)
	return &Adapter{client: &client, opts: opts}
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Adapter {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Adapter{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 4096,
	}
}

// Name implements provider.Adapter.
func (a *Adapter) Name() string { return "anthropic" }

// Generate implements blocking generation.
func (a *Adapter) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}
	return &Response{raw: resp}, nil
}

// Stream implements streaming generation over the Messages SSE stream.
func (a *Adapter) Stream(ctx context.Context, req provider.Request) (provider.Stream, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}
	return &Stream{raw: a.client.Messages.NewStreaming(ctx, params)}, nil
}

// buildParams assembles the native request. System messages move into the
// top-level system field, everything else stays in the message list.
func (a *Adapter) buildParams(req provider.Request) (anthropic.MessageNewParams, error) {
	messages, err := buildMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	model := anthropic.Model(req.Params.Model)
	if model == "" {
		model = a.opts.Model
	}
	maxTokens := a.opts.MaxTokens
	if req.Params.MaxTokens != nil {
		maxTokens = *req.Params.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.Params.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Params.Temperature)
	}
	if req.Params.TopP != nil {
		params.TopP = anthropic.Float(*req.Params.TopP)
	}
	if len(req.Params.StopSequences) > 0 {
		params.StopSequences = req.Params.StopSequences
	}

	system := extractSystemBlocks(req.Messages)
	if req.JSONMode {
		system = append(system, anthropic.TextBlockParam{Text: provider.JSONModeInstruction})
	}
	if len(system) > 0 {
		params.System = system
	}

	if len(req.Tools) > 0 && !req.JSONMode {
		params.Tools = buildTools(req.Tools)
	}
	return params, nil
}

// buildMessages converts normalized messages into Anthropic message params.
// System messages are skipped here; tool messages become user messages
// carrying tool_result blocks.
func buildMessages(messages []core.Message) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			continue
		case core.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, p := range m.Parts {
				if tr, ok := p.(core.ToolResultPart); ok {
					blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
				}
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		case core.RoleAssistant:
			blocks := assistantBlocks(m)
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			blocks, err := userBlocks(m)
			if err != nil {
				return nil, err
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		}
	}
	return out, nil
}

// extractSystemBlocks collects system message text into top-level blocks.
func extractSystemBlocks(messages []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, m := range messages {
		if m.Role != core.RoleSystem {
			continue
		}
		if text := m.Text(); text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: text})
		}
	}
	return blocks
}

func userBlocks(m core.Message) ([]anthropic.ContentBlockParamUnion, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, p := range m.Parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		case core.ImagePart:
			data := base64.StdEncoding.EncodeToString(part.Data)
			blocks = append(blocks, anthropic.NewImageBlockBase64(part.MIMEType, data))
		case core.AudioPart:
			return nil, &provider.AdapterError{
				Provider: "anthropic",
				Op:       "build request",
				Err:      fmt.Errorf("audio parts are not supported by the messages api"),
			}
		}
	}
	return blocks, nil
}

func assistantBlocks(m core.Message) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, p := range m.Parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			}
		case core.ToolCallPart:
			var input interface{}
			if part.Arguments != "" {
				if err := json.Unmarshal([]byte(part.Arguments), &input); err != nil {
					input = part.Arguments
				}
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(part.ID, input, part.Name))
		}
	}
	return blocks
}

// buildTools converts tool definitions into Anthropic input schemas.
func buildTools(defs []tool.Definition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if def.Parameters != nil {
			if properties, ok := def.Parameters["properties"]; ok {
				schema.Properties = properties
			}
			switch required := def.Parameters["required"].(type) {
			case []string:
				schema.Required = required
			case []interface{}:
				for _, r := range required {
					if s, ok := r.(string); ok {
						schema.Required = append(schema.Required, s)
					}
				}
			}
		}
		tools[i] = anthropic.ToolUnionParamOfTool(schema, def.Name)
		if def.Description != "" {
			tools[i].OfTool.Description = anthropic.String(def.Description)
		}
	}
	return tools
}

// Response wraps a native message behind provider.Response.
type Response struct {
	raw *anthropic.Message
}

// Content concatenates the text blocks of the message.
func (r *Response) Content() string {
	var b strings.Builder
	for _, block := range r.raw.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return b.String()
}

// ID returns the message id.
func (r *Response) ID() string { return r.raw.ID }

// Model returns the responding model name.
func (r *Response) Model() string { return string(r.raw.Model) }

// FinishReasons returns the stop reason when the message carries one.
func (r *Response) FinishReasons() []string {
	if r.raw.StopReason == "" {
		return nil
	}
	return []string{string(r.raw.StopReason)}
}

// Usage returns input/output token usage.
func (r *Response) Usage() *provider.Usage {
	return &provider.Usage{
		InputTokens:  r.raw.Usage.InputTokens,
		OutputTokens: r.raw.Usage.OutputTokens,
	}
}

// ToolCalls extracts tool_use blocks with their input re-serialized to JSON.
func (r *Response) ToolCalls() []core.ToolCall {
	var calls []core.ToolCall
	for _, block := range r.raw.Content {
		if block.Type != "tool_use" {
			continue
		}
		tu := block.AsToolUse()
		args := ""
		if tu.Input != nil {
			if raw, err := json.Marshal(tu.Input); err == nil {
				args = string(raw)
			}
		}
		id := tu.ID
		if id == "" {
			id = uuid.NewString()
		}
		calls = append(calls, core.ToolCall{ID: id, Name: tu.Name, Arguments: args})
	}
	return calls
}

// Message returns the assistant message for history re-injection.
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

// Stream adapts the Messages SSE event stream to provider.Stream. Message
// metadata arrives once in message_start and is replayed on every chunk.
type Stream struct {
	raw *ssestream.Stream[anthropic.MessageStreamEventUnion]

	id          string
	model       string
	inputTokens int64
	current     Chunk
}

// Next advances to the next event.
func (s *Stream) Next() bool {
	if !s.raw.Next() {
		return false
	}
	event := s.raw.Current()
	s.current = Chunk{id: s.id, model: s.model}

	switch ev := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		s.id = ev.Message.ID
		s.model = string(ev.Message.Model)
		s.inputTokens = ev.Message.Usage.InputTokens
		s.current.id = s.id
		s.current.model = s.model
	case anthropic.ContentBlockStartEvent:
		if ev.ContentBlock.Type == "tool_use" {
			id := ev.ContentBlock.ID
			if id == "" {
				id = uuid.NewString()
			}
			s.current.toolCalls = []core.ToolCall{{ID: id, Name: ev.ContentBlock.Name}}
		}
	case anthropic.ContentBlockDeltaEvent:
		switch ev.Delta.Type {
		case "text_delta":
			s.current.content = ev.Delta.Text
		case "input_json_delta":
			s.current.toolCalls = []core.ToolCall{{Arguments: ev.Delta.PartialJSON}}
		}
	case anthropic.MessageDeltaEvent:
		if ev.Delta.StopReason != "" {
			s.current.finishReasons = []string{string(ev.Delta.StopReason)}
		}
		s.current.usage = &provider.Usage{
			InputTokens:  s.inputTokens,
			OutputTokens: ev.Usage.OutputTokens,
		}
	}
	return true
}

// Current returns the chunk built from the last event.
func (s *Stream) Current() provider.Chunk { return s.current }

// Err implements provider.Stream.
func (s *Stream) Err() error { return s.raw.Err() }

// Close implements provider.Stream.
func (s *Stream) Close() error { return s.raw.Close() }

// Chunk is the uniform view over one streaming event.
type Chunk struct {
	content       string
	id            string
	model         string
	finishReasons []string
	usage         *provider.Usage
	toolCalls     []core.ToolCall
}

// Content returns the text delta, empty for non-text events.
func (c Chunk) Content() string { return c.content }

// ID returns the message id once message_start has been seen.
func (c Chunk) ID() string { return c.id }

// Model returns the responding model name once message_start has been seen.
func (c Chunk) Model() string { return c.model }

// FinishReasons returns the stop reason on the message_delta chunk.
func (c Chunk) FinishReasons() []string { return c.finishReasons }

// Usage returns usage on the message_delta chunk, nil elsewhere.
func (c Chunk) Usage() *provider.Usage { return c.usage }

// ToolCalls returns tool-call fragments. A content_block_start fragment
// carries the id and name; input_json_delta fragments carry argument text
// only, matching the fold contract.
func (c Chunk) ToolCalls() []core.ToolCall { return c.toolCalls }
