package call

import (
	"strings"

	"github.com/google/uuid"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/tool"
)

// Stream wraps a provider stream and folds every chunk into an aggregate,
// so Final() can produce the same Response an equivalent blocking call
// would have. Streams are single-consumer.
type Stream struct {
	raw    provider.Stream
	tools  []tool.Tool
	inputs []core.Message

	current *Chunk

	content       strings.Builder
	id            string
	model         string
	finishReasons []string
	usage         *provider.Usage
	calls         []core.ToolCall
}

func newStream(raw provider.Stream, tools []tool.Tool, inputs []core.Message) *Stream {
	return &Stream{raw: raw, tools: tools, inputs: inputs}
}

// Next advances to the next chunk, folding it into the aggregate.
func (s *Stream) Next() bool {
	if !s.raw.Next() {
		return false
	}
	ck := s.raw.Current()
	s.fold(ck)
	s.current = &Chunk{raw: ck}
	return true
}

// Current returns the chunk produced by the last Next.
func (s *Stream) Current() *Chunk { return s.current }

// Err returns the terminal stream error, if any.
func (s *Stream) Err() error { return s.raw.Err() }

// Close releases the underlying stream.
func (s *Stream) Close() error { return s.raw.Close() }

func (s *Stream) fold(ck provider.Chunk) {
	s.content.WriteString(ck.Content())
	if id := ck.ID(); id != "" {
		s.id = id
	}
	if model := ck.Model(); model != "" {
		s.model = model
	}
	if reasons := ck.FinishReasons(); len(reasons) > 0 {
		s.finishReasons = reasons
	}
	if usage := ck.Usage(); usage != nil {
		if s.usage == nil {
			s.usage = &provider.Usage{}
		}
		*s.usage = s.usage.Add(*usage)
	}
	for _, tc := range ck.ToolCalls() {
		// A fragment with a name opens a new call; nameless fragments
		// extend the arguments of the last one.
		if tc.Name != "" || len(s.calls) == 0 {
			if tc.ID == "" {
				tc.ID = uuid.NewString()
			}
			s.calls = append(s.calls, tc)
			continue
		}
		s.calls[len(s.calls)-1].Arguments += tc.Arguments
	}
}

// Final returns the aggregate Response once the stream is exhausted.
// Calling it earlier yields a partial aggregate.
func (s *Stream) Final() (*Response, error) {
	if err := s.raw.Err(); err != nil {
		return nil, err
	}
	agg := &aggregateResponse{
		content:       s.content.String(),
		id:            s.id,
		model:         s.model,
		finishReasons: s.finishReasons,
		usage:         s.usage,
		calls:         s.calls,
	}
	return &Response{raw: agg, tools: s.tools, inputs: s.inputs}, nil
}

// Chunk wraps one provider chunk behind the uniform accessor surface.
type Chunk struct {
	raw provider.Chunk
}

// Content returns the text delta, empty for tool-call-only chunks.
func (c *Chunk) Content() string { return c.raw.Content() }

// ID returns the provider completion id when the chunk carries one.
func (c *Chunk) ID() string { return c.raw.ID() }

// Model returns the responding model when the chunk carries one.
func (c *Chunk) Model() string { return c.raw.Model() }

// FinishReasons returns finish reasons, usually on the terminal chunk only.
func (c *Chunk) FinishReasons() []string { return c.raw.FinishReasons() }

// Usage returns token usage when the chunk carries it, nil otherwise.
func (c *Chunk) Usage() *provider.Usage { return c.raw.Usage() }

// ToolCalls returns the raw tool-call fragments of this chunk.
func (c *Chunk) ToolCalls() []core.ToolCall { return c.raw.ToolCalls() }

// aggregateResponse is the provider.Response assembled from a drained
// stream.
type aggregateResponse struct {
	content       string
	id            string
	model         string
	finishReasons []string
	usage         *provider.Usage
	calls         []core.ToolCall
}

var _ provider.Response = (*aggregateResponse)(nil)

func (a *aggregateResponse) Content() string            { return a.content }
func (a *aggregateResponse) ID() string                 { return a.id }
func (a *aggregateResponse) Model() string              { return a.model }
func (a *aggregateResponse) FinishReasons() []string    { return a.finishReasons }
func (a *aggregateResponse) Usage() *provider.Usage     { return a.usage }
func (a *aggregateResponse) ToolCalls() []core.ToolCall { return a.calls }

func (a *aggregateResponse) Message() core.Message {
	var parts []core.Part
	if a.content != "" {
		parts = append(parts, core.TextPart{Text: a.content})
	}
	for _, tc := range a.calls {
		parts = append(parts, core.ToolCallPart{ToolCall: tc})
	}
	return core.Message{Role: core.RoleAssistant, Parts: parts}
}
