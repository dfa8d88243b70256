// Package providertest provides a scripted in-memory Adapter for tests and
// examples. Turns are played back in order; streaming turns are split into
// per-rune text chunks with tool-call arguments fragmented across chunks,
// mirroring real provider delta behavior.
package providertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/provider"
)

// Turn scripts one response of the fake adapter.
type Turn struct {
	Text         string
	ToolCalls    []core.ToolCall // IDs are filled in when empty
	FinishReason string
	Usage        *provider.Usage
	Model        string
	Err          error // returned instead of a response; mid-stream for Stream
}

// Adapter is a scripted provider.Adapter. Safe for concurrent use, though
// scripted turns are consumed globally in call order.
type Adapter struct {
	mu       sync.Mutex
	turns    []Turn
	requests []provider.Request
	nextID   int
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a fake adapter that plays back the given turns. When the
// script is exhausted, Generate echoes the last user message.
func New(turns ...Turn) *Adapter {
	for i := range turns {
		for j := range turns[i].ToolCalls {
			if turns[i].ToolCalls[j].ID == "" {
				turns[i].ToolCalls[j].ID = uuid.NewString()
			}
		}
	}
	return &Adapter{turns: turns}
}

// Name implements provider.Adapter.
func (a *Adapter) Name() string { return "fake" }

// Requests returns the normalized requests received so far.
func (a *Adapter) Requests() []provider.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]provider.Request(nil), a.requests...)
}

func (a *Adapter) nextTurn(req provider.Request) (Turn, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	a.nextID++
	id := fmt.Sprintf("fake-%d", a.nextID)

	if len(a.turns) > 0 {
		turn := a.turns[0]
		a.turns = a.turns[1:]
		return turn, id
	}

	var lastUser string
	for _, m := range req.Messages {
		if m.Role == core.RoleUser {
			lastUser = m.Text()
		}
	}
	return Turn{Text: "Fake response to: " + lastUser, FinishReason: "stop"}, id
}

// Generate implements provider.Adapter.
func (a *Adapter) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	turn, id := a.nextTurn(req)
	if turn.Err != nil {
		return nil, turn.Err
	}
	return &response{turn: turn, id: id}, nil
}

// Stream implements provider.Adapter.
func (a *Adapter) Stream(ctx context.Context, req provider.Request) (provider.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	turn, id := a.nextTurn(req)

	var chunks []chunk
	for _, r := range turn.Text {
		chunks = append(chunks, chunk{id: id, model: turn.Model, content: string(r)})
	}
	// Tool-call arguments arrive as two fragments per call; only the first
	// fragment carries the id and name, the way real provider deltas behave.
	for _, tc := range turn.ToolCalls {
		half := len(tc.Arguments) / 2
		chunks = append(chunks,
			chunk{id: id, model: turn.Model, toolCalls: []core.ToolCall{
				{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments[:half]},
			}},
			chunk{id: id, model: turn.Model, toolCalls: []core.ToolCall{
				{Arguments: tc.Arguments[half:]},
			}},
		)
	}
	if turn.Err == nil {
		chunks = append(chunks, chunk{
			id:           id,
			model:        turn.Model,
			finishReason: turn.FinishReason,
			usage:        turn.Usage,
		})
	}
	return &stream{chunks: chunks, err: turn.Err}, nil
}

type response struct {
	turn Turn
	id   string
}

func (r *response) Content() string { return r.turn.Text }
func (r *response) ID() string      { return r.id }
func (r *response) Model() string   { return r.turn.Model }

func (r *response) FinishReasons() []string {
	if r.turn.FinishReason == "" {
		return nil
	}
	return []string{r.turn.FinishReason}
}

func (r *response) Usage() *provider.Usage { return r.turn.Usage }

func (r *response) ToolCalls() []core.ToolCall {
	if len(r.turn.ToolCalls) == 0 {
		return nil
	}
	return append([]core.ToolCall(nil), r.turn.ToolCalls...)
}

func (r *response) Message() core.Message {
	var parts []core.Part
	if r.turn.Text != "" {
		parts = append(parts, core.TextPart{Text: r.turn.Text})
	}
	for _, tc := range r.turn.ToolCalls {
		parts = append(parts, core.ToolCallPart{ToolCall: tc})
	}
	return core.Message{Role: core.RoleAssistant, Parts: parts}
}

type chunk struct {
	id           string
	model        string
	content      string
	toolCalls    []core.ToolCall
	finishReason string
	usage        *provider.Usage
}

func (c chunk) Content() string { return c.content }
func (c chunk) ID() string      { return c.id }
func (c chunk) Model() string   { return c.model }

func (c chunk) FinishReasons() []string {
	if c.finishReason == "" {
		return nil
	}
	return []string{c.finishReason}
}

func (c chunk) Usage() *provider.Usage     { return c.usage }
func (c chunk) ToolCalls() []core.ToolCall { return c.toolCalls }

type stream struct {
	chunks []chunk
	pos    int
	err    error
	closed bool
}

func (s *stream) Next() bool {
	if s.closed || s.pos >= len(s.chunks) {
		return false
	}
	s.pos++
	return true
}

func (s *stream) Current() provider.Chunk { return s.chunks[s.pos-1] }

func (s *stream) Err() error {
	if s.pos >= len(s.chunks) {
		return s.err
	}
	return nil
}

func (s *stream) Close() error {
	s.closed = true
	return nil
}

// TextChunks is a test helper that drains a stream into its text pieces.
func TextChunks(s provider.Stream) ([]string, error) {
	var out []string
	for s.Next() {
		if c := s.Current().Content(); c != "" {
			out = append(out, c)
		}
	}
	return out, s.Err()
}
