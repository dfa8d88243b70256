// Package promptwire provides a high-level façade over the prompt, tool,
// provider and call packages, enabling concise construction of LLM calls
// that stay portable across providers. Most applications interact with this
// package by:
//  1. Creating a Client via New() with a provider adapter
//  2. Parsing templates with Prompt() or loading manifests via promptfile
//  3. Calling Generate, GenerateStream or RunTools
//
// The façade delegates assembly and dispatch to call while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger.
package promptwire

import (
	"context"

	"github.com/promptwire/promptwire/call"
	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/logging"
	"github.com/promptwire/promptwire/prompt"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/tool"
)

// Options configures the Client.
type Options struct {
	// Params are the default call parameters (model, temperature, ...).
	Params provider.CallParams

	// Tools declares the tools available to every call.
	Tools []tool.Tool

	// JSONMode asks the provider for a JSON object response on every call.
	JSONMode bool

	// MaxToolTurns bounds the RunTools loop. 0 means unbounded.
	MaxToolTurns int

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Client is the high-level façade aggregating an adapter with defaults.
type Client struct {
	cfg *call.Config
}

// New creates a Client around a provider adapter with optional overrides.
func New(adapter provider.Adapter, optFns ...func(o *Options)) *Client {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfgOpts := []call.Option{
		call.WithParams(opts.Params),
		call.WithLogger(opts.Logger),
		call.WithMaxToolTurns(opts.MaxToolTurns),
	}
	if len(opts.Tools) > 0 {
		cfgOpts = append(cfgOpts, call.WithTools(opts.Tools...))
	}
	if opts.JSONMode {
		cfgOpts = append(cfgOpts, call.WithJSONMode())
	}

	return &Client{cfg: call.New(adapter, cfgOpts...)}
}

// Prompt parses a template in prompt syntax.
func Prompt(source string) (*prompt.Template, error) {
	return prompt.Parse(source)
}

// Config exposes the underlying call configuration.
func (c *Client) Config() *call.Config { return c.cfg }

// Generate assembles the template and performs a blocking call.
func (c *Client) Generate(ctx context.Context, tmpl *prompt.Template, args map[string]interface{}) (*call.Response, error) {
	return call.Generate(ctx, c.cfg, tmpl, args, nil)
}

// GenerateStream assembles the template and performs a streaming call.
func (c *Client) GenerateStream(ctx context.Context, tmpl *prompt.Template, args map[string]interface{}) (*call.Stream, error) {
	return call.GenerateStream(ctx, c.cfg, tmpl, args, nil)
}

// GenerateMessages dispatches pre-built history.
func (c *Client) GenerateMessages(ctx context.Context, messages []core.Message) (*call.Response, error) {
	return call.GenerateMessages(ctx, c.cfg, messages, nil)
}

// RunTools drives the tool round trip until the model answers without tool
// calls, returning the terminal response and the accumulated history.
func (c *Client) RunTools(ctx context.Context, tmpl *prompt.Template, args map[string]interface{}) (*call.Response, []core.Message, error) {
	return call.RunToolLoop(ctx, c.cfg, tmpl, args, nil)
}
