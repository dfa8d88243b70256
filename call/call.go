// Package call wires templates, tools and provider adapters into single
// entry points: blocking generation, streaming generation and the tool
// round-trip loop. Message assembly is pure and happens before any network
// I/O, so assembly errors never cost a request.
package call

import (
	"context"
	"time"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/prompt"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/tool"
)

// Generate assembles the template with args, applies the optional PromptFn
// overrides and dispatches a blocking request through the Config's adapter.
func Generate(ctx context.Context, cfg *Config, tmpl *prompt.Template, args map[string]interface{}, fn PromptFn) (*Response, error) {
	req, tools, err := buildRequest(cfg, tmpl, args, fn)
	if err != nil {
		return nil, err
	}
	return dispatch(ctx, cfg, req, tools)
}

// GenerateStream is the streaming variant of Generate. The two mirror each
// other exactly; the only suspension point is the adapter call.
func GenerateStream(ctx context.Context, cfg *Config, tmpl *prompt.Template, args map[string]interface{}, fn PromptFn) (*Stream, error) {
	req, tools, err := buildRequest(cfg, tmpl, args, fn)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Debug("stream start", "provider", cfg.Adapter.Name(), "model", req.Params.Model)
	raw, err := cfg.Adapter.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	return newStream(raw, tools, req.Messages), nil
}

// GenerateMessages dispatches pre-built history, bypassing template
// assembly. Round trips use it to redispatch after tool results.
func GenerateMessages(ctx context.Context, cfg *Config, messages []core.Message, dyn *DynamicConfig) (*Response, error) {
	req, tools := buildMessagesRequest(cfg, messages, dyn)
	return dispatch(ctx, cfg, req, tools)
}

func dispatch(ctx context.Context, cfg *Config, req provider.Request, tools []tool.Tool) (*Response, error) {
	cfg.Logger.Debug("call start", "provider", cfg.Adapter.Name(), "model", req.Params.Model, "json_mode", req.JSONMode)
	start := time.Now()

	raw, err := cfg.Adapter.Generate(ctx, req)
	if err != nil {
		cfg.Logger.Error("call failed", "provider", cfg.Adapter.Name(), "error", err)
		return nil, err
	}

	fields := []any{
		"provider", cfg.Adapter.Name(),
		"model", raw.Model(),
		"duration", time.Since(start),
	}
	if usage := raw.Usage(); usage != nil {
		fields = append(fields, "input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)
	}
	cfg.Logger.Info("call finished", fields...)

	return &Response{raw: raw, tools: tools, inputs: req.Messages}, nil
}

// buildRequest runs the PromptFn, assembles messages and folds overrides
// into one provider.Request. It performs no I/O.
func buildRequest(cfg *Config, tmpl *prompt.Template, args map[string]interface{}, fn PromptFn) (provider.Request, []tool.Tool, error) {
	var dyn *DynamicConfig
	if fn != nil {
		var err error
		dyn, err = fn(args)
		if err != nil {
			return provider.Request{}, nil, err
		}
	}

	var computed map[string]interface{}
	if dyn != nil {
		computed = dyn.ComputedFields
	}
	messages, err := tmpl.Messages(args, computed)
	if err != nil {
		return provider.Request{}, nil, err
	}

	req, tools := buildMessagesRequest(cfg, messages, dyn)
	return req, tools, nil
}

func buildMessagesRequest(cfg *Config, messages []core.Message, dyn *DynamicConfig) (provider.Request, []tool.Tool) {
	tools := cfg.Tools
	params := cfg.Params
	if dyn != nil {
		if dyn.Tools != nil {
			tools = dyn.Tools
		}
		if dyn.Params != nil {
			params = params.Merge(dyn.Params)
		}
	}

	req := provider.Request{
		Messages: messages,
		Tools:    tool.Definitions(tools),
		Params:   params,
		JSONMode: cfg.JSONMode,
	}
	return req, tools
}
