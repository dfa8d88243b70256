package call

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/prompt"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/provider/providertest"
	"github.com/promptwire/promptwire/tool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustParse(t *testing.T, source string) *prompt.Template {
	t.Helper()
	tmpl, err := prompt.Parse(source)
	require.NoError(t, err)
	return tmpl
}

func authorTool() tool.Tool {
	return tool.NewFunctionTool(
		"getAuthor",
		"Look up the author of a book by title.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string"},
			},
			"required": []string{"title"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			if args["title"] == "The Name of the Wind" {
				return "Patrick Rothfuss", nil
			}
			return nil, fmt.Errorf("unknown title %v", args["title"])
		},
	)
}

// =============================================================================
// Generate
// =============================================================================

func TestGenerate_Basic(t *testing.T) {
	fake := providertest.New(providertest.Turn{
		Text:         "Try Mistborn by Brandon Sanderson.",
		FinishReason: "stop",
		Model:        "fake-1",
		Usage:        &provider.Usage{InputTokens: 10, OutputTokens: 8},
	})
	cfg := New(fake)
	tmpl := mustParse(t, "Recommend a {genre} book")

	resp, err := Generate(context.Background(), cfg, tmpl, map[string]any{"genre": "fantasy"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Try Mistborn by Brandon Sanderson.", resp.Content())
	assert.Equal(t, "fake-1", resp.Model())
	assert.Equal(t, []string{"stop"}, resp.FinishReasons())
	require.NotNil(t, resp.Usage())
	assert.Equal(t, int64(10), resp.Usage().InputTokens)

	// Assembly happened before dispatch.
	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Messages, 1)
	assert.Equal(t, "Recommend a fantasy book", reqs[0].Messages[0].Text())
}

func TestGenerate_AssemblyErrorSendsNothing(t *testing.T) {
	fake := providertest.New()
	cfg := New(fake)
	tmpl := mustParse(t, "Recommend a {genre} book")

	_, err := Generate(context.Background(), cfg, tmpl, map[string]any{}, nil)
	var missing *prompt.MissingArgumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "genre", missing.Field)
	assert.Empty(t, fake.Requests())
}

func TestGenerate_ComputedFieldsOverrideArgs(t *testing.T) {
	fake := providertest.New(providertest.Turn{Text: "ok"})
	cfg := New(fake)
	tmpl := mustParse(t, "Recommend a {genre} book")

	fn := func(args map[string]any) (*DynamicConfig, error) {
		return &DynamicConfig{
			ComputedFields: map[string]any{"genre": "uppercased " + args["genre"].(string)},
		}, nil
	}
	_, err := Generate(context.Background(), cfg, tmpl, map[string]any{"genre": "fantasy"}, fn)
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Recommend a uppercased fantasy book", reqs[0].Messages[0].Text())
}

func TestGenerate_DynamicParamsOverride(t *testing.T) {
	fake := providertest.New(providertest.Turn{Text: "ok"})
	cfg := New(fake, WithParams(provider.CallParams{
		Model:       "fake-1",
		Temperature: provider.Float(0.7),
	}))
	tmpl := mustParse(t, "hi")

	fn := func(map[string]any) (*DynamicConfig, error) {
		return &DynamicConfig{Params: &provider.CallParams{Temperature: provider.Float(0.1)}}, nil
	}
	_, err := Generate(context.Background(), cfg, tmpl, nil, fn)
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "fake-1", reqs[0].Params.Model)
	require.NotNil(t, reqs[0].Params.Temperature)
	assert.Equal(t, 0.1, *reqs[0].Params.Temperature)
}

func TestGenerate_PromptFnError(t *testing.T) {
	fake := providertest.New()
	cfg := New(fake)
	tmpl := mustParse(t, "hi")

	wantErr := fmt.Errorf("computed field lookup failed")
	_, err := Generate(context.Background(), cfg, tmpl, nil, func(map[string]any) (*DynamicConfig, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Empty(t, fake.Requests())
}

func TestGenerate_DeclaresTools(t *testing.T) {
	fake := providertest.New(providertest.Turn{Text: "ok"})
	cfg := New(fake, WithTools(authorTool()))
	tmpl := mustParse(t, "hi")

	_, err := Generate(context.Background(), cfg, tmpl, nil, nil)
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "getAuthor", reqs[0].Tools[0].Name)
}

// =============================================================================
// Response wrapper
// =============================================================================

func TestResponse_ToolCallsBindAndValidate(t *testing.T) {
	fake := providertest.New(providertest.Turn{
		ToolCalls:    []core.ToolCall{{Name: "getAuthor", Arguments: `{"title":"The Name of the Wind"}`}},
		FinishReason: "tool_calls",
	})
	cfg := New(fake, WithTools(authorTool()))
	tmpl := mustParse(t, "Who wrote {title}?")

	resp, err := Generate(context.Background(), cfg, tmpl, map[string]any{"title": "The Name of the Wind"}, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Content())

	invocations, err := resp.ToolCalls()
	require.NoError(t, err)
	require.Len(t, invocations, 1)
	assert.Equal(t, "The Name of the Wind", invocations[0].Args["title"])

	first, err := resp.Tool()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "getAuthor", first.Tool.Name())
}

func TestResponse_ToolCallValidationFails(t *testing.T) {
	fake := providertest.New(providertest.Turn{
		ToolCalls: []core.ToolCall{{Name: "getAuthor", Arguments: `{"title":42}`}},
	})
	cfg := New(fake, WithTools(authorTool()))
	tmpl := mustParse(t, "hi")

	resp, err := Generate(context.Background(), cfg, tmpl, nil, nil)
	require.NoError(t, err)

	_, err = resp.ToolCalls()
	var vErr *ToolValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "getAuthor", vErr.ToolName)
}

func TestResponse_UserMessageParam(t *testing.T) {
	fake := providertest.New(providertest.Turn{Text: "ok"})
	cfg := New(fake)
	tmpl := mustParse(t, "SYSTEM: be brief\nUSER: hello")

	resp, err := Generate(context.Background(), cfg, tmpl, nil, nil)
	require.NoError(t, err)

	um := resp.UserMessageParam()
	require.NotNil(t, um)
	assert.Equal(t, core.RoleUser, um.Role)
	assert.Equal(t, "hello", um.Text())
}

func TestResponse_ToolResultMessages(t *testing.T) {
	inv := &tool.Invocation{CallID: "call_1", Tool: authorTool()}
	resp := &Response{}
	msgs := resp.ToolResultMessages(tool.Result{Invocation: inv, Value: "Patrick Rothfuss"})
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleTool, msgs[0].Role)
}

// =============================================================================
// JSON output
// =============================================================================

func TestJSONOutput_JSONModeContent(t *testing.T) {
	fake := providertest.New(providertest.Turn{Text: `{"title":"Mistborn"}`})
	cfg := New(fake, WithJSONMode())
	tmpl := mustParse(t, "hi")

	resp, err := Generate(context.Background(), cfg, tmpl, nil, nil)
	require.NoError(t, err)
	require.True(t, fake.Requests()[0].JSONMode)

	out, err := JSONOutput(resp, true)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Mistborn"}`, out)
}

func TestJSONOutput_ToolArguments(t *testing.T) {
	fake := providertest.New(providertest.Turn{
		ToolCalls: []core.ToolCall{{Name: "extract", Arguments: `{"title":"Mistborn"}`}},
	})
	cfg := New(fake)
	tmpl := mustParse(t, "hi")

	resp, err := Generate(context.Background(), cfg, tmpl, nil, nil)
	require.NoError(t, err)

	out, err := JSONOutput(resp, false)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Mistborn"}`, out)
}

func TestJSONOutput_NothingToExtract(t *testing.T) {
	fake := providertest.New(providertest.Turn{Text: ""})
	cfg := New(fake)
	tmpl := mustParse(t, "hi")

	resp, err := Generate(context.Background(), cfg, tmpl, nil, nil)
	require.NoError(t, err)

	_, err = JSONOutput(resp, true)
	assert.Error(t, err)
}
