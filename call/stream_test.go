package call

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwire/promptwire/core"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/provider/providertest"
)

// =============================================================================
// Streaming
// =============================================================================

func TestGenerateStream_ConcatEqualsBlocking(t *testing.T) {
	const text = "Try Mistborn by Brandon Sanderson."
	turn := providertest.Turn{
		Text:         text,
		FinishReason: "stop",
		Model:        "fake-1",
		Usage:        &provider.Usage{InputTokens: 10, OutputTokens: 8},
	}
	tmpl := mustParse(t, "Recommend a {genre} book")
	args := map[string]any{"genre": "fantasy"}

	blocking, err := Generate(context.Background(), New(providertest.New(turn)), tmpl, args, nil)
	require.NoError(t, err)

	stream, err := GenerateStream(context.Background(), New(providertest.New(turn)), tmpl, args, nil)
	require.NoError(t, err)

	var b strings.Builder
	for stream.Next() {
		b.WriteString(stream.Current().Content())
	}
	require.NoError(t, stream.Err())
	require.NoError(t, stream.Close())

	assert.Equal(t, blocking.Content(), b.String())

	final, err := stream.Final()
	require.NoError(t, err)
	assert.Equal(t, blocking.Content(), final.Content())
	assert.Equal(t, []string{"stop"}, final.FinishReasons())
	require.NotNil(t, final.Usage())
	assert.Equal(t, int64(10), final.Usage().InputTokens)
	assert.Equal(t, int64(8), final.Usage().OutputTokens)
}

func TestStream_MergesToolCallFragments(t *testing.T) {
	fake := providertest.New(providertest.Turn{
		ToolCalls:    []core.ToolCall{{Name: "getAuthor", Arguments: `{"title":"The Name of the Wind"}`}},
		FinishReason: "tool_calls",
	})
	cfg := New(fake, WithTools(authorTool()))
	tmpl := mustParse(t, "Who wrote {title}?")

	stream, err := GenerateStream(context.Background(), cfg, tmpl, map[string]any{"title": "The Name of the Wind"}, nil)
	require.NoError(t, err)
	for stream.Next() {
	}
	require.NoError(t, stream.Err())

	final, err := stream.Final()
	require.NoError(t, err)

	invocations, err := final.ToolCalls()
	require.NoError(t, err)
	require.Len(t, invocations, 1)
	assert.Equal(t, "getAuthor", invocations[0].Tool.Name())
	assert.Equal(t, "The Name of the Wind", invocations[0].Args["title"])
	assert.NotEmpty(t, invocations[0].CallID)
}

func TestStream_MidStreamError(t *testing.T) {
	fake := providertest.New(providertest.Turn{
		Text: "partial",
		Err:  assert.AnError,
	})
	cfg := New(fake)
	tmpl := mustParse(t, "hi")

	stream, err := GenerateStream(context.Background(), cfg, tmpl, nil, nil)
	require.NoError(t, err)
	for stream.Next() {
	}
	require.ErrorIs(t, stream.Err(), assert.AnError)

	_, err = stream.Final()
	require.ErrorIs(t, err, assert.AnError)
}

func TestChunkJSONOutput(t *testing.T) {
	fake := providertest.New(providertest.Turn{Text: `{"a":1}`, FinishReason: "stop"})
	cfg := New(fake, WithJSONMode())
	tmpl := mustParse(t, "hi")

	stream, err := GenerateStream(context.Background(), cfg, tmpl, nil, nil)
	require.NoError(t, err)

	var b strings.Builder
	for stream.Next() {
		b.WriteString(ChunkJSONOutput(stream.Current(), true))
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, `{"a":1}`, b.String())
}
