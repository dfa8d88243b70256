package promptfile

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwire/promptwire/prompt"
)

const bookManifest = `---
name: book_recommendation
description: Recommends a book for a genre.
provider: openai
model: gpt-4o-mini
params:
  temperature: 0.7
  max_tokens: 512
args: [genre]
---
SYSTEM: You are a librarian with strong opinions.
USER: Recommend a {genre} book
`

func TestParseBytes(t *testing.T) {
	f, err := ParseBytes([]byte(bookManifest))
	require.NoError(t, err)

	assert.Equal(t, "book_recommendation", f.Name)
	assert.Equal(t, "openai", f.Provider)
	assert.Equal(t, "gpt-4o-mini", f.Params.Model)
	require.NotNil(t, f.Params.Temperature)
	assert.Equal(t, 0.7, *f.Params.Temperature)
	require.NotNil(t, f.Params.MaxTokens)
	assert.Equal(t, int64(512), *f.Params.MaxTokens)
	assert.Equal(t, []string{"genre"}, f.Args)
	assert.False(t, f.JSONMode)

	msgs, err := f.Template.Messages(map[string]any{"genre": "fantasy"}, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Recommend a fantasy book", msgs[1].Text())
}

func TestParseBytes_ToolsAndJSONMode(t *testing.T) {
	manifest := `---
name: extract_book
tools: [getAuthor]
json_mode: true
---
Extract the book from: {text}
`
	f, err := ParseBytes([]byte(manifest))
	require.NoError(t, err)
	assert.Equal(t, []string{"getAuthor"}, f.Tools)
	assert.True(t, f.JSONMode)
}

func TestParseBytes_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"missing name", "---\ndescription: x\n---\nbody {a}\n"},
		{"missing body", "---\nname: x\n---\n\n"},
		{"unterminated frontmatter", "---\nname: x\nbody\n"},
		{"bad yaml", "---\nname: [\n---\nbody\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.manifest))
			require.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestParseBytes_BadTemplate(t *testing.T) {
	_, err := ParseBytes([]byte("---\nname: x\n---\nbroken {a\n"))
	var tErr *prompt.TemplateError
	require.ErrorAs(t, err, &tErr)
}

func TestParseFS(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/book.prompt": &fstest.MapFile{Data: []byte(bookManifest)},
	}
	f, err := ParseFS(fsys, "prompts/book.prompt")
	require.NoError(t, err)
	assert.Equal(t, "book_recommendation", f.Name)

	_, err = ParseFS(fsys, "prompts/missing.prompt")
	assert.Error(t, err)
}

func TestCheckArgs(t *testing.T) {
	f, err := ParseBytes([]byte(bookManifest))
	require.NoError(t, err)

	require.NoError(t, f.CheckArgs(map[string]any{"genre": "fantasy"}))

	err = f.CheckArgs(map[string]any{})
	var missing *prompt.MissingArgumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "genre", missing.Field)
}
