package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwire/promptwire/core"
)

// Minimal valid magic headers for sniffing tests.
var (
	pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 16)...)
	wavBytes = append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 16)...)
)

func TestMessages_TextSubstitutionMatchesNaive(t *testing.T) {
	// For text-only templates, assembly must reconstruct the same string as
	// direct placeholder replacement.
	const src = "Recommend a {genre} book for a {age} year old"
	args := map[string]any{"genre": "fantasy", "age": 12}

	tmpl, err := Parse(src)
	require.NoError(t, err)
	msgs, err := tmpl.Messages(args, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleUser, msgs[0].Role)

	naive := strings.NewReplacer("{genre}", "fantasy", "{age}", "12").Replace(src)
	assert.Equal(t, naive, msgs[0].Text())

	rendered, err := tmpl.Render(args)
	require.NoError(t, err)
	assert.Equal(t, naive, rendered)
}

func TestMessages_ComputedFieldsWin(t *testing.T) {
	tmpl, err := Parse("Recommend a {genre} book")
	require.NoError(t, err)
	msgs, err := tmpl.Messages(
		map[string]any{"genre": "fantasy"},
		map[string]any{"genre": "uplifting fantasy"},
	)
	require.NoError(t, err)
	assert.Equal(t, "Recommend a uplifting fantasy book", msgs[0].Text())
}

func TestMessages_MissingArgument(t *testing.T) {
	tmpl, err := Parse("Recommend a {genre} book")
	require.NoError(t, err)
	_, err = tmpl.Messages(map[string]any{}, nil)
	require.Error(t, err)
	var merr *MissingArgumentError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "genre", merr.Field)
}

func TestMessages_NilRendersEmpty(t *testing.T) {
	tmpl, err := Parse("Note: {note}.")
	require.NoError(t, err)
	msgs, err := tmpl.Messages(map[string]any{"note": nil}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Note: .", msgs[0].Text())
}

func TestMessages_RoleOrderPreserved(t *testing.T) {
	tmpl, err := Parse(`
	SYSTEM: You are a librarian.
	USER: Recommend a {genre} book
	`)
	require.NoError(t, err)
	msgs, err := tmpl.Messages(map[string]any{"genre": "fantasy"}, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are a librarian.", msgs[0].Text())
	assert.Equal(t, core.RoleUser, msgs[1].Role)
}

func TestMessages_ImageField(t *testing.T) {
	tmpl, err := Parse("What is in {img:image}?")
	require.NoError(t, err)
	msgs, err := tmpl.Messages(map[string]any{"img": pngBytes}, nil)
	require.NoError(t, err)
	require.Len(t, msgs[0].Parts, 3)
	assert.Equal(t, core.TextPart{Text: "What is in "}, msgs[0].Parts[0])
	img, ok := msgs[0].Parts[1].(core.ImagePart)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, core.TextPart{Text: "?"}, msgs[0].Parts[2])
}

func TestMessages_MultiImageField(t *testing.T) {
	tmpl, err := Parse("Compare {shots:images}")
	require.NoError(t, err)
	msgs, err := tmpl.Messages(map[string]any{"shots": [][]byte{pngBytes, pngBytes}}, nil)
	require.NoError(t, err)
	// one text part + two image parts, source order
	require.Len(t, msgs[0].Parts, 3)
	_, ok := msgs[0].Parts[1].(core.ImagePart)
	assert.True(t, ok)
	_, ok = msgs[0].Parts[2].(core.ImagePart)
	assert.True(t, ok)
}

func TestMessages_AudioField(t *testing.T) {
	tmpl, err := Parse("Transcribe {clip:audio}")
	require.NoError(t, err)
	msgs, err := tmpl.Messages(map[string]any{"clip": wavBytes}, nil)
	require.NoError(t, err)
	audio, ok := msgs[0].Parts[1].(core.AudioPart)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(audio.MIMEType, "audio/"))
}

func TestMessages_UnsupportedMedia(t *testing.T) {
	tmpl, err := Parse("What is in {img:image}?")
	require.NoError(t, err)

	_, err = tmpl.Messages(map[string]any{"img": []byte("plain text, not an image")}, nil)
	var uerr *UnsupportedMediaError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "img", uerr.Field)

	_, err = tmpl.Messages(map[string]any{"img": 42}, nil)
	require.ErrorAs(t, err, &uerr)
}

func TestMessages_DeclaredMIMEPassthrough(t *testing.T) {
	tmpl, err := Parse("What is in {img:image}?")
	require.NoError(t, err)
	part := core.ImagePart{Data: []byte{1, 2, 3}, MIMEType: "image/webp"}
	msgs, err := tmpl.Messages(map[string]any{"img": part}, nil)
	require.NoError(t, err)
	assert.Equal(t, part, msgs[0].Parts[1])
}

func TestMessages_ListField(t *testing.T) {
	tmpl, err := Parse("Some rules:\n{rules:list}")
	require.NoError(t, err)
	msgs, err := tmpl.Messages(map[string]any{"rules": []string{"be kind", "be brief"}}, nil)
	require.NoError(t, err)
	require.Len(t, msgs[0].Parts, 3)
	assert.Equal(t, core.TextPart{Text: "be kind"}, msgs[0].Parts[1])
	assert.Equal(t, core.TextPart{Text: "be brief"}, msgs[0].Parts[2])
}

func TestMessages_ListFieldRequiresSequence(t *testing.T) {
	tmpl, err := Parse("{rules:list}")
	require.NoError(t, err)
	_, err = tmpl.Messages(map[string]any{"rules": "not a sequence"}, nil)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
}

func TestMessages_HistorySplice(t *testing.T) {
	tmpl, err := Parse(`
	SYSTEM: Stay helpful.
	MESSAGES: {history}
	USER: {question}
	`)
	require.NoError(t, err)

	history := []core.Message{
		core.NewUserTextMessage("Who wrote The Hobbit?"),
		core.NewAssistantMessage(core.TextPart{Text: "J.R.R. Tolkien."}),
	}
	msgs, err := tmpl.Messages(map[string]any{"history": history, "question": "And the sequel?"}, nil)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, core.RoleUser, msgs[1].Role)
	assert.Equal(t, core.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "And the sequel?", msgs[3].Text())
}

func TestMessages_EmptyHistorySplicesNothing(t *testing.T) {
	tmpl, err := Parse("MESSAGES: {history}\nUSER: {question}")
	require.NoError(t, err)

	for _, history := range []any{nil, []core.Message{}} {
		msgs, err := tmpl.Messages(map[string]any{"history": history, "question": "hi"}, nil)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hi", msgs[0].Text())
	}
}

func TestMessages_HistoryWrongType(t *testing.T) {
	tmpl, err := Parse("MESSAGES: {history}")
	require.NoError(t, err)
	_, err = tmpl.Messages(map[string]any{"history": "nope"}, nil)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
}
