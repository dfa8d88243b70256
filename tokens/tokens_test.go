package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptwire/promptwire/core"
)

func TestCounter(t *testing.T) {
	c, err := NewCounter("gpt-4")
	require.NoError(t, err)

	assert.Equal(t, 0, c.Count(""))
	assert.Greater(t, c.Count("Recommend a fantasy book"), 0)
}

func TestCounter_UnknownModelFallsBack(t *testing.T) {
	c, err := NewCounter("definitely-not-a-model")
	require.NoError(t, err)
	assert.Greater(t, c.Count("hello"), 0)
}

func TestCountMessages(t *testing.T) {
	c, err := NewCounter("gpt-4")
	require.NoError(t, err)

	messages := []core.Message{
		core.NewSystemMessage("You are a librarian."),
		core.NewUserTextMessage("Recommend a fantasy book"),
	}
	total := c.CountMessages(messages)
	sum := c.Count("You are a librarian.") + c.Count("Recommend a fantasy book")
	assert.Greater(t, total, sum)
}
