// Package tokens counts prompt tokens for budgeting purposes. Counts are
// estimates from a local tokenizer and never substitute for the usage a
// provider reports on its responses.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/promptwire/promptwire/core"
)

// perMessageOverhead approximates the per-message framing tokens of chat
// completion formats.
const perMessageOverhead = 4

// Counter counts tokens with a model-appropriate tokenizer.
type Counter struct {
	tokenizer *tiktoken.Tiktoken
}

// NewCounter creates a counter for the given model name, falling back to
// cl100k_base for unknown models.
func NewCounter(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("tokens: get tokenizer: %w", err)
		}
	}
	return &Counter{tokenizer: enc}, nil
}

// Count returns the token count for a string.
func (c *Counter) Count(text string) int {
	return len(c.tokenizer.Encode(text, nil, nil))
}

// CountMessages estimates the token count of assembled messages, including
// a small per-message overhead for chat framing. Non-text parts are not
// counted.
func (c *Counter) CountMessages(messages []core.Message) int {
	total := 0
	for _, m := range messages {
		total += perMessageOverhead
		total += c.Count(string(m.Role))
		total += c.Count(m.Text())
	}
	return total
}
