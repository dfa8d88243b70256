// Package groq implements provider.Adapter for the Groq API, which speaks
// the OpenAI chat-completions wire protocol on its own endpoint.
package groq

import (
	"os"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/promptwire/promptwire/provider/openai"
)

const baseURL = "https://api.groq.com/openai/v1"

// Options configure the Groq adapter.
type Options struct {
	Model  string
	APIKey string
}

// New creates a Groq adapter. The API key falls back to GROQ_API_KEY.
func New(optFns ...func(o *Options)) *openai.Adapter {
	opts := Options{Model: "llama-3.3-70b-versatile"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("GROQ_API_KEY")
	}

	client := openaisdk.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL),
	)
	return openai.NewFromClient(&client, func(o *openai.Options) {
		o.Model = opts.Model
		o.Name = "groq"
	})
}
