package call

import (
	"github.com/promptwire/promptwire/logging"
	"github.com/promptwire/promptwire/provider"
	"github.com/promptwire/promptwire/tool"
)

const defaultToolConcurrency = 4

// Config carries everything a call needs: the adapter to dispatch through,
// default parameters, declared tools and ambient settings. A Config is
// read-only after construction and safe for concurrent use.
type Config struct {
	Adapter      provider.Adapter
	Params       provider.CallParams
	Tools        []tool.Tool
	JSONMode     bool
	Logger       logging.Logger
	MaxToolTurns int // 0 means unbounded
	Concurrency  int64
}

// Option mutates a Config during construction.
type Option func(c *Config)

// New builds a Config for the given adapter.
func New(adapter provider.Adapter, opts ...Option) *Config {
	cfg := &Config{
		Adapter:     adapter,
		Logger:      logging.NoOpLogger{},
		Concurrency: defaultToolConcurrency,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithParams sets the default call parameters.
func WithParams(params provider.CallParams) Option {
	return func(c *Config) { c.Params = params }
}

// WithTools declares the tools available to the model.
func WithTools(tools ...tool.Tool) Option {
	return func(c *Config) { c.Tools = tools }
}

// WithJSONMode asks the provider for a JSON object response. Tool
// declarations are suppressed for JSON-mode calls.
func WithJSONMode() Option {
	return func(c *Config) { c.JSONMode = true }
}

// WithLogger sets the logger used for call and tool lifecycle events.
func WithLogger(logger logging.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithMaxToolTurns bounds the number of dispatches RunToolLoop performs.
// Zero leaves the loop unbounded.
func WithMaxToolTurns(n int) Option {
	return func(c *Config) { c.MaxToolTurns = n }
}

// WithToolConcurrency bounds parallel tool execution inside RunToolLoop.
func WithToolConcurrency(n int64) Option {
	return func(c *Config) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// DynamicConfig carries per-invocation overrides computed from the call
// arguments. It is produced fresh by a PromptFn and consumed immediately.
type DynamicConfig struct {
	// ComputedFields override template arguments of the same name.
	ComputedFields map[string]interface{}
	// Tools replace the Config's tool set for this invocation when non-nil.
	Tools []tool.Tool
	// Params override individual call parameters when non-nil.
	Params *provider.CallParams
	// Metadata is passed through untouched for caller bookkeeping.
	Metadata map[string]interface{}
}

// PromptFn computes a DynamicConfig from the call arguments. A nil PromptFn
// means a static prompt; a nil return means no overrides.
type PromptFn func(args map[string]interface{}) (*DynamicConfig, error)
