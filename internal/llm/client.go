// Package llm provides completion clients for the AI classification
// providers (Anthropic, OpenAI, Gemini) behind a single interface.
package llm

import "context"

// CompletionClient sends a prompt to a completion service and returns the
// raw text of the response. Implementations do not parse or validate the
// model output; that is the caller's job.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds provider selection and tuning for a completion client.
type Config struct {
	// Provider selects the backend: "anthropic", "openai", "gemini", or
	// "none" to disable AI classification entirely.
	Provider string
	// APIKey authenticates against the selected provider.
	APIKey string
	// Model overrides the provider's default model name.
	Model string
	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int
	// Temperature controls sampling randomness. Zero uses the provider
	// default.
	Temperature float64
	// RateLimit is the maximum requests per minute. Zero defaults to 60.
	RateLimit int
}

const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultGeminiModel    = "gemini-2.0-flash"

	defaultMaxTokens   = 4096
	defaultTemperature = 0.2
)

// withDefaults fills zero-valued tuning fields so providers never have to
// re-check them.
func (c Config) withDefaults(model string) Config {
	if c.Model == "" {
		c.Model = model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	return c
}
