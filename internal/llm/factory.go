package llm

import (
	"context"
	"fmt"
	"strings"

	"tally/internal/common"
)

// limitedClient throttles an inner client through a shared token bucket.
type limitedClient struct {
	inner   CompletionClient
	limiter *rateLimiter
}

func (c *limitedClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", err
	}
	return c.inner.Complete(ctx, prompt)
}

// Close stops the limiter's refill goroutine.
func (c *limitedClient) Close() error {
	c.limiter.close()
	return nil
}

// NewClient constructs the completion client selected by cfg.Provider and
// wraps it with a requests-per-minute limiter. An absent, unknown, or
// misconfigured provider returns an error wrapping
// common.ErrNoCompletionService so callers can degrade to rule-based
// classification instead of failing.
func NewClient(cfg Config) (CompletionClient, error) {
	var (
		inner CompletionClient
		err   error
	)

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "anthropic", "claude":
		inner, err = newAnthropicClient(cfg)
	case "openai":
		inner, err = newOpenAIClient(cfg)
	case "gemini", "google":
		inner, err = newGeminiClient(cfg)
	case "", "none":
		return nil, fmt.Errorf("%w: no AI provider configured", common.ErrNoCompletionService)
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", common.ErrNoCompletionService, cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoCompletionService, err)
	}

	return &limitedClient{inner: inner, limiter: newRateLimiter(cfg.RateLimit)}, nil
}
