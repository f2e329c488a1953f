package gateway

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

// DefaultGenerateRateLimit is the default LLM requests per second.
const DefaultGenerateRateLimit = 2

// Ensure GenerationGateway implements the interface.
var _ driven.LLMService = (*GenerationGateway)(nil)

// GenerationConfig configures the generation gateway.
type GenerationConfig struct {
	// RateLimit is the maximum provider requests per second. Zero
	// disables rate limiting.
	RateLimit rate.Limit

	// Retry is the retry policy for transient failures.
	Retry RetryPolicy
}

// DefaultGenerationConfig returns the standard gateway configuration.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		RateLimit: DefaultGenerateRateLimit,
		Retry:     DefaultRetryPolicy(),
	}
}

// GenerationGateway wraps an LLM provider adapter with rate limiting and
// retry. Content-policy and invalid-input failures are never retried.
type GenerationGateway struct {
	provider driven.LLMService
	limiter  *rate.Limiter
	retry    RetryPolicy
}

// NewGenerationGateway wraps the given provider adapter.
func NewGenerationGateway(provider driven.LLMService, cfg GenerationConfig) *GenerationGateway {
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.BaseBackoff == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(cfg.RateLimit, 1)
	}

	return &GenerationGateway{
		provider: provider,
		limiter:  limiter,
		retry:    cfg.Retry,
	}
}

// Generate produces text completion from a prompt.
func (g *GenerationGateway) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := g.call(ctx, func() error {
		var callErr error
		out, callErr = g.provider.Generate(ctx, prompt, opts)
		return callErr
	})
	return out, err
}

// Chat conducts a multi-turn conversation.
func (g *GenerationGateway) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out string
	err := g.call(ctx, func() error {
		var callErr error
		out, callErr = g.provider.Chat(ctx, messages, opts)
		return callErr
	})
	return out, err
}

func (g *GenerationGateway) call(ctx context.Context, fn func() error) error {
	return g.retry.retry(ctx, func() error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return fn()
	})
}

// ModelName returns the provider's model name.
func (g *GenerationGateway) ModelName() string {
	return g.provider.ModelName()
}

// Ping checks provider reachability.
func (g *GenerationGateway) Ping(ctx context.Context) error {
	return g.provider.Ping(ctx)
}

// Close releases the underlying provider.
func (g *GenerationGateway) Close() error {
	return g.provider.Close()
}
