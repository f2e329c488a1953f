package gateway

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
)

// Default embedding gateway values.
const (
	DefaultEmbedConcurrency = 4
	DefaultEmbedRateLimit   = 10 // requests per second
)

// Ensure EmbeddingGateway implements the interface.
var _ driven.EmbeddingService = (*EmbeddingGateway)(nil)

// EmbeddingConfig configures the embedding gateway.
type EmbeddingConfig struct {
	// Concurrency bounds the number of in-flight provider requests.
	Concurrency int

	// RateLimit is the maximum provider requests per second. Zero
	// disables rate limiting.
	RateLimit rate.Limit

	// Retry is the retry policy for transient failures.
	Retry RetryPolicy
}

// DefaultEmbeddingConfig returns the standard gateway configuration.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Concurrency: DefaultEmbedConcurrency,
		RateLimit:   DefaultEmbedRateLimit,
		Retry:       DefaultRetryPolicy(),
	}
}

// EmbeddingGateway wraps a provider adapter with sub-batching, bounded
// concurrency, rate limiting, and retry. Outputs always align with
// inputs by position.
type EmbeddingGateway struct {
	provider    driven.EmbeddingService
	limiter     *rate.Limiter
	concurrency int
	retry       RetryPolicy
}

// NewEmbeddingGateway wraps the given provider adapter.
func NewEmbeddingGateway(provider driven.EmbeddingService, cfg EmbeddingConfig) *EmbeddingGateway {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultEmbedConcurrency
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.BaseBackoff == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(cfg.RateLimit, int(cfg.RateLimit))
	}

	return &EmbeddingGateway{
		provider:    provider,
		limiter:     limiter,
		concurrency: cfg.Concurrency,
		retry:       cfg.Retry,
	}
}

// Embed generates an embedding for a single text.
func (g *EmbeddingGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := g.call(ctx, func() error {
		var callErr error
		vec, callErr = g.provider.Embed(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(vec) != g.provider.Dimensions() {
		return nil, &domain.DimensionMismatchError{Want: g.provider.Dimensions(), Got: len(vec)}
	}
	return vec, nil
}

// EmbedBatch splits texts into provider-sized sub-batches, runs them
// with bounded concurrency, and reassembles results in input order. Any
// sub-batch failure fails the whole call.
func (g *EmbeddingGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	batchSize := g.provider.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	results := make([][]float32, len(texts))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.concurrency)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		sub := texts[start:end]
		grp.Go(func() error {
			var vecs [][]float32
			err := g.call(grpCtx, func() error {
				var callErr error
				vecs, callErr = g.provider.EmbedBatch(grpCtx, sub)
				return callErr
			})
			if err != nil {
				return err
			}
			if len(vecs) != len(sub) {
				return domain.NewEmbeddingError(domain.ErrorKindPermanent,
					fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), len(sub)))
			}
			for i, vec := range vecs {
				if len(vec) != g.provider.Dimensions() {
					return &domain.DimensionMismatchError{Want: g.provider.Dimensions(), Got: len(vec)}
				}
				results[start+i] = vec
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// call applies rate limiting and retry around a provider request.
func (g *EmbeddingGateway) call(ctx context.Context, fn func() error) error {
	return g.retry.retry(ctx, func() error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return fn()
	})
}

// Dimensions returns the provider's embedding dimensionality.
func (g *EmbeddingGateway) Dimensions() int {
	return g.provider.Dimensions()
}

// ModelName returns the provider's model name.
func (g *EmbeddingGateway) ModelName() string {
	return g.provider.ModelName()
}

// MaxBatchSize returns the provider's batch limit.
func (g *EmbeddingGateway) MaxBatchSize() int {
	return g.provider.MaxBatchSize()
}

// Ping checks provider reachability.
func (g *EmbeddingGateway) Ping(ctx context.Context) error {
	return g.provider.Ping(ctx)
}

// Close releases the underlying provider.
func (g *EmbeddingGateway) Close() error {
	return g.provider.Close()
}
