package resilience

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Embedder wraps an embedding backend with timeouts, rate limiting and retries.
// Exhausted failures are reported as domain.ErrEmbedding.
type Embedder struct {
	next    driven.EmbeddingService
	cfg     RetryConfig
	limiter *rate.Limiter
}

// WrapEmbedder decorates next.
func WrapEmbedder(next driven.EmbeddingService, cfg RetryConfig, limiter *rate.Limiter) *Embedder {
	return &Embedder{next: next, cfg: cfg, limiter: limiter}
}

// Embed implements driven.EmbeddingService.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := call(ctx, e.cfg, e.limiter, func(ctx context.Context) ([]float32, error) {
		return e.next.Embed(ctx, text)
	})
	return vec, e.wrap(ctx, err)
}

// EmbedBatch implements driven.EmbeddingService.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := call(ctx, e.cfg, e.limiter, func(ctx context.Context) ([][]float32, error) {
		return e.next.EmbedBatch(ctx, texts)
	})
	return vecs, e.wrap(ctx, err)
}

func (e *Embedder) wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrEmbedding, e.next.ModelName(), err)
}

// Dimensions implements driven.EmbeddingService.
func (e *Embedder) Dimensions() int { return e.next.Dimensions() }

// ModelName implements driven.EmbeddingService.
func (e *Embedder) ModelName() string { return e.next.ModelName() }

// Ping implements driven.EmbeddingService.
func (e *Embedder) Ping(ctx context.Context) error { return e.next.Ping(ctx) }

// Close implements driven.EmbeddingService.
func (e *Embedder) Close() error { return e.next.Close() }
