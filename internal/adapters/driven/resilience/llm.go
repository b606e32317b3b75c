package resilience

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/logger"
)

// Verify interface compliance.
var _ driven.LLMService = (*LLM)(nil)

// LLM wraps a language model with timeouts, rate limiting and retries.
type LLM struct {
	next    driven.LLMService
	cfg     RetryConfig
	limiter *rate.Limiter
}

// WrapLLM decorates next. A nil next returns nil so that an absent model stays absent.
func WrapLLM(next driven.LLMService, cfg RetryConfig, limiter *rate.Limiter) driven.LLMService {
	if next == nil {
		return nil
	}
	return &LLM{next: next, cfg: cfg, limiter: limiter}
}

// Complete implements driven.LLMService.
func (l *LLM) Complete(ctx context.Context, prompt string, opts driven.CompleteOptions) (string, error) {
	out, err := call(ctx, l.cfg, l.limiter, func(ctx context.Context) (string, error) {
		return l.next.Complete(ctx, prompt, opts)
	})
	if err != nil {
		logger.FromContext(ctx).Debug("llm call failed", zap.String("model", l.next.ModelName()), zap.Error(err))
	}
	return out, err
}

// ModelName implements driven.LLMService.
func (l *LLM) ModelName() string {
	return l.next.ModelName()
}

// Ping implements driven.LLMService. It is not retried.
func (l *LLM) Ping(ctx context.Context) error {
	return l.next.Ping(ctx)
}

// Close implements driven.LLMService.
func (l *LLM) Close() error {
	return l.next.Close()
}
