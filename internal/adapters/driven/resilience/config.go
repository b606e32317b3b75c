// Package resilience decorates model backends with per-call timeouts,
// rate limiting and transport-level retries.
//
// These retries cover transient transport failures only. The semantic
// retries of the correction loop live in the services layer.
package resilience

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/verity/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/verity/internal/core/domain"
)

// RetryConfig is the retry policy for one backend.
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
	Timeout  time.Duration
}

// LLMRetryConfig derives the language model policy from transport settings.
func LLMRetryConfig(t domain.TransportConfig) RetryConfig {
	return RetryConfig{Attempts: t.Attempts, Delay: t.Delay, MaxDelay: t.MaxDelay, Timeout: t.LLMTimeout}
}

// EmbedRetryConfig derives the embedding policy from transport settings.
func EmbedRetryConfig(t domain.TransportConfig) RetryConfig {
	return RetryConfig{Attempts: t.Attempts, Delay: t.Delay, MaxDelay: t.MaxDelay, Timeout: t.EmbedTimeout}
}

// ToRetryOptions converts the policy into retry-go options bound to ctx.
func (rc RetryConfig) ToRetryOptions(ctx context.Context) []retry.Option {
	attempts := rc.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && httpclient.IsTemporary(err)
		}),
	}
}

// NewLimiter returns a limiter for rps requests per second, or nil when rps is zero.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// call runs fn with a per-attempt timeout under the retry policy.
func call[T any](ctx context.Context, rc RetryConfig, limiter *rate.Limiter, fn func(context.Context) (T, error)) (T, error) {
	return retry.DoWithData(func() (T, error) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				var zero T
				return zero, retry.Unrecoverable(err)
			}
		}
		attemptCtx := ctx
		if rc.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, rc.Timeout)
			defer cancel()
		}
		return fn(attemptCtx)
	}, rc.ToRetryOptions(ctx)...)
}
