package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/verity/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

type flakyLLM struct {
	errs  []error
	calls int
}

func (f *flakyLLM) Complete(ctx context.Context, _ string, _ driven.CompleteOptions) (string, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return "", f.errs[f.calls-1]
	}
	return "ok", nil
}

func (f *flakyLLM) ModelName() string          { return "flaky" }
func (f *flakyLLM) Ping(context.Context) error { return nil }
func (f *flakyLLM) Close() error               { return nil }

type slowLLM struct{ calls int }

func (s *slowLLM) Complete(ctx context.Context, _ string, _ driven.CompleteOptions) (string, error) {
	s.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

func (s *slowLLM) ModelName() string          { return "slow" }
func (s *slowLLM) Ping(context.Context) error { return nil }
func (s *slowLLM) Close() error               { return nil }

type failingEmbedder struct{ calls int }

func (f *failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	f.calls++
	return nil, &httpclient.APIError{Provider: "x", StatusCode: 500}
}

func (f *failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	f.calls++
	return nil, &httpclient.APIError{Provider: "x", StatusCode: 500}
}

func (f *failingEmbedder) Dimensions() int            { return 3 }
func (f *failingEmbedder) ModelName() string          { return "failing" }
func (f *failingEmbedder) Ping(context.Context) error { return nil }
func (f *failingEmbedder) Close() error               { return nil }

func fastConfig() RetryConfig {
	return RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestLLM_RetriesTransientErrors(t *testing.T) {
	inner := &flakyLLM{errs: []error{
		&httpclient.NetworkError{Provider: "x", Err: errors.New("reset")},
		&httpclient.APIError{Provider: "x", StatusCode: 503},
	}}
	llm := WrapLLM(inner, fastConfig(), nil)

	out, err := llm.Complete(context.Background(), "q", driven.CompleteOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, inner.calls)
}

func TestLLM_DoesNotRetryClientErrors(t *testing.T) {
	inner := &flakyLLM{errs: []error{&httpclient.APIError{Provider: "x", StatusCode: 401}}}
	llm := WrapLLM(inner, fastConfig(), nil)

	_, err := llm.Complete(context.Background(), "q", driven.CompleteOptions{})

	var apiErr *httpclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, 1, inner.calls)
}

func TestLLM_PerAttemptTimeoutIsRetried(t *testing.T) {
	inner := &slowLLM{}
	cfg := fastConfig()
	cfg.Timeout = 5 * time.Millisecond
	llm := WrapLLM(inner, cfg, nil)

	_, err := llm.Complete(context.Background(), "q", driven.CompleteOptions{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, inner.calls)
}

func TestLLM_ParentCancellationStopsRetries(t *testing.T) {
	inner := &slowLLM{}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	llm := WrapLLM(inner, fastConfig(), nil)

	_, err := llm.Complete(ctx, "q", driven.CompleteOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestWrapLLM_NilStaysNil(t *testing.T) {
	assert.Nil(t, WrapLLM(nil, fastConfig(), nil))
}

func TestEmbedder_WrapsExhaustedFailures(t *testing.T) {
	inner := &failingEmbedder{}
	emb := WrapEmbedder(inner, fastConfig(), nil)

	_, err := emb.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, "EmbeddingError", domain.ErrorKind(err))
	assert.Equal(t, 3, inner.calls)

	_, err = emb.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, 3, emb.Dimensions())
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))

	lim := NewLimiter(0.5)
	require.NotNil(t, lim)
	assert.Equal(t, 1, lim.Burst())
	assert.Equal(t, 4, NewLimiter(4).Burst())
}

func TestLLM_RateLimiterCancellation(t *testing.T) {
	inner := &flakyLLM{}
	lim := NewLimiter(0.001)
	lim.Allow() // drain the only token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := WrapLLM(inner, fastConfig(), lim)

	_, err := llm.Complete(ctx, "q", driven.CompleteOptions{})
	assert.Error(t, err)
	assert.Equal(t, 0, inner.calls)
}

func TestRetryConfigFromTransport(t *testing.T) {
	tc := domain.DefaultConfig().Transport

	llm := LLMRetryConfig(tc)
	assert.Equal(t, tc.LLMTimeout, llm.Timeout)
	assert.Equal(t, tc.Attempts, llm.Attempts)

	emb := EmbedRetryConfig(tc)
	assert.Equal(t, tc.EmbedTimeout, emb.Timeout)
}
