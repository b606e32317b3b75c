// Package ai builds the model backends from settings: provider adapters
// wrapped with transport resilience, an embedding cache, and the vector index.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/verity/internal/adapters/driven/embedding/cache"
	"github.com/custodia-labs/verity/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/verity/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/verity/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/verity/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/verity/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/verity/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/verity/internal/adapters/driven/resilience"
	vectormemory "github.com/custodia-labs/verity/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when no LLM is configured or reachable.
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues that caused fallback.
	FellBack         bool     // True if the LLM was configured but unusable.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Options tunes Initialise.
type Options struct {
	// SkipPing disables connectivity checks.
	SkipPing bool
}

// Initialise builds every model backend described by settings.
//
// An unusable embedding backend is fatal because stored vectors depend on it.
// An unusable LLM is not: the engine falls back to extractive answers and
// lexical verification, and a warning is recorded.
func Initialise(ctx context.Context, settings domain.AppSettings, opts Options) (*InitResult, error) {
	transport := settings.Engine.Transport
	limiter := resilience.NewLimiter(transport.RequestsPerSecond)
	result := &InitResult{}

	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if !opts.SkipPing {
		if err := ping(ctx, embedder.Ping); err != nil {
			embedder.Close()
			return nil, fmt.Errorf("%w: service unreachable (%w). Run 'verity config check' to diagnose",
				domain.ErrEmbeddingUnavailable, err)
		}
	}
	wrapped := resilience.WrapEmbedder(embedder, resilience.EmbedRetryConfig(transport), limiter)
	result.EmbeddingService = cache.New(wrapped, 0, 0)
	result.VectorIndex = vectormemory.New(embedder.Dimensions())

	if settings.LLM.Provider == "" || settings.LLM.Provider == domain.AIProviderLocal {
		return result, nil
	}

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("LLM unavailable: %v", err))
		result.FellBack = true
	case llm == nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("LLM provider %q is not fully configured", settings.LLM.Provider))
		result.FellBack = true
	default:
		if !opts.SkipPing {
			if err := ping(ctx, llm.Ping); err != nil {
				llm.Close()
				result.Warnings = append(result.Warnings, fmt.Sprintf("LLM unreachable: %v", err))
				result.FellBack = true
				return result, nil
			}
		}
		result.LLMService = resilience.WrapLLM(llm, resilience.LLMRetryConfig(transport), limiter)
	}
	return result, nil
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}

// ValidateLLMConfig creates an LLM service and pings it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}

// CreateEmbeddingService creates the embedding service for settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return local.NewEmbeddingService(dimensions), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use local, ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service for settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
