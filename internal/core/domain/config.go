package domain

import (
	"fmt"
	"time"
)

// Default engine configuration values.
const (
	DefaultMaxIterations        = 3
	DefaultAcceptanceThreshold  = 0.7
	DefaultMinImprovementMargin = 0.02
	DefaultRetrievalK           = 4
	DefaultChunkSize            = 800
	DefaultChunkOverlap         = 150
	DefaultMaxFileBytes         = 50 << 20
)

// Config holds every tunable of the correction engine.
// There are no hidden defaults: DefaultConfig enumerates them all.
type Config struct {
	// MaxIterations bounds the correction loop. Must be >= 1.
	MaxIterations int `env:"MAX_ITERATIONS"`

	// AcceptanceThreshold is the confidence at which a draft is accepted.
	// Must be in (0,1].
	AcceptanceThreshold float64 `env:"ACCEPTANCE_THRESHOLD"`

	// MinImprovementMargin is the confidence gain required to keep iterating.
	// Must be >= 0.
	MinImprovementMargin float64 `env:"MIN_IMPROVEMENT_MARGIN"`

	// RetrievalK is the number of passages retrieved on the first iteration.
	// Must be >= 1.
	RetrievalK int `env:"RETRIEVAL_K"`

	// ChunkSize is the chunk length in characters.
	ChunkSize int `env:"CHUNK_SIZE"`

	// ChunkOverlap is the overlap between adjacent chunks in characters.
	// Must be >= 0 and smaller than ChunkSize.
	ChunkOverlap int `env:"CHUNK_OVERLAP"`

	// MaxFileBytes caps the size of a single upload.
	MaxFileBytes int64 `env:"MAX_FILE_BYTES"`

	// Transport configures calls to external model backends.
	Transport TransportConfig `envPrefix:"TRANSPORT_"`
}

// TransportConfig configures timeouts and transport-level retries.
// These are distinct from the semantic retries of the correction loop.
type TransportConfig struct {
	// LLMTimeout bounds a single language model call.
	LLMTimeout time.Duration `env:"LLM_TIMEOUT"`

	// EmbedTimeout bounds a single embedding call.
	EmbedTimeout time.Duration `env:"EMBED_TIMEOUT"`

	// Attempts is the total number of tries per call, including the first.
	Attempts uint `env:"ATTEMPTS"`

	// Delay is the initial backoff delay.
	Delay time.Duration `env:"DELAY"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `env:"MAX_DELAY"`

	// RequestsPerSecond rate limits calls per backend. Zero disables limiting.
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:        DefaultMaxIterations,
		AcceptanceThreshold:  DefaultAcceptanceThreshold,
		MinImprovementMargin: DefaultMinImprovementMargin,
		RetrievalK:           DefaultRetrievalK,
		ChunkSize:            DefaultChunkSize,
		ChunkOverlap:         DefaultChunkOverlap,
		MaxFileBytes:         DefaultMaxFileBytes,
		Transport: TransportConfig{
			LLMTimeout:        60 * time.Second,
			EmbedTimeout:      30 * time.Second,
			Attempts:          3,
			Delay:             500 * time.Millisecond,
			MaxDelay:          5 * time.Second,
			RequestsPerSecond: 0,
		},
	}
}

// Validate checks every configuration bound.
func (c Config) Validate() error {
	switch {
	case c.MaxIterations < 1:
		return fmt.Errorf("%w: max_iterations must be >= 1, got %d", ErrInvalidInput, c.MaxIterations)
	case c.AcceptanceThreshold <= 0 || c.AcceptanceThreshold > 1:
		return fmt.Errorf("%w: acceptance_threshold must be in (0,1], got %g", ErrInvalidInput, c.AcceptanceThreshold)
	case c.MinImprovementMargin < 0:
		return fmt.Errorf("%w: min_improvement_margin must be >= 0, got %g", ErrInvalidInput, c.MinImprovementMargin)
	case c.RetrievalK < 1:
		return fmt.Errorf("%w: retrieval_k must be >= 1, got %d", ErrInvalidInput, c.RetrievalK)
	case c.ChunkSize < 1:
		return fmt.Errorf("%w: chunk_size must be >= 1, got %d", ErrInvalidInput, c.ChunkSize)
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("%w: chunk_overlap must be in [0,chunk_size), got %d", ErrInvalidInput, c.ChunkOverlap)
	case c.MaxFileBytes < 1:
		return fmt.Errorf("%w: max_file_bytes must be >= 1, got %d", ErrInvalidInput, c.MaxFileBytes)
	case c.Transport.Attempts < 1:
		return fmt.Errorf("%w: transport attempts must be >= 1, got %d", ErrInvalidInput, c.Transport.Attempts)
	}
	return nil
}

// ExhaustedConfidenceCap returns the highest confidence an exhausted
// session may report. It is strictly below the acceptance threshold.
func (c Config) ExhaustedConfidenceCap() float64 {
	const epsilon = 0.01
	limit := c.AcceptanceThreshold - epsilon
	if limit < 0 {
		return 0
	}
	return limit
}
