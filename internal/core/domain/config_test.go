package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 0.7, cfg.AcceptanceThreshold)
	assert.Equal(t, 0.02, cfg.MinImprovementMargin)
	assert.Equal(t, 4, cfg.RetrievalK)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 150, cfg.ChunkOverlap)
	assert.Equal(t, int64(50<<20), cfg.MaxFileBytes)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"zero threshold", func(c *Config) { c.AcceptanceThreshold = 0 }},
		{"threshold above one", func(c *Config) { c.AcceptanceThreshold = 1.01 }},
		{"negative margin", func(c *Config) { c.MinImprovementMargin = -0.1 }},
		{"zero k", func(c *Config) { c.RetrievalK = 0 }},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }},
		{"overlap not below size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{"zero file size", func(c *Config) { c.MaxFileBytes = 0 }},
		{"zero attempts", func(c *Config) { c.Transport.Attempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestConfig_ValidateAcceptsThresholdOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AcceptanceThreshold = 1
	cfg.MinImprovementMargin = 0
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ExhaustedConfidenceCap(t *testing.T) {
	cfg := DefaultConfig()
	assert.Less(t, cfg.ExhaustedConfidenceCap(), cfg.AcceptanceThreshold)

	cfg.AcceptanceThreshold = 0.005
	assert.Equal(t, 0.0, cfg.ExhaustedConfidenceCap())
}
