package services

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	loader      driven.SettingsLoader
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// aiValidator may be nil, in which case Check only reports configuration.
func NewSettingsService(configStore driven.ConfigStore, loader driven.SettingsLoader, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		loader:      loader,
		aiValidator: aiValidator,
	}
}

// Get returns the effective settings.
func (s *SettingsService) Get() (domain.AppSettings, error) {
	return s.loader.Load()
}

// Value returns the stored value for key.
func (s *SettingsService) Value(key string) (any, bool) {
	return s.configStore.Get(key)
}

// Set parses raw, persists it, and rejects values that leave the
// configuration invalid.
func (s *SettingsService) Set(key, raw string) error {
	v, err := s.loader.ParseValue(key, raw)
	if err != nil {
		return err
	}

	prev, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, v); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	if _, err := s.loader.Load(); err != nil {
		// Roll back so a bad value never sticks.
		if existed {
			_ = s.configStore.Set(key, prev)
		} else {
			_ = s.configStore.Delete(key)
		}
		return err
	}
	return nil
}

// Unset removes a stored value.
func (s *SettingsService) Unset(key string) error {
	if !slices.Contains(s.loader.Keys(), key) {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	return s.configStore.Delete(key)
}

// Keys returns every recognised configuration key.
func (s *SettingsService) Keys() []string {
	return s.loader.Keys()
}

// Path returns the config file location.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Check validates the effective provider settings by pinging each one.
func (s *SettingsService) Check() ([]domain.ProviderCheck, error) {
	settings, err := s.loader.Load()
	if err != nil {
		return nil, err
	}

	embed := domain.ProviderCheck{
		Component:  "embedding",
		Provider:   settings.Embedding.Provider,
		Model:      settings.Embedding.Model,
		Configured: settings.Embedding.IsConfigured(),
	}
	if embed.Configured && s.aiValidator != nil {
		embed.Err = s.aiValidator.ValidateEmbedding(&settings.Embedding)
	}

	llm := domain.ProviderCheck{
		Component:  "llm",
		Provider:   settings.LLM.Provider,
		Model:      settings.LLM.Model,
		Configured: settings.LLM.IsConfigured(),
	}
	if llm.Configured && s.aiValidator != nil {
		llm.Err = s.aiValidator.ValidateLLM(&settings.LLM)
	}

	return []domain.ProviderCheck{embed, llm}, nil
}
