package driven

import "github.com/custodia-labs/verity/internal/core/domain"

// SettingsLoader resolves layered application settings.
type SettingsLoader interface {
	// Load resolves defaults, stored values and environment overrides,
	// returning validated settings.
	Load() (domain.AppSettings, error)

	// Keys returns every recognised configuration key.
	Keys() []string

	// ParseValue converts a raw string into the typed value stored for key.
	// Unknown keys and malformed values wrap domain.ErrInvalidInput.
	ParseValue(key, raw string) (any, error)
}
