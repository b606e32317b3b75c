package driving

import "github.com/custodia-labs/verity/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings after every override is applied.
	Get() (domain.AppSettings, error)

	// Value returns the value stored in the config file for key.
	Value(key string) (any, bool)

	// Set parses raw for key and persists it.
	Set(key, raw string) error

	// Unset removes a stored value, restoring the default.
	Unset(key string) error

	// Keys returns every recognised configuration key.
	Keys() []string

	// Path returns the config file location.
	Path() string

	// Check pings the configured providers.
	Check() ([]domain.ProviderCheck, error)
}
