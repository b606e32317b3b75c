package file

import (
	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.SettingsLoader = (*Loader)(nil)

// Loader resolves settings from a config store, dotenv files and the environment.
type Loader struct {
	store    driven.ConfigStore
	envFiles []string
	environ  map[string]string
}

// NewLoader creates a loader over store. envFiles are dotenv files read
// before the environment is parsed.
func NewLoader(store driven.ConfigStore, envFiles ...string) *Loader {
	return &Loader{store: store, envFiles: envFiles}
}

// WithEnvironment replaces the process environment, for tests.
func (l *Loader) WithEnvironment(environ map[string]string) *Loader {
	l.environ = environ
	return l
}

// Load implements driven.SettingsLoader.
func (l *Loader) Load() (domain.AppSettings, error) {
	return LoadSettings(LoadOptions{
		Store:       l.store,
		EnvFiles:    l.envFiles,
		Environment: l.environ,
	})
}

// Keys implements driven.SettingsLoader.
func (l *Loader) Keys() []string {
	return Keys()
}

// ParseValue implements driven.SettingsLoader.
func (l *Loader) ParseValue(key, raw string) (any, error) {
	return ParseValue(key, raw)
}
