package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps verity's persisted settings in config.toml.
//
// Callers address values by dotted key: "engine.max_iterations",
// "transport.attempts", "embedding.provider", "llm.model",
// "unidoc.license_key", and the top-level "data_dir" and "ephemeral".
// Each segment before the last becomes a TOML table on disk, so
// "engine.max_iterations" is written as max_iterations under [engine].
// The set of recognised keys and their types lives in settings.go; the
// store itself accepts any key.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens <configDir>/config.toml, creating configDir with
// owner-only permissions. An empty configDir means ~/.verity. A missing
// file yields an empty store; a file that is not valid TOML is an error.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".verity")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the raw value stored under a dotted key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString returns a text setting such as "llm.model", or "" when the
// key is unset or holds another type.
func (s *ConfigStore) GetString(key string) string {
	str, _ := lookup[string](s, key)
	return str
}

// GetInt returns a whole-number setting such as "engine.max_iterations".
// go-toml decodes integers as int64; plain ints come from Set.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// GetFloat returns a fractional setting such as
// "engine.acceptance_threshold". A threshold written as 1 in the file
// decodes as an integer, so integers are widened.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// GetBool returns a flag such as "ephemeral", false when unset.
func (s *ConfigStore) GetBool(key string) bool {
	b, _ := lookup[bool](s, key)
	return b
}

// Set stores one setting and rewrites config.toml.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.save()
}

// Save rewrites config.toml from memory.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// Delete unsets a setting, letting the default or environment apply again.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return s.save()
}

// Keys lists the dotted keys present in the file, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load replaces the in-memory settings with the contents of config.toml.
// A missing file leaves the store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var tables map[string]any
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return err
	}
	s.data = flattenMap(tables, "")
	return nil
}

// Path returns the location of config.toml.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// save writes the settings as TOML tables. The file may hold the UniDoc
// license key and provider API keys, so it is owner-only. Callers hold mu.
func (s *ConfigStore) save() error {
	out, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, out, 0600)
}

func lookup[T any](s *ConfigStore, key string) (T, bool) {
	val, _ := s.Get(key)
	v, ok := val.(T)
	return v, ok
}

// nestMap turns {"engine.max_iterations": 3} into
// {"engine": {"max_iterations": 3}} for marshalling.
func nestMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		segments := strings.Split(key, ".")
		table := root
		for _, seg := range segments[:len(segments)-1] {
			next, ok := table[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				table[seg] = next
			}
			table = next
		}
		table[segments[len(segments)-1]] = value
	}
	return root
}

// flattenMap is the inverse of nestMap: decoded TOML tables become dotted
// keys. A nil map flattens to an empty one.
func flattenMap(tables map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)
	for name, value := range tables {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if sub, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(sub, key) {
				flat[k] = v
			}
			continue
		}
		flat[key] = value
	}
	return flat
}
