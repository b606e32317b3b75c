package file

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "VERITY_"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

func (k valueKind) String() string {
	switch k {
	case kindInt:
		return "int"
	case kindFloat:
		return "float"
	case kindBool:
		return "bool"
	case kindDuration:
		return "duration"
	default:
		return "string"
	}
}

// setting binds a config key to a field of domain.AppSettings.
type setting struct {
	kind  valueKind
	apply func(s *domain.AppSettings, store driven.ConfigStore, key string) error
}

func intSetting(field func(*domain.AppSettings) *int) setting {
	return setting{kind: kindInt, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		*field(s) = st.GetInt(k)
		return nil
	}}
}

func floatSetting(field func(*domain.AppSettings) *float64) setting {
	return setting{kind: kindFloat, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		*field(s) = st.GetFloat(k)
		return nil
	}}
}

func stringSetting(field func(*domain.AppSettings) *string) setting {
	return setting{kind: kindString, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		*field(s) = st.GetString(k)
		return nil
	}}
}

func durationSetting(field func(*domain.AppSettings) *time.Duration) setting {
	return setting{kind: kindDuration, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		d, err := time.ParseDuration(st.GetString(k))
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		*field(s) = d
		return nil
	}}
}

var settings = map[string]setting{
	"engine.max_iterations":         intSetting(func(s *domain.AppSettings) *int { return &s.Engine.MaxIterations }),
	"engine.acceptance_threshold":   floatSetting(func(s *domain.AppSettings) *float64 { return &s.Engine.AcceptanceThreshold }),
	"engine.min_improvement_margin": floatSetting(func(s *domain.AppSettings) *float64 { return &s.Engine.MinImprovementMargin }),
	"engine.retrieval_k":            intSetting(func(s *domain.AppSettings) *int { return &s.Engine.RetrievalK }),
	"engine.chunk_size":             intSetting(func(s *domain.AppSettings) *int { return &s.Engine.ChunkSize }),
	"engine.chunk_overlap":          intSetting(func(s *domain.AppSettings) *int { return &s.Engine.ChunkOverlap }),
	"engine.max_file_bytes": {kind: kindInt, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		s.Engine.MaxFileBytes = int64(st.GetInt(k))
		return nil
	}},
	"transport.llm_timeout":   durationSetting(func(s *domain.AppSettings) *time.Duration { return &s.Engine.Transport.LLMTimeout }),
	"transport.embed_timeout": durationSetting(func(s *domain.AppSettings) *time.Duration { return &s.Engine.Transport.EmbedTimeout }),
	"transport.attempts": {kind: kindInt, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		n := st.GetInt(k)
		if n < 0 {
			return fmt.Errorf("%s: must not be negative", k)
		}
		s.Engine.Transport.Attempts = uint(n)
		return nil
	}},
	"transport.delay":               durationSetting(func(s *domain.AppSettings) *time.Duration { return &s.Engine.Transport.Delay }),
	"transport.max_delay":           durationSetting(func(s *domain.AppSettings) *time.Duration { return &s.Engine.Transport.MaxDelay }),
	"transport.requests_per_second": floatSetting(func(s *domain.AppSettings) *float64 { return &s.Engine.Transport.RequestsPerSecond }),
	"embedding.provider": {kind: kindString, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		s.Embedding.Provider = domain.AIProvider(st.GetString(k))
		return nil
	}},
	"embedding.model":      stringSetting(func(s *domain.AppSettings) *string { return &s.Embedding.Model }),
	"embedding.base_url":   stringSetting(func(s *domain.AppSettings) *string { return &s.Embedding.BaseURL }),
	"embedding.api_key":    stringSetting(func(s *domain.AppSettings) *string { return &s.Embedding.APIKey }),
	"embedding.dimensions": intSetting(func(s *domain.AppSettings) *int { return &s.Embedding.Dimensions }),
	"llm.provider": {kind: kindString, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		s.LLM.Provider = domain.AIProvider(st.GetString(k))
		return nil
	}},
	"llm.model":          stringSetting(func(s *domain.AppSettings) *string { return &s.LLM.Model }),
	"llm.base_url":       stringSetting(func(s *domain.AppSettings) *string { return &s.LLM.BaseURL }),
	"llm.api_key":        stringSetting(func(s *domain.AppSettings) *string { return &s.LLM.APIKey }),
	"unidoc.license_key": stringSetting(func(s *domain.AppSettings) *string { return &s.UniDoc.LicenseKey }),
	"data_dir":           stringSetting(func(s *domain.AppSettings) *string { return &s.DataDir }),
	"ephemeral": {kind: kindBool, apply: func(s *domain.AppSettings, st driven.ConfigStore, k string) error {
		s.Ephemeral = st.GetBool(k)
		return nil
	}},
}

// Keys returns every recognised configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseValue converts a command-line string into the typed value stored for key.
func ParseValue(key, raw string) (any, error) {
	def, ok := settings[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}

	var (
		v   any
		err error
	)
	switch def.kind {
	case kindInt:
		v, err = strconv.ParseInt(raw, 10, 64)
	case kindFloat:
		v, err = strconv.ParseFloat(raw, 64)
	case kindBool:
		v, err = strconv.ParseBool(raw)
	case kindDuration:
		if _, err = time.ParseDuration(raw); err == nil {
			v = raw
		}
	default:
		v = raw
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s expects a %s: %v", domain.ErrInvalidInput, key, def.kind, err)
	}
	return v, nil
}

// LoadOptions controls LoadSettings.
type LoadOptions struct {
	// Store supplies file-based values. Nil skips the TOML layer.
	Store driven.ConfigStore

	// EnvFiles are dotenv files loaded before parsing the environment.
	// Missing files are ignored. Existing variables are never overridden.
	EnvFiles []string

	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// LoadSettings resolves settings in order: defaults, TOML store, .env files,
// then VERITY_* environment variables. The result is validated.
func LoadSettings(opts LoadOptions) (domain.AppSettings, error) {
	s := domain.DefaultAppSettings()

	if opts.Store != nil {
		for _, key := range opts.Store.Keys() {
			def, ok := settings[key]
			if !ok {
				continue
			}
			if err := def.apply(&s, opts.Store, key); err != nil {
				return s, fmt.Errorf("%w: config file: %v", domain.ErrInvalidInput, err)
			}
		}
	}

	if len(opts.EnvFiles) > 0 {
		for _, f := range opts.EnvFiles {
			if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return s, fmt.Errorf("loading %s: %w", f, err)
			}
		}
	}

	envOpts := env.Options{Prefix: EnvPrefix}
	if opts.Environment != nil {
		envOpts.Environment = opts.Environment
	}
	if err := env.ParseWithOptions(&s, envOpts); err != nil {
		return s, fmt.Errorf("%w: environment: %v", domain.ErrInvalidInput, err)
	}

	if s.Embedding.Model == "" {
		s.Embedding.Model = domain.DefaultEmbeddingModels()[s.Embedding.Provider]
	}
	if s.LLM.Model == "" {
		s.LLM.Model = domain.DefaultLLMModels()[s.LLM.Provider]
	}

	if err := s.Engine.Validate(); err != nil {
		return s, err
	}
	if !s.Embedding.Provider.IsValid() {
		return s, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, s.Embedding.Provider)
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return s, fmt.Errorf("%w: unknown llm provider %q", domain.ErrInvalidInput, s.LLM.Provider)
	}
	return s, nil
}
