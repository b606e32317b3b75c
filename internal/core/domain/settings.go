package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal is the built-in offline provider.
	// Embeddings use feature hashing; there is no local LLM.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Built-in (offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `env:"PROVIDER"`

	// Model is the embedding model name.
	Model string `env:"MODEL"`

	// BaseURL is the API endpoint.
	BaseURL string `env:"BASE_URL"`

	// APIKey is the API key (for OpenAI).
	APIKey string `env:"API_KEY"`

	// Dimensions overrides the model's vector size.
	Dimensions int `env:"DIMENSIONS"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// UniDocSettings holds the unioffice license.
type UniDocSettings struct {
	// LicenseKey is a metered API key from unidoc.io. Without it unioffice
	// refuses to read or write documents.
	LicenseKey string `env:"LICENSE_KEY"`
}

// Licensed reports whether a license key is set.
func (u UniDocSettings) Licensed() bool {
	return u.LicenseKey != ""
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `env:"PROVIDER"`

	// Model is the LLM model name.
	Model string `env:"MODEL"`

	// BaseURL is the API endpoint.
	BaseURL string `env:"BASE_URL"`

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string `env:"API_KEY"`
}

// IsConfigured returns true if the LLM provider is set up.
// The local provider has no language model.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Engine holds the correction engine configuration.
	Engine Config

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings `envPrefix:"EMBEDDING_"`

	// LLM holds LLM provider settings.
	LLM LLMSettings `envPrefix:"LLM_"`

	// UniDoc holds the unioffice license used for DOCX reports and uploads.
	UniDoc UniDocSettings `envPrefix:"UNIDOC_"`

	// DataDir holds the database and prompt files.
	DataDir string `env:"DATA_DIR"`

	// Ephemeral keeps documents in memory only.
	Ephemeral bool `env:"EPHEMERAL"`
}

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings default to the offline provider; the LLM is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Engine: DefaultConfig(),
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
		},
		LLM: LLMSettings{},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "hashing-512",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Built-in
		"hashing-512": 512,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// ProviderCheck reports the connectivity of one configured provider.
type ProviderCheck struct {
	// Component is "embedding" or "llm".
	Component string

	Provider AIProvider
	Model    string

	// Configured is false when the provider is unset or missing credentials.
	Configured bool

	// Err is the ping failure, if any.
	Err error
}

// OK reports whether the provider is configured and reachable.
func (c ProviderCheck) OK() bool {
	return c.Configured && c.Err == nil
}
