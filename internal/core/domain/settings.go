package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// MaxBatchSize is the provider-imposed maximum texts per request.
	MaxBatchSize int
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

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generation model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds the chunker configuration.
type ChunkingSettings struct {
	// MaxChunkSize is the maximum chunk length in characters.
	MaxChunkSize int

	// Overlap is the number of characters shared by adjacent chunks.
	Overlap int

	// MinChunkSize is the smallest chunk the splitter will emit on its own;
	// runts merge into their predecessor.
	MinChunkSize int
}

// RetrievalSettings holds query-time retrieval configuration.
type RetrievalSettings struct {
	// TopK is the default number of chunks to retrieve.
	TopK int

	// Rerank enables the secondary lexical re-ranker.
	Rerank bool
}

// GenerationSettings holds answer generation configuration.
type GenerationSettings struct {
	// MaxTokens caps generated answer length.
	MaxTokens int

	// Temperature controls generation randomness.
	Temperature float64

	// ContextCharBudget caps the total characters of retrieved text
	// placed in the generation context.
	ContextCharBudget int
}

// CacheSettings holds result cache configuration.
type CacheSettings struct {
	// Enabled turns the answer cache on.
	Enabled bool

	// TTL is how long a cached answer stays valid regardless of
	// index version.
	TTL time.Duration
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Metric is the similarity metric, fixed per index instance.
	Metric SimilarityMetric

	// Persist enables the SQLite-backed persistent index.
	Persist bool

	// Path is the persistent index location. Empty means the default
	// data directory.
	Path string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds generation provider settings.
	LLM LLMSettings

	// Chunking holds chunker settings.
	Chunking ChunkingSettings

	// Retrieval holds retrieval settings.
	Retrieval RetrievalSettings

	// Generation holds answer generation settings.
	Generation GenerationSettings

	// Cache holds result cache settings.
	Cache CacheSettings

	// Index holds vector index settings.
	Index IndexSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users must set them up explicitly.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Chunking: ChunkingSettings{
			MaxChunkSize: 1000,
			Overlap:      200,
			MinChunkSize: 100,
		},
		Retrieval: RetrievalSettings{
			TopK:   3,
			Rerank: false,
		},
		Generation: GenerationSettings{
			MaxTokens:         256,
			Temperature:       0.7,
			ContextCharBudget: 6000,
		},
		Cache: CacheSettings{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Index: IndexSettings{
			Metric:  MetricCosine,
			Persist: true,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}
