package driving

import "github.com/custodia-labs/retriva/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbedding validates and persists embedding provider settings.
	SetEmbedding(settings domain.EmbeddingSettings) error

	// SetLLM validates and persists generation provider settings.
	SetLLM(settings domain.LLMSettings) error

	// SetChunking persists chunker settings.
	SetChunking(settings domain.ChunkingSettings) error

	// SetRetrieval persists retrieval settings.
	SetRetrieval(settings domain.RetrievalSettings) error
}
