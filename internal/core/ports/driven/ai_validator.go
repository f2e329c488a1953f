package driven

import "github.com/custodia-labs/retriva/internal/core/domain"

// AIConfigValidator validates AI provider configurations by attempting
// a connection. Used by the settings service before persisting changes.
type AIConfigValidator interface {
	// ValidateEmbedding checks an embedding provider configuration.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM checks a generation provider configuration.
	ValidateLLM(config *domain.LLMSettings) error
}
