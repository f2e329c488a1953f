package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedMaxBatch  = "embedding.max_batch_size"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyChunkMax       = "chunking.max_chunk_size"
	keyChunkOverlap   = "chunking.overlap"
	keyChunkMin       = "chunking.min_chunk_size"
	keyRetrievalTopK  = "retrieval.top_k"
	keyRetrievalRank  = "retrieval.rerank"
	keyGenMaxTokens   = "generation.max_tokens"
	keyGenTemperature = "generation.temperature"
	keyGenCharBudget  = "generation.context_char_budget"
	keyCacheEnabled   = "cache.enabled"
	keyCacheTTL       = "cache.ttl"
	keyIndexMetric    = "index.metric"
	keyIndexPersist   = "index.persist"
	keyIndexPath      = "index.path"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:     s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:        s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:      s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:       s.configStore.GetString(keyEmbedAPIKey),
			MaxBatchSize: s.configStore.GetInt(keyEmbedMaxBatch),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Chunking: domain.ChunkingSettings{
			MaxChunkSize: s.getInt(keyChunkMax, defaults.Chunking.MaxChunkSize),
			Overlap:      s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
			MinChunkSize: s.getInt(keyChunkMin, defaults.Chunking.MinChunkSize),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:   s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
			Rerank: s.getBool(keyRetrievalRank, defaults.Retrieval.Rerank),
		},
		Generation: domain.GenerationSettings{
			MaxTokens:         s.getInt(keyGenMaxTokens, defaults.Generation.MaxTokens),
			Temperature:       s.getFloat(keyGenTemperature, defaults.Generation.Temperature),
			ContextCharBudget: s.getInt(keyGenCharBudget, defaults.Generation.ContextCharBudget),
		},
		Cache: domain.CacheSettings{
			Enabled: s.getBool(keyCacheEnabled, defaults.Cache.Enabled),
			TTL:     s.getDuration(keyCacheTTL, defaults.Cache.TTL),
		},
		Index: domain.IndexSettings{
			Metric:  s.getMetric(keyIndexMetric, defaults.Index.Metric),
			Persist: s.getBool(keyIndexPersist, defaults.Index.Persist),
			Path:    s.configStore.GetString(keyIndexPath),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save embedding settings
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.Embedding.MaxBatchSize > 0 {
		if err := s.configStore.Set(keyEmbedMaxBatch, settings.Embedding.MaxBatchSize); err != nil {
			return fmt.Errorf("save embedding max_batch_size: %w", err)
		}
	}

	// Save LLM settings
	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	// Save chunking settings
	if err := s.configStore.Set(keyChunkMax, settings.Chunking.MaxChunkSize); err != nil {
		return fmt.Errorf("save chunking max_chunk_size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Chunking.Overlap); err != nil {
		return fmt.Errorf("save chunking overlap: %w", err)
	}
	if err := s.configStore.Set(keyChunkMin, settings.Chunking.MinChunkSize); err != nil {
		return fmt.Errorf("save chunking min_chunk_size: %w", err)
	}

	// Save retrieval settings
	if err := s.configStore.Set(keyRetrievalTopK, settings.Retrieval.TopK); err != nil {
		return fmt.Errorf("save retrieval top_k: %w", err)
	}
	if err := s.configStore.Set(keyRetrievalRank, settings.Retrieval.Rerank); err != nil {
		return fmt.Errorf("save retrieval rerank: %w", err)
	}

	// Save generation settings
	if err := s.configStore.Set(keyGenMaxTokens, settings.Generation.MaxTokens); err != nil {
		return fmt.Errorf("save generation max_tokens: %w", err)
	}
	if err := s.configStore.Set(keyGenTemperature, settings.Generation.Temperature); err != nil {
		return fmt.Errorf("save generation temperature: %w", err)
	}
	if err := s.configStore.Set(keyGenCharBudget, settings.Generation.ContextCharBudget); err != nil {
		return fmt.Errorf("save generation context_char_budget: %w", err)
	}

	// Save cache settings
	if err := s.configStore.Set(keyCacheEnabled, settings.Cache.Enabled); err != nil {
		return fmt.Errorf("save cache enabled: %w", err)
	}
	if err := s.configStore.Set(keyCacheTTL, settings.Cache.TTL.String()); err != nil {
		return fmt.Errorf("save cache ttl: %w", err)
	}

	// Save index settings
	if err := s.configStore.Set(keyIndexMetric, settings.Index.Metric.String()); err != nil {
		return fmt.Errorf("save index metric: %w", err)
	}
	if err := s.configStore.Set(keyIndexPersist, settings.Index.Persist); err != nil {
		return fmt.Errorf("save index persist: %w", err)
	}
	if settings.Index.Path != "" {
		if err := s.configStore.Set(keyIndexPath, settings.Index.Path); err != nil {
			return fmt.Errorf("save index path: %w", err)
		}
	}

	return nil
}

// SetEmbedding validates and persists embedding provider settings.
func (s *SettingsService) SetEmbedding(embedding domain.EmbeddingSettings) error {
	if !embedding.Provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", embedding.Provider)
	}

	supported := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == embedding.Provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("provider %s does not support embeddings", embedding.Provider)
	}

	if embedding.Provider.RequiresAPIKey() && embedding.APIKey == "" {
		return fmt.Errorf("API key required for %s", embedding.Provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	// Fill defaults for omitted fields
	if embedding.Model == "" {
		embedding.Model = domain.DefaultEmbeddingModels()[embedding.Provider]
	}
	if embedding.Provider.IsLocal() && embedding.BaseURL == "" {
		embedding.BaseURL = "http://localhost:11434"
	}
	if !embedding.Provider.IsLocal() {
		embedding.BaseURL = ""
	}

	if s.aiValidator != nil {
		if err := s.aiValidator.ValidateEmbedding(&embedding); err != nil {
			return fmt.Errorf("embedding configuration rejected: %w", err)
		}
	}

	settings.Embedding = embedding
	return s.Save(settings)
}

// SetLLM validates and persists generation provider settings.
func (s *SettingsService) SetLLM(llm domain.LLMSettings) error {
	if !llm.Provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", llm.Provider)
	}

	if llm.Provider.RequiresAPIKey() && llm.APIKey == "" {
		return fmt.Errorf("API key required for %s", llm.Provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	// Fill defaults for omitted fields
	if llm.Model == "" {
		llm.Model = domain.DefaultLLMModels()[llm.Provider]
	}
	if llm.Provider.IsLocal() && llm.BaseURL == "" {
		llm.BaseURL = "http://localhost:11434"
	}
	if !llm.Provider.IsLocal() {
		llm.BaseURL = ""
	}

	if s.aiValidator != nil {
		if err := s.aiValidator.ValidateLLM(&llm); err != nil {
			return fmt.Errorf("LLM configuration rejected: %w", err)
		}
	}

	settings.LLM = llm
	return s.Save(settings)
}

// SetChunking persists chunker settings.
func (s *SettingsService) SetChunking(chunking domain.ChunkingSettings) error {
	if chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("max chunk size must be positive, got %d", chunking.MaxChunkSize)
	}
	if chunking.Overlap < 0 || chunking.Overlap >= chunking.MaxChunkSize {
		return fmt.Errorf("overlap %d must be in [0, max chunk size)", chunking.Overlap)
	}
	if chunking.MinChunkSize > chunking.MaxChunkSize {
		return fmt.Errorf("min chunk size %d exceeds max chunk size %d",
			chunking.MinChunkSize, chunking.MaxChunkSize)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chunking = chunking
	return s.Save(settings)
}

// SetRetrieval persists retrieval settings.
func (s *SettingsService) SetRetrieval(retrieval domain.RetrievalSettings) error {
	if retrieval.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", retrieval.TopK)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Retrieval = retrieval
	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getMetric(key string, defaultVal domain.SimilarityMetric) domain.SimilarityMetric {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	metric := domain.SimilarityMetric(val)
	if !metric.IsValid() {
		return defaultVal
	}
	return metric
}
