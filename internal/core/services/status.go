package services

import (
	"context"
	"time"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
	"github.com/custodia-labs/retriva/internal/logger"
)

var _ driving.StatusService = (*StatusService)(nil)

// pingTimeout bounds each provider health check so a hung provider
// cannot stall the whole status report.
const pingTimeout = 5 * time.Second

// StatusService reports the health of the providers and the index.
type StatusService struct {
	embedder  driven.EmbeddingService // may be nil
	llm       driven.LLMService       // may be nil
	index     driven.VectorIndex
	documents driven.DocumentStore
	settings  domain.AppSettings
}

// NewStatusService creates a new status service. Embedder and llm may be
// nil when the corresponding provider is not configured.
func NewStatusService(
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	index driven.VectorIndex,
	documents driven.DocumentStore,
	settings domain.AppSettings,
) *StatusService {
	return &StatusService{
		embedder:  embedder,
		llm:       llm,
		index:     index,
		documents: documents,
		settings:  settings,
	}
}

// Status pings the configured providers and inspects the index.
// Provider pings that fail mark the provider unreachable rather than
// failing the whole report.
func (s *StatusService) Status(ctx context.Context) (*driving.SystemStatus, error) {
	status := &driving.SystemStatus{
		EmbeddingConfigured: s.settings.Embedding.Provider != "",
		EmbeddingModel:      s.settings.Embedding.Model,
		LLMConfigured:       s.settings.LLM.Provider != "",
		LLMModel:            s.settings.LLM.Model,
	}

	if s.embedder != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		if err := s.embedder.Ping(pingCtx); err != nil {
			logger.Debug("Embedding provider unreachable: %v", err)
		} else {
			status.EmbeddingReachable = true
		}
		cancel()
	}

	if s.llm != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		if err := s.llm.Ping(pingCtx); err != nil {
			logger.Debug("Generation provider unreachable: %v", err)
		} else {
			status.LLMReachable = true
		}
		cancel()
	}

	if s.index != nil {
		count, err := s.index.Count(ctx)
		if err != nil {
			return nil, err
		}
		version, err := s.index.Version(ctx)
		if err != nil {
			return nil, err
		}
		status.IndexEntries = count
		status.IndexVersion = version
		status.IndexDimensions = s.index.Dimensions()
		status.IndexMetric = s.index.Metric()
		status.IndexModelTag = s.index.ModelTag()
	}

	if s.documents != nil {
		docs, err := s.documents.ListDocuments(ctx)
		if err != nil {
			return nil, err
		}
		status.Documents = len(docs)
	}

	return status, nil
}
