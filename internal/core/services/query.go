package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
	"github.com/custodia-labs/retriva/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers questions grounded in the indexed documents.
// Retrieval works without an LLM; Ask and Quiz require one.
type QueryService struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	documents driven.DocumentStore
	llm       driven.LLMService
	prompts   driven.PromptStore
	cache     *ResultCache

	retrieval  domain.RetrievalSettings
	generation domain.GenerationSettings
	cacheCfg   domain.CacheSettings
}

// QueryConfig bundles the dependencies and settings for a QueryService.
type QueryConfig struct {
	Embedder   driven.EmbeddingService
	Index      driven.VectorIndex
	Documents  driven.DocumentStore
	LLM        driven.LLMService // optional; Ask and Quiz fail without it
	Prompts    driven.PromptStore
	Retrieval  domain.RetrievalSettings
	Generation domain.GenerationSettings
	Cache      domain.CacheSettings
}

// NewQueryService creates a new query service.
func NewQueryService(cfg QueryConfig) *QueryService {
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = domain.DefaultAppSettings().Retrieval.TopK
	}
	if cfg.Generation.ContextCharBudget <= 0 {
		cfg.Generation.ContextCharBudget = domain.DefaultAppSettings().Generation.ContextCharBudget
	}

	var cache *ResultCache
	if cfg.Cache.Enabled {
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = domain.DefaultAppSettings().Cache.TTL
		}
		cache = NewResultCache(ttl)
	}

	return &QueryService{
		embedder:   cfg.Embedder,
		index:      cfg.Index,
		documents:  cfg.Documents,
		llm:        cfg.LLM,
		prompts:    cfg.Prompts,
		cache:      cache,
		retrieval:  cfg.Retrieval,
		generation: cfg.Generation,
		cacheCfg:   cfg.Cache,
	}
}

// Search performs pure retrieval without generation.
func (s *QueryService) Search(ctx context.Context, query domain.Query) (*domain.RetrievalResult, error) {
	return s.retrieve(ctx, query)
}

// Ask retrieves relevant chunks and generates a grounded answer.
func (s *QueryService) Ask(ctx context.Context, req driving.AskRequest) (*domain.GeneratedAnswer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	text := domain.NormalizeText(req.Text)
	if text == "" {
		return nil, domain.ErrEmptyQuery
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	k := req.K
	if k <= 0 {
		k = s.retrieval.TopK
	}

	query := domain.Query{Text: text, K: k, Filters: req.Filters, Rerank: req.Rerank}

	if req.UseCache && s.cache != nil {
		version, err := s.index.Version(ctx)
		if err != nil {
			return nil, err
		}
		key := askCacheKey(query)
		return s.cache.GetOrCompute(ctx, key, version, func(ctx context.Context) (*domain.GeneratedAnswer, error) {
			return s.answer(ctx, query)
		})
	}

	return s.answer(ctx, query)
}

// askCacheKey builds a stable cache key from the full request shape.
func askCacheKey(query domain.Query) string {
	return fmt.Sprintf("%s|k=%d|%s|rerank=%t",
		query.Text, query.K, query.Filters.Canonical(), query.Rerank)
}

// answer runs retrieval and grounded generation.
func (s *QueryService) answer(ctx context.Context, query domain.Query) (*domain.GeneratedAnswer, error) {
	result, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	contextText, citations := s.buildContext(result)
	logger.Debug("Grounding on %d chunks (%d chars)", len(citations), len(contextText))

	template, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return nil, fmt.Errorf("loading answer prompt: %w", err)
	}
	prompt := fmt.Sprintf(template, contextText, query.Text)

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.generation.MaxTokens,
		Temperature: s.generation.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &domain.GeneratedAnswer{
		Text:         strings.TrimSpace(text),
		Citations:    citations,
		IndexVersion: result.IndexVersion,
		Model:        s.llm.ModelName(),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// buildContext concatenates retrieved chunks into the generation context,
// respecting the character budget. When the budget is tight the
// lowest-scoring chunks are dropped first; the survivors keep their
// retrieval order.
func (s *QueryService) buildContext(result *domain.RetrievalResult) (string, []string) {
	budget := s.generation.ContextCharBudget

	// Chunks arrive best-first, so trimming from the tail drops the
	// lowest-scoring ones.
	included := make([]domain.RetrievedChunk, 0, len(result.Chunks))
	used := 0
	for _, rc := range result.Chunks {
		cost := len(rc.Chunk.Content) + len(contextSeparator)
		if used+cost > budget && len(included) > 0 {
			break
		}
		included = append(included, rc)
		used += cost
	}

	var b strings.Builder
	citations := make([]string, len(included))
	for i, rc := range included {
		if i > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(rc.Chunk.Content)
		citations[i] = rc.Chunk.ID
	}
	return b.String(), citations
}

// contextSeparator delimits chunks inside the generation context.
const contextSeparator = "\n\n---\n\n"

// CacheStats returns result cache statistics, or zero stats when the
// cache is disabled.
func (s *QueryService) CacheStats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return s.cache.Stats()
}

// InvalidateCache drops all cached answers. Ingestion and removal call
// this so answers never outlive the index state they were grounded on
// longer than a version check would allow.
func (s *QueryService) InvalidateCache() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}
