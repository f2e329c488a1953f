package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/logger"
)

// retrieve embeds the query text once, searches the index, and hydrates
// the hits with chunk content from the document store.
func (s *QueryService) retrieve(ctx context.Context, query domain.Query) (*domain.RetrievalResult, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrIndexUnavailable
	}

	text := domain.NormalizeText(query.Text)
	if text == "" {
		return nil, domain.ErrEmptyQuery
	}

	k := query.K
	if k <= 0 {
		k = s.retrieval.TopK
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Over-fetch a little so tombstoned chunks don't shrink the result
	// below k.
	// The version travels with the hits so a commit racing the search
	// can't stamp the result with a snapshot it never scanned.
	hits, version, err := s.index.Search(ctx, vector, k+tombstoneHeadroom, query.Filters)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		if len(chunks) == k {
			break
		}
		chunk, err := s.documents.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The chunk was removed between search and hydration.
				logger.Debug("Skipping vanished chunk %s", hit.ChunkID)
				continue
			}
			return nil, fmt.Errorf("hydrating chunk %s: %w", hit.ChunkID, err)
		}
		chunks = append(chunks, domain.RetrievedChunk{Chunk: *chunk, Score: hit.Score})
	}

	result := &domain.RetrievalResult{Chunks: chunks, IndexVersion: version}
	if query.Rerank || s.retrieval.Rerank {
		rerank(result, text)
	}
	return result, nil
}

// tombstoneHeadroom is how many extra hits retrieval requests beyond k
// to compensate for chunks deleted between search and hydration.
const tombstoneHeadroom = 5

// rerank reorders retrieved chunks by lexical overlap with the query.
// The sort is stable: chunks with equal overlap keep their similarity
// order, so enabling the re-ranker never makes ordering nondeterministic.
func rerank(result *domain.RetrievalResult, queryText string) {
	terms := queryTerms(queryText)
	if len(terms) == 0 {
		return
	}

	overlaps := make([]int, len(result.Chunks))
	for i, rc := range result.Chunks {
		overlaps[i] = lexicalOverlap(terms, rc.Chunk.Content)
	}

	indices := make([]int, len(result.Chunks))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return overlaps[indices[a]] > overlaps[indices[b]]
	})

	reordered := make([]domain.RetrievedChunk, len(result.Chunks))
	for i, idx := range indices {
		reordered[i] = result.Chunks[idx]
	}
	result.Chunks = reordered
}

// queryTerms lowercases and splits the query into unique terms.
func queryTerms(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		term := strings.Trim(field, ".,;:!?\"'()[]")
		if len(term) > 1 {
			terms[term] = struct{}{}
		}
	}
	return terms
}

// lexicalOverlap counts how many query terms appear in the content.
func lexicalOverlap(terms map[string]struct{}, content string) int {
	lower := strings.ToLower(content)
	count := 0
	for term := range terms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}
