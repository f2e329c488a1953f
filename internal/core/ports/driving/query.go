package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// AskRequest is a grounded question-answering request.
type AskRequest struct {
	// Text is the question.
	Text string

	// K is the number of chunks to ground on. 0 uses the configured default.
	K int

	// Filters restricts which chunks are eligible.
	Filters domain.SearchFilters

	// Timeout bounds the whole ask round-trip. 0 means no extra bound
	// beyond the caller's context.
	Timeout time.Duration

	// UseCache consults and populates the answer cache.
	UseCache bool

	// Rerank enables the secondary lexical re-ranker.
	Rerank bool
}

// QueryService answers questions grounded in the indexed documents.
type QueryService interface {
	// Ask retrieves relevant chunks and generates a grounded answer.
	Ask(ctx context.Context, req AskRequest) (*domain.GeneratedAnswer, error)

	// Search performs pure retrieval without generation.
	Search(ctx context.Context, query domain.Query) (*domain.RetrievalResult, error)

	// Quiz generates a multiple-choice quiz about a topic, grounded in
	// retrieved chunks.
	Quiz(ctx context.Context, topic string, questions int) (*domain.Quiz, error)
}
