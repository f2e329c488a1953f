package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyQuery indicates a query was empty after normalisation.
	ErrEmptyQuery = errors.New("empty query")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the generation service is not configured.
	// Answering and quiz generation are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index is not configured.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrIndexClosed indicates the vector index has been closed.
	ErrIndexClosed = errors.New("vector index closed")

	// ErrIndexModelMismatch indicates a persisted index was produced by a
	// different embedding model or dimensionality than the one configured.
	// The index must be rebuilt, never mixed.
	ErrIndexModelMismatch = errors.New("index embedding model mismatch")

	// ErrIngestInProgress indicates the same document is already being ingested.
	ErrIngestInProgress = errors.New("ingestion already in progress")
)

// ErrorKind classifies a provider failure for retry decisions.
type ErrorKind string

// Provider error kinds.
const (
	// ErrorKindTransient marks failures worth retrying (timeouts, 5xx).
	ErrorKindTransient ErrorKind = "transient"

	// ErrorKindPermanent marks failures that will not succeed on retry.
	ErrorKindPermanent ErrorKind = "permanent"

	// ErrorKindQuota marks quota or billing exhaustion. Not retried;
	// the caller must intervene.
	ErrorKindQuota ErrorKind = "quota"

	// ErrorKindInvalidInput marks input the provider rejected.
	ErrorKindInvalidInput ErrorKind = "invalid_input"

	// ErrorKindContentPolicy marks a generation refused on policy grounds.
	// Never retried.
	ErrorKindContentPolicy ErrorKind = "content_policy"
)

// Retryable reports whether a failure of this kind may succeed on retry.
func (k ErrorKind) Retryable() bool {
	return k == ErrorKindTransient
}

// ChunkingError indicates the chunker was misconfigured or given
// unusable input.
type ChunkingError struct {
	// Reason is a human-readable description of the problem.
	Reason string
}

func (e *ChunkingError) Error() string {
	return "chunking: " + e.Reason
}

// NewChunkingError creates a ChunkingError with the given reason.
func NewChunkingError(format string, args ...any) *ChunkingError {
	return &ChunkingError{Reason: fmt.Sprintf(format, args...)}
}

// EmbeddingError is a classified failure from the embedding provider.
type EmbeddingError struct {
	// Kind classifies the failure for retry decisions.
	Kind ErrorKind

	// Err is the underlying cause.
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding (%s): %v", e.Kind, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// NewEmbeddingError wraps err as an EmbeddingError of the given kind.
func NewEmbeddingError(kind ErrorKind, err error) *EmbeddingError {
	return &EmbeddingError{Kind: kind, Err: err}
}

// GenerationError is a classified failure from the generation provider.
type GenerationError struct {
	// Kind classifies the failure for retry decisions.
	Kind ErrorKind

	// Err is the underlying cause.
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError wraps err as a GenerationError of the given kind.
func NewGenerationError(kind ErrorKind, err error) *GenerationError {
	return &GenerationError{Kind: kind, Err: err}
}

// DimensionMismatchError indicates a vector's dimensionality differs from
// the index's fixed dimensionality. Always fatal to the call, never retried.
type DimensionMismatchError struct {
	// Want is the index's dimensionality.
	Want int

	// Got is the offending vector's dimensionality.
	Got int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: index expects %d, got %d", e.Want, e.Got)
}

// IndexCommitError indicates a batch commit to the index's backing store
// failed. The entire batch is rolled back; the index is unchanged.
type IndexCommitError struct {
	// Err is the underlying storage failure.
	Err error
}

func (e *IndexCommitError) Error() string {
	return fmt.Sprintf("index commit: %v", e.Err)
}

func (e *IndexCommitError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a provider failure worth retrying.
// Dimension mismatches, permanent provider errors and content-policy
// rejections are never retryable.
func IsRetryable(err error) bool {
	var embErr *EmbeddingError
	if errors.As(err, &embErr) {
		return embErr.Kind.Retryable()
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind.Retryable()
	}
	return false
}
