package driven

import (
	"context"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for durable storage, or memory for tests.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByHash retrieves a document by content hash.
	// Returns domain.ErrNotFound when no document has that hash;
	// the ingestion pipeline uses this for idempotence.
	GetDocumentByHash(ctx context.Context, contentHash string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
