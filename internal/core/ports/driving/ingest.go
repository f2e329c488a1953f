package driving

import (
	"context"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// IngestService runs the document ingestion pipeline:
// chunk, embed, and commit to the vector index as one atomic batch.
type IngestService interface {
	// Ingest processes a single document. Re-ingesting a document with an
	// unchanged content hash is a no-op reported as Skipped. Concurrent
	// ingestions of the same content collapse into one attempt.
	Ingest(ctx context.Context, doc domain.Document) (*domain.IngestionReport, error)

	// IngestAll processes every document a source provides, continuing
	// past per-document failures. Reports are in source order.
	IngestAll(ctx context.Context, docs []domain.Document) ([]domain.IngestionReport, error)

	// Remove deletes a document's chunks from the index and the document
	// from the store.
	Remove(ctx context.Context, documentID string) error
}
