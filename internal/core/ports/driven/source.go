package driven

import (
	"context"

	"github.com/custodia-labs/retriva/internal/core/domain"
)

// DocumentSource supplies already-normalised documents for bulk ingestion.
// Text extraction from rich formats happens upstream; a source only hands
// over plain text.
type DocumentSource interface {
	// Load reads all documents the source currently provides.
	Load(ctx context.Context) ([]domain.Document, error)

	// Watch emits a document whenever the source observes a change to it.
	// The channels close when ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.Document, <-chan error, error)

	// Close releases resources.
	Close() error
}
