package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/retriva/internal/chunker"
	"github.com/custodia-labs/retriva/internal/core/domain"
	"github.com/custodia-labs/retriva/internal/core/ports/driven"
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
	"github.com/custodia-labs/retriva/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the document ingestion pipeline: chunk, embed, and
// commit to the vector index as one atomic batch.
type IngestService struct {
	chunker   *chunker.Chunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	documents driven.DocumentStore

	// inflight collapses concurrent ingestions of identical content into
	// a single pipeline run, keyed by content hash.
	inflight singleflight.Group
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	ch *chunker.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	documents driven.DocumentStore,
) *IngestService {
	return &IngestService{
		chunker:   ch,
		embedder:  embedder,
		index:     index,
		documents: documents,
	}
}

// Ingest processes a single document through the pipeline.
// Re-ingesting unchanged content is a no-op reported as Skipped.
func (s *IngestService) Ingest(ctx context.Context, doc domain.Document) (*domain.IngestionReport, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrIndexUnavailable
	}

	doc.Content = domain.NormalizeText(doc.Content)
	if doc.Content == "" {
		return nil, domain.NewChunkingError("document %s has no content after normalisation", doc.ID)
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.ContentHash = domain.HashContent(doc.Content)

	// Collapse concurrent ingestions of the same content. Losers of the
	// race observe the winner's report as a skip.
	result, err, shared := s.inflight.Do(doc.ContentHash, func() (any, error) {
		return s.ingest(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	report := result.(*domain.IngestionReport)
	if shared && report.DocumentID != doc.ID {
		return &domain.IngestionReport{
			DocumentID:   report.DocumentID,
			Skipped:      true,
			IndexVersion: report.IndexVersion,
		}, nil
	}
	return report, nil
}

// ingest is the single-flight pipeline body.
func (s *IngestService) ingest(ctx context.Context, doc domain.Document) (*domain.IngestionReport, error) {
	start := time.Now()
	logger.Section("Ingest " + doc.ID)

	// Unchanged content is a no-op.
	existing, err := s.documents.GetDocumentByHash(ctx, doc.ContentHash)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking content hash: %w", err)
	}
	if existing != nil {
		logger.Debug("Content hash %s already ingested as %s, skipping", doc.ContentHash[:12], existing.ID)
		version, err := s.index.Version(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.IngestionReport{
			DocumentID:   existing.ID,
			Skipped:      true,
			IndexVersion: version,
			Duration:     time.Since(start),
		}, nil
	}

	chunks, err := s.chunker.Split(&doc)
	if err != nil {
		return nil, err
	}
	logger.Debug("Split into %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding document %s: %w", doc.ID, err)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	doc.IngestedAt = time.Now().UTC()
	if err := s.documents.SaveDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("saving document %s: %w", doc.ID, err)
	}
	if err := s.documents.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("saving chunks for %s: %w", doc.ID, err)
	}

	// Index commit comes last so a failure leaves no searchable state.
	entries := make([]domain.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = domain.IndexEntry{
			ChunkID: chunk.ID,
			Vector:  chunk.Embedding,
			Meta: domain.EntryMeta{
				DocumentID: doc.ID,
				SourceURI:  doc.SourceURI,
				Position:   chunk.Position,
			},
		}
	}

	version, err := s.index.Insert(ctx, entries)
	if err != nil {
		// Roll the stored document back so retries start clean.
		if delErr := s.documents.DeleteDocument(ctx, doc.ID); delErr != nil {
			logger.Warn("Rollback of document %s failed: %v", doc.ID, delErr)
		}
		return nil, fmt.Errorf("committing document %s to index: %w", doc.ID, err)
	}

	logger.Info("Ingested %s: %d chunks, index version %d", doc.ID, len(chunks), version)
	return &domain.IngestionReport{
		DocumentID:    doc.ID,
		ChunksCreated: len(chunks),
		IndexVersion:  version,
		Duration:      time.Since(start),
	}, nil
}

// IngestAll processes every document, continuing past per-document
// failures. The returned error joins all per-document failures.
func (s *IngestService) IngestAll(ctx context.Context, docs []domain.Document) ([]domain.IngestionReport, error) {
	reports := make([]domain.IngestionReport, 0, len(docs))
	var errs []error

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		report, err := s.Ingest(ctx, doc)
		if err != nil {
			logger.Warn("Ingestion of %s failed: %v", doc.ID, err)
			errs = append(errs, fmt.Errorf("document %s: %w", doc.ID, err))
			continue
		}
		reports = append(reports, *report)
	}

	return reports, errors.Join(errs...)
}

// Remove deletes a document's chunks from the index and the document
// from the store. Removing an unknown document is an error.
func (s *IngestService) Remove(ctx context.Context, documentID string) error {
	if s.index == nil {
		return domain.ErrIndexUnavailable
	}

	chunks, err := s.documents.GetChunks(ctx, documentID)
	if err != nil {
		return fmt.Errorf("loading chunks for %s: %w", documentID, err)
	}

	if _, err := s.documents.GetDocument(ctx, documentID); err != nil {
		return fmt.Errorf("loading document %s: %w", documentID, err)
	}

	chunkIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		chunkIDs[i] = chunk.ID
	}

	// Index first: a failure here leaves the document intact and retryable.
	if len(chunkIDs) > 0 {
		if _, err := s.index.Delete(ctx, chunkIDs); err != nil {
			return fmt.Errorf("removing %s from index: %w", documentID, err)
		}
	}

	if err := s.documents.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}

	logger.Info("Removed document %s (%d chunks)", documentID, len(chunkIDs))
	return nil
}
