// Package domain defines the core business entities for Retriva.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A normalised text document submitted for ingestion
//   - Chunk: The unit of embedding and retrieval within a document
//   - IndexEntry: A (chunk, vector, metadata) triple held by the vector index
//   - RetrievalResult: Ranked chunks returned by a similarity search
//   - GeneratedAnswer: A grounded answer with provenance
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
