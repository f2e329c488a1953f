package mcp

import (
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions and performs retrieval.
	Query driving.QueryService

	// Ingest manages document ingestion and removal.
	Ingest driving.IngestService

	// Status reports provider and index health.
	Status driving.StatusService

	// Progress grades quiz answers and recommends what to study next.
	Progress driving.ProgressService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Ingest, Status, and Progress are optional; their tools and
	// resources are registered only when present.
	return nil
}
