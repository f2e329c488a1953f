// Package tui provides an interactive terminal chat interface for Retriva.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/retriva/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions grounded in the indexed documents.
	Query driving.QueryService

	// Status reports provider and index health for the status bar.
	Status driving.StatusService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Status is optional; the status bar degrades to a static label.
	return nil
}
