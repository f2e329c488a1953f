// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - IngestService: chunk, embed, and commit documents to the index
//   - QueryService: retrieval, grounded answering, and quiz generation
//   - SettingsService: configuration with validation
//   - StatusService: provider and index health
package services
