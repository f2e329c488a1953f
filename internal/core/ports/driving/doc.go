// Package driving defines the interfaces through which external actors
// drive the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them; the CLI, TUI and MCP adapters consume them.
//
//   - IngestService: Document ingestion and removal
//   - QueryService: Grounded question answering and pure retrieval
//   - SettingsService: Application configuration
//   - StatusService: Provider and index health
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
