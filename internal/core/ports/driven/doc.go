// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorIndex: Versioned vector storage and k-NN search
//   - DocumentStore: Document and chunk persistence
//   - EmbeddingService: Text to vector embedding
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, retrieval still works
//     but 'ask' and 'quiz' are disabled.
//   - PromptStore: User-customisable prompt templates. Embedded defaults
//     are used when absent.
//   - DocumentSource: Bulk ingestion from a directory and file watching.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
