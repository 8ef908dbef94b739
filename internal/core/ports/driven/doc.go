// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Maps text to fixed-length vectors
//   - VectorIndex: Per-document exact nearest-neighbour index
//   - NormaliserRegistry: Extracts page text from PDFs and images
//   - LLMService: Chat completion, whole or streamed
//   - DocumentRegistry: In-process record of uploaded documents
//   - UploadStore: Storage for original uploads
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingCache: Skips re-embedding a known document ID
//   - PromptStore: Without it, built-in prompts are used
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
