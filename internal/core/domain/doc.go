// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded document and its statistics
//   - PageChunk: Page-tagged text produced by extraction
//   - SubChunk: The overlapping word window that is embedded and indexed
//   - RetrievedChunk: A ranked retrieval hit
//   - CacheMarker: Presence record for computed embeddings
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
