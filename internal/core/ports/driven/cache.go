package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// EmbeddingCache tracks which documents already have embeddings.
// It is keyed by document ID only and never inspects content.
// Callers treat every error as "not cached".
type EmbeddingCache interface {
	// Exists reports whether a marker is recorded for docID.
	Exists(ctx context.Context, docID string) (bool, error)

	// Record stores a marker for docID, replacing any existing one.
	Record(ctx context.Context, docID string, chunkCount int) error

	// Get returns the marker for docID, or domain.ErrNotFound.
	Get(ctx context.Context, docID string) (*domain.CacheMarker, error)

	// Forget removes the marker for docID. Forgetting an unknown ID is a no-op.
	Forget(ctx context.Context, docID string) error

	// Close releases resources.
	Close() error
}
