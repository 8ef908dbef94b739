package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorIndex stores one exact nearest-neighbour index per document.
// Each index holds the sub-chunk vectors of a document and the parallel
// sub-chunk metadata, and is persisted under the document ID.
type VectorIndex interface {
	// Build replaces the index for docID with the given vectors and metadata.
	// Returns domain.ErrIndexBuild if vectors is empty, if the metadata does not
	// line up with the vectors, or if the vector dimensions are inconsistent.
	// Either the whole index is installed and persisted or nothing is.
	Build(ctx context.Context, docID string, vectors [][]float32, meta []domain.SubChunk) error

	// Search returns up to topK rows nearest to query by L2 distance, nearest first.
	// Loads the index from disk if it is not resident.
	// Returns domain.ErrIndexNotFound if no index exists for docID.
	Search(ctx context.Context, docID string, query []float32, topK int) ([]VectorHit, error)

	// Metadata returns the stored sub-chunks for docID in row order.
	// Returns domain.ErrIndexNotFound if no index exists for docID.
	Metadata(ctx context.Context, docID string) ([]domain.SubChunk, error)

	// Exists reports whether an index for docID is resident or persisted.
	Exists(ctx context.Context, docID string) (bool, error)

	// Delete removes the index from memory and disk. Deleting a missing index is not an error.
	Delete(ctx context.Context, docID string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a nearest-neighbour search result.
type VectorHit struct {
	// Row is the position of the vector in the index.
	Row int

	// Distance is the Euclidean distance to the query.
	Distance float64

	// Relevance is 1/(1+Distance).
	Relevance float64

	// Metadata is the sub-chunk stored for the row.
	Metadata domain.SubChunk
}
