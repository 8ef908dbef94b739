package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// RetrievalService builds per-document indexes and answers nearest-chunk queries.
type RetrievalService interface {
	// Ingest chunks, embeds and indexes the pages of a document,
	// replacing any previous index. Returns the number of sub-chunks indexed.
	Ingest(ctx context.Context, docID string, pages []domain.PageChunk) (int, error)

	// Retrieve returns up to topK chunks most relevant to question, best first.
	// A missing index or no hits yields an empty result, not an error.
	// topK <= 0 uses the configured default.
	Retrieve(ctx context.Context, docID, question string, topK int) ([]domain.RetrievedChunk, error)

	// Forget deletes the index for a document. It is idempotent.
	Forget(ctx context.Context, docID string) error
}
