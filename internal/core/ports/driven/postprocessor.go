package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// PostProcessor turns extracted pages into indexable sub-chunks.
// PostProcessors are chained in a pipeline (e.g., chunking, then filtering).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes the pages of a document and returns sub-chunks.
	// A processor that creates chunks (e.g., chunker) receives nil chunks.
	// A processor that refines chunks receives and returns them.
	Process(ctx context.Context, pages []domain.PageChunk, chunks []domain.SubChunk) ([]domain.SubChunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the pages through all processors in order.
	// Returns the final sub-chunks after all processing.
	Process(ctx context.Context, pages []domain.PageChunk) ([]domain.SubChunk, error)
}
