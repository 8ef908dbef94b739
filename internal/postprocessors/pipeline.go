// Package postprocessors provides page-to-chunk processing implementations.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple PostProcessors and runs them in order.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the pages through all processors in order.
// The first processor receives nil chunks and should create them.
func (p *Pipeline) Process(ctx context.Context, pages []domain.PageChunk) ([]domain.SubChunk, error) {
	if len(p.processors) == 0 {
		return nil, fmt.Errorf("%w: empty pipeline", domain.ErrInvalidInput)
	}

	var chunks []domain.SubChunk

	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, pages, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return chunks, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
