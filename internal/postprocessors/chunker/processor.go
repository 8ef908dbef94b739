// Package chunker provides a fixed-size word window chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of words per window.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of words shared by consecutive windows.
const DefaultChunkOverlap = 50

// Processor splits page text into overlapping word windows.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the window size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the number of words shared between windows.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// The overlap must be smaller than the window size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the window size in words.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the number of shared words.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split returns the word windows of text.
func (p *Processor) Split(text string) []string {
	return split(text, p.chunkSize, p.overlap)
}

// Process splits every page into sub-chunks, in page order.
// Input chunks are ignored; this processor creates new chunks from the pages.
func (p *Processor) Process(_ context.Context, pages []domain.PageChunk, _ []domain.SubChunk) ([]domain.SubChunk, error) {
	var chunks []domain.SubChunk

	for i, page := range pages {
		for j, window := range p.Split(page.Content) {
			chunks = append(chunks, domain.SubChunk{
				SourcePage:    page.Page,
				ChunkIndex:    i,
				SubChunkIndex: j,
				Content:       window,
			})
		}
	}

	return chunks, nil
}

// Chunk splits text into windows of up to size words, each starting
// size-overlap words after the previous one.
func Chunk(text string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return split(text, size, overlap), nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidInput, size, overlap)
	}
	return nil
}

// split assumes 0 <= overlap < size.
func split(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	windows := make([]string, 0, len(words)/step+1)

	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		window := strings.TrimSpace(strings.Join(words[start:end], " "))
		if window != "" {
			windows = append(windows, window)
		}
	}

	return windows
}
