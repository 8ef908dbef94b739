package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// defaultTopK is used when neither the caller nor the settings give a depth.
const defaultTopK = 3

// RetrievalService turns document pages into a per-document vector index
// and answers nearest-chunk queries against it.
type RetrievalService struct {
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	topK     int
}

// NewRetrievalService creates a new retrieval service.
// topK is the default retrieval depth; values <= 0 use 3.
func NewRetrievalService(
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	topK int,
) *RetrievalService {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &RetrievalService{
		pipeline: pipeline,
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

// Ingest chunks, embeds and indexes pages, replacing any previous index for docID.
func (s *RetrievalService) Ingest(ctx context.Context, docID string, pages []domain.PageChunk) (int, error) {
	logger.Section("Ingest")
	start := time.Now()

	chunks, err := s.pipeline.Process(ctx, pages)
	if err != nil {
		return 0, fmt.Errorf("ingest: chunk: %w", err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("ingest: %w: no text to index", domain.ErrIndexBuild)
	}
	logger.Debug("Document %s: %d pages, %d sub-chunks", docID, len(pages), len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("ingest: embed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("ingest: %w: embedder returned %d vectors for %d chunks",
			domain.ErrIndexBuild, len(vectors), len(chunks))
	}

	if err := s.index.Build(ctx, docID, vectors, chunks); err != nil {
		return 0, fmt.Errorf("ingest: %w", err)
	}

	logger.Debug("Indexed %s in %v", docID, time.Since(start))
	return len(chunks), nil
}

// Retrieve returns the chunks nearest to question, best first.
// A document with no index, or no hits, gives an empty result.
func (s *RetrievalService) Retrieve(ctx context.Context, docID, question string, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = s.topK
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return []domain.RetrievedChunk{}, nil
	}

	query, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed question: %w", err)
	}

	hits, err := s.index.Search(ctx, docID, query, topK)
	if errors.Is(err, domain.ErrIndexNotFound) {
		logger.Debug("No index for %s", docID)
		return []domain.RetrievedChunk{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, len(hits))
	for i, h := range hits {
		chunks[i] = domain.RetrievedChunk{
			Content:   h.Metadata.Content,
			Page:      h.Metadata.SourcePage,
			Relevance: h.Relevance,
			Distance:  h.Distance,
			Metadata:  h.Metadata,
		}
	}
	logger.Debug("Retrieved %d chunks for %s (k=%d)", len(chunks), docID, topK)
	return chunks, nil
}

// Forget deletes the index for docID.
func (s *RetrievalService) Forget(ctx context.Context, docID string) error {
	if err := s.index.Delete(ctx, docID); err != nil {
		return fmt.Errorf("forget: %w", err)
	}
	return nil
}
