package mcp

import (
	"context"
	"iter"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	chunks []domain.RetrievedChunk
	err    error
	topK   int
}

func (m *mockRetrievalService) Ingest(_ context.Context, _ string, _ []domain.PageChunk) (int, error) {
	return 0, m.err
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _, _ string, topK int) ([]domain.RetrievedChunk, error) {
	m.topK = topK
	return m.chunks, m.err
}

func (m *mockRetrievalService) Forget(_ context.Context, _ string) error {
	return m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer  *domain.Answer
	summary *domain.Summary
	err     error
	asked   driving.AskRequest
	length  string
}

func (m *mockQueryService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.asked = req
	return m.answer, m.err
}

func (m *mockQueryService) AskStream(_ context.Context, _ driving.AskRequest) (iter.Seq2[string, error], error) {
	return nil, m.err
}

func (m *mockQueryService) Summarise(_ context.Context, _, length string) (*domain.Summary, error) {
	m.length = length
	return m.summary, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	list     []domain.DocumentStats
	document *domain.Document
	stats    *domain.DocumentStats
	err      error
}

func (m *mockDocumentService) Upload(_ context.Context, _ driving.UploadRequest) (*domain.DocumentStats, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) IndexFile(_ context.Context, _ string) (*domain.DocumentStats, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Stats(_ context.Context, _ string) (*domain.DocumentStats, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentStats, error) {
	return m.list, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}
