package httpapi

import (
	"context"
	"io"
	"iter"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	stats    *domain.DocumentStats
	list     []domain.DocumentStats
	err      error
	uploaded driving.UploadRequest
	body     string
	deleted  string
}

func (m *mockDocumentService) Upload(_ context.Context, req driving.UploadRequest) (*domain.DocumentStats, error) {
	m.uploaded = req
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.body = string(data)
	}
	return m.stats, m.err
}

func (m *mockDocumentService) IndexFile(_ context.Context, _ string) (*domain.DocumentStats, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Document{ID: id}, nil
}

func (m *mockDocumentService) Stats(_ context.Context, _ string) (*domain.DocumentStats, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentStats, error) {
	return m.list, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer    *domain.Answer
	summary   *domain.Summary
	parts     []string
	streamErr error
	err       error
	asked     driving.AskRequest
	length    string
	pulled    int
}

func (m *mockQueryService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.asked = req
	return m.answer, m.err
}

func (m *mockQueryService) AskStream(_ context.Context, req driving.AskRequest) (iter.Seq2[string, error], error) {
	m.asked = req
	if m.err != nil {
		return nil, m.err
	}
	return func(yield func(string, error) bool) {
		for _, p := range m.parts {
			m.pulled++
			if !yield(p, nil) {
				return
			}
		}
		if m.streamErr != nil {
			yield("", m.streamErr)
		}
	}, nil
}

func (m *mockQueryService) Summarise(_ context.Context, _, length string) (*domain.Summary, error) {
	m.length = length
	return m.summary, m.err
}
