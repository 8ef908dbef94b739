package tui

import (
	"context"
	"iter"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	AskStreamFunc func(ctx context.Context, req driving.AskRequest) (iter.Seq2[string, error], error)

	mu       sync.Mutex
	requests []driving.AskRequest
}

func (m *MockQueryService) Ask(_ context.Context, _ driving.AskRequest) (*domain.Answer, error) {
	return &domain.Answer{}, nil
}

func (m *MockQueryService) AskStream(ctx context.Context, req driving.AskRequest) (iter.Seq2[string, error], error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.AskStreamFunc != nil {
		return m.AskStreamFunc(ctx, req)
	}
	return func(func(string, error) bool) {}, nil
}

func (m *MockQueryService) Summarise(_ context.Context, docID, length string) (*domain.Summary, error) {
	return &domain.Summary{Length: length}, nil
}

// Requests returns the questions asked so far.
func (m *MockQueryService) Requests() []driving.AskRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driving.AskRequest(nil), m.requests...)
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	StatsFunc func(ctx context.Context, id string) (*domain.DocumentStats, error)
}

func (m *MockDocumentService) Upload(_ context.Context, _ driving.UploadRequest) (*domain.DocumentStats, error) {
	return nil, nil
}

func (m *MockDocumentService) IndexFile(_ context.Context, _ string) (*domain.DocumentStats, error) {
	return nil, nil
}

func (m *MockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Stats(ctx context.Context, id string) (*domain.DocumentStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, id)
	}
	return &domain.DocumentStats{DocID: id, Filename: "report.pdf", TotalPages: 3}, nil
}

func (m *MockDocumentService) List(_ context.Context) ([]domain.DocumentStats, error) {
	return nil, nil
}

func (m *MockDocumentService) Delete(_ context.Context, _ string) error {
	return nil
}

func TestNewPorts(t *testing.T) {
	query := &MockQueryService{}
	document := &MockDocumentService{}

	ports := NewPorts(query, document)

	require.NotNil(t, ports)
	assert.Equal(t, query, ports.Query)
	assert.Equal(t, document, ports.Document)
}

func TestPorts_Validate_AllSet(t *testing.T) {
	ports := NewPorts(&MockQueryService{}, &MockDocumentService{})

	assert.NoError(t, ports.Validate())
}

func TestPorts_Validate_MissingQuery(t *testing.T) {
	ports := &Ports{Document: &MockDocumentService{}}

	assert.ErrorIs(t, ports.Validate(), ErrMissingQueryService)
}

func TestPorts_Validate_MissingDocument(t *testing.T) {
	ports := &Ports{Query: &MockQueryService{}}

	assert.ErrorIs(t, ports.Validate(), ErrMissingDocumentService)
}

func TestPorts_Validate_Nil(t *testing.T) {
	var ports *Ports

	assert.ErrorIs(t, ports.Validate(), ErrMissingQueryService)
}
