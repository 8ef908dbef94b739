package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	DocID    string `json:"doc_id" jsonschema:"the id of an indexed document"`
	Question string `json:"question" jsonschema:"the question to find relevant passages for"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput represents a single retrieved passage.
type ChunkOutput struct {
	Page      int     `json:"page"`
	Relevance float64 `json:"relevance"`
	Content   string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	DocID    string `json:"doc_id" jsonschema:"the id of an indexed document"`
	Question string `json:"question" jsonschema:"the question to answer from the document"`
}

// SummarizeInput is the input schema for the summarize tool.
type SummarizeInput struct {
	DocID  string `json:"doc_id" jsonschema:"the id of an indexed document"`
	Length string `json:"length,omitempty" jsonschema:"summary length; 'length' summarises the opening of the document"`
}

// DocumentsInput is the input schema for the documents tool.
type DocumentsInput struct{}

// DocumentsOutput is the output schema for the documents tool.
type DocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes one document.
type DocumentOutput struct {
	DocID      string `json:"doc_id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	TotalPages int    `json:"total_pages"`
	ChunkCount int    `json:"chunk_count"`
	UploadTime string `json:"upload_time"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the passages of an indexed document most relevant to a question",
	}, s.handleRetrieve)

	if s.ports.Query != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question about an indexed document, citing the pages used",
		}, s.handleAsk)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "summarize",
			Description: "Summarise an indexed document",
		}, s.handleSummarize)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "documents",
			Description: "List the documents uploaded in this session",
		}, s.handleDocuments)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if input.DocID == "" {
		return nil, RetrieveOutput{}, fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}

	chunks, err := s.ports.Retrieval.Retrieve(ctx, input.DocID, input.Question, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Chunks: make([]ChunkOutput, len(chunks)),
		Count:  len(chunks),
	}
	for i := range chunks {
		output.Chunks[i] = ChunkOutput{
			Page:      chunks[i].Page,
			Relevance: chunks[i].Relevance,
			Content:   chunks[i].Content,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, domain.Answer, error) {
	answer, err := s.ports.Query.Ask(ctx, driving.AskRequest{
		DocID:    input.DocID,
		Question: input.Question,
	})
	if err != nil {
		return nil, domain.Answer{}, err
	}
	return nil, *answer, nil
}

// handleSummarize handles the summarize tool invocation.
func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, domain.Summary, error) {
	summary, err := s.ports.Query.Summarise(ctx, input.DocID, input.Length)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	return nil, *summary, nil
}

// handleDocuments handles the documents tool invocation.
func (s *Server) handleDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ DocumentsInput,
) (*mcp.CallToolResult, DocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, DocumentsOutput{}, err
	}

	output := DocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			DocID:      docs[i].DocID,
			Filename:   docs[i].Filename,
			FileType:   string(docs[i].FileType),
			TotalPages: docs[i].TotalPages,
			ChunkCount: docs[i].ChunkCount,
			UploadTime: docs[i].UploadTime.Format(time.RFC3339),
		}
	}
	return nil, output, nil
}
