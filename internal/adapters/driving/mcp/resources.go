package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"

	documentsURI = uriScheme + "documents"
	statsSuffix  = "/stats"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Documents uploaded in this session",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{docId}",
		Name:        "document-content",
		Description: "Extracted text of a document, page by page",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{docId}" + statsSuffix,
		Name:        "document-stats",
		Description: "Statistics of a document",
		MIMEType:    "application/json",
	}, s.handleDocumentStatsResource)
}

// handleDocumentsResource returns the list of known documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return textResult(req.Params.URI, "application/json", "[]"), nil
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID       string          `json:"id"`
		Filename string          `json:"filename"`
		FileType domain.FileType `json:"file_type"`
		URI      string          `json:"uri"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:       docs[i].DocID,
			Filename: docs[i].Filename,
			FileType: docs[i].FileType,
			URI:      documentsURI + "/" + docs[i].DocID,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

// handleDocumentContentResource returns the page text of a document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if s.ports.Document == nil || docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return textResult(req.Params.URI, "text/plain", formatPages(doc.Pages)), nil
}

// handleDocumentStatsResource returns the statistics of a document.
func (s *Server) handleDocumentStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	if !strings.HasSuffix(uri, statsSuffix) {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	docID := extractDocumentID(strings.TrimSuffix(uri, statsSuffix))
	if s.ports.Document == nil || docID == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	stats, err := s.ports.Document.Stats(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document stats: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}
	return textResult(uri, "application/json", string(data)), nil
}

// extractDocumentID extracts the document ID from a URI like docqa://documents/{docId}.
func extractDocumentID(uri string) string {
	const prefix = documentsURI + "/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

// formatPages renders pages as "[Page N]" headed blocks.
func formatPages(pages []domain.PageChunk) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Page %d]\n%s", p.Page, p.Content)
	}
	return b.String()
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}
