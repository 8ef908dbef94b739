package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers nearest-chunk queries.
	Retrieval driving.RetrievalService

	// Query answers questions with the generation service.
	// Without it the ask and summarize tools are not offered.
	Query driving.QueryService

	// Document lists and reads documents.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p == nil || p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
