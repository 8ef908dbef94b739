// Package tui provides an interactive terminal chat over one document.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions about the document.
	Query driving.QueryService

	// Document provides the document header and stats.
	Document driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(query driving.QueryService, document driving.DocumentService) *Ports {
	return &Ports{
		Query:    query,
		Document: document,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
