// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants retrieve passages from, and ask questions about,
// indexed documents.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
