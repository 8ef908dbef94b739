// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// RetrievalService owns chunking, embedding and the per-document index.
// DocumentService stores uploads and registers documents on top of it, and
// QueryService turns retrieved chunks into answers and summaries.
package services
