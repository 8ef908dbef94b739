package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigNotFound indicates a required configuration value is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// Ingestion Errors.

	// ErrUnsupportedFileType indicates the uploaded file is not a PDF or supported image.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates the upload exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrExtractionFailed indicates no text could be recovered from a document.
	ErrExtractionFailed = errors.New("extraction failed")

	// Index Errors.

	// ErrIndexBuild indicates a document index could not be built.
	// Raised for empty input, mismatched metadata, or inconsistent dimensions.
	ErrIndexBuild = errors.New("index build failed")

	// ErrIndexNotFound indicates no index exists for a document, in memory or on disk.
	ErrIndexNotFound = errors.New("index not found")

	// ErrDimensionMismatch indicates a vector does not match the index dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding model could not be loaded or reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Generation Errors.

	// ErrGenerationUnavailable indicates the generation service is unreachable or timed out.
	// Callers may retry later.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationFailed indicates the generation service returned an error.
	ErrGenerationFailed = errors.New("generation failed")
)
