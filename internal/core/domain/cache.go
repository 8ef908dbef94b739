package domain

import "time"

// CacheMarker records that embeddings were computed for a document.
// It is a presence check keyed by document ID, not a content hash.
type CacheMarker struct {
	DocID      string    `json:"doc_id"`
	Timestamp  time.Time `json:"timestamp"`
	ChunkCount int       `json:"chunk_count"`
}
