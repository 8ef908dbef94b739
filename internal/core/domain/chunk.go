package domain

// PageType identifies where a page chunk's text came from.
type PageType string

// Page chunk origins.
const (
	// PageTypePage is text extracted from a PDF page.
	PageTypePage PageType = "page"

	// PageTypeImage is text recognised in an image by OCR.
	PageTypeImage PageType = "image"
)

// PageChunk is the text of one extracted page.
// A PDF yields one per non-empty page; an image yields exactly one.
type PageChunk struct {
	// Page is the 1-based page number.
	Page int `json:"page"`

	// Content is the trimmed page text.
	Content string `json:"content"`

	// Type records whether the text came from a PDF page or an image.
	Type PageType `json:"type"`
}

// SubChunk is one overlapping word window of a page.
// It is the unit that is embedded, indexed and retrieved.
// Its position in a document's sub-chunk slice is its index row.
type SubChunk struct {
	// SourcePage is the page number the window was taken from.
	SourcePage int `json:"page"`

	// ChunkIndex is the position of the owning page chunk in extraction order.
	ChunkIndex int `json:"chunk_id"`

	// SubChunkIndex is the window position within its page.
	SubChunkIndex int `json:"sub_chunk_id"`

	// Content is the window text.
	Content string `json:"content"`
}

// RetrievedChunk is a sub-chunk returned for a question, with its ranking.
type RetrievedChunk struct {
	// Content is the sub-chunk text.
	Content string `json:"content"`

	// Page is the source page number.
	Page int `json:"page"`

	// Relevance is 1/(1+Distance); higher is more relevant.
	Relevance float64 `json:"relevance"`

	// Distance is the L2 distance between question and chunk vectors.
	Distance float64 `json:"distance"`

	// Metadata is the stored sub-chunk record.
	Metadata SubChunk `json:"metadata"`
}
