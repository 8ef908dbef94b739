package domain

import (
	"crypto/md5" //nolint:gosec // identifiers only, not a security boundary
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// documentIDLength is the number of hex characters kept from the digest.
const documentIDLength = 12

// wordsPerMinute is the reading speed used for ReadingTime estimates.
const wordsPerMinute = 200

// FileType is the coarse kind of an uploaded document.
type FileType string

// Supported file types.
const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
)

// FileTypeFor maps a MIME type to its file type. Anything that is not an
// image is treated as a PDF.
func FileTypeFor(mimeType string) FileType {
	if strings.HasPrefix(mimeType, "image/") {
		return FileTypeImage
	}
	return FileTypePDF
}

// Document is an uploaded document held in the registry.
type Document struct {
	// ID is the unique identifier generated at upload.
	ID string

	// Filename is the original file name.
	Filename string

	// FileType is pdf or image.
	FileType FileType

	// MIMEType is the content type the document was extracted as.
	MIMEType string

	// FilePath is where the upload is stored on disk.
	FilePath string

	// TotalPages is the page count reported by extraction.
	TotalPages int

	// TotalWords is the whitespace word count across all pages.
	TotalWords int

	// TotalChars is the character count across all pages.
	TotalChars int

	// ReadingTime is the estimated reading time in minutes.
	ReadingTime int

	// ChunkCount is the number of indexed sub-chunks.
	ChunkCount int

	// UploadTime is when the document was received.
	UploadTime time.Time

	// ProcessingTime is how long extraction and indexing took.
	ProcessingTime time.Duration

	// Pages is the extracted page text.
	Pages []PageChunk
}

// FullText joins all page contents with single spaces.
func (d *Document) FullText() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Content
	}
	return strings.Join(parts, " ")
}

// Stats returns the public view of the document.
func (d *Document) Stats() DocumentStats {
	return DocumentStats{
		DocID:          d.ID,
		Filename:       d.Filename,
		FileType:       d.FileType,
		TotalPages:     d.TotalPages,
		TotalWords:     d.TotalWords,
		TotalChars:     d.TotalChars,
		ReadingTime:    d.ReadingTime,
		ChunkCount:     d.ChunkCount,
		UploadTime:     d.UploadTime,
		ProcessingTime: d.ProcessingTime.Seconds(),
	}
}

// DocumentStats is the externally visible summary of a document.
type DocumentStats struct {
	DocID          string    `json:"doc_id"`
	Filename       string    `json:"filename"`
	FileType       FileType  `json:"file_type"`
	TotalPages     int       `json:"total_pages"`
	TotalWords     int       `json:"total_words"`
	TotalChars     int       `json:"total_chars"`
	ReadingTime    int       `json:"reading_time"`
	ChunkCount     int       `json:"chunk_count"`
	UploadTime     time.Time `json:"upload_time"`
	ProcessingTime float64   `json:"processing_time"`
}

// TextStats holds simple counts over a body of text.
type TextStats struct {
	Words       int
	Chars       int
	ReadingTime int
}

// ComputeTextStats counts words and characters in text.
// Reading time is never less than one minute.
func ComputeTextStats(text string) TextStats {
	words := len(strings.Fields(text))
	return TextStats{
		Words:       words,
		Chars:       utf8.RuneCountInString(text),
		ReadingTime: max(1, words/wordsPerMinute),
	}
}

// NewDocumentID derives a document ID from the file name and upload time.
// Distinct upload instants give distinct IDs for the same file name.
func NewDocumentID(filename string, uploadedAt time.Time) string {
	sum := md5.Sum([]byte(filename + strconv.FormatInt(uploadedAt.UnixNano(), 10))) //nolint:gosec
	return hex.EncodeToString(sum[:])[:documentIDLength]
}
