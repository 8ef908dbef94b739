package domain

// RawDocument is an uploaded file awaiting extraction.
type RawDocument struct {
	// Path is the location of the stored file on disk.
	Path string

	// Filename is the original client-supplied file name.
	Filename string

	// MIMEType is the declared or sniffed content type (e.g., "application/pdf").
	MIMEType string
}
