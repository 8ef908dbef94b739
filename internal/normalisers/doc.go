// Package normalisers dispatches uploaded files to the extractor for their
// MIME type. Each sub-package knows how to pull page-tagged text out of one
// kind of document:
//
//   - pdf: per-page text from PDF files
//   - image: OCR of PNG and JPEG images through tesseract
//
// Normalisers are registered with the Registry at startup.
package normalisers
