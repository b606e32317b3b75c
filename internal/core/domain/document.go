package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// FileKind identifies the format of an uploaded file.
type FileKind string

// Supported file kinds.
const (
	// FileKindText is plain UTF-8 text.
	FileKindText FileKind = "txt"

	// FileKindMarkdown is Markdown, extracted as plain text.
	FileKindMarkdown FileKind = "md"

	// FileKindPDF is a PDF document.
	FileKindPDF FileKind = "pdf"

	// FileKindDOCX is an Office Open XML word processing document.
	FileKindDOCX FileKind = "docx"
)

// AllFileKinds returns every file kind accepted at ingestion.
func AllFileKinds() []FileKind {
	return []FileKind{FileKindText, FileKindMarkdown, FileKindPDF, FileKindDOCX}
}

// IsValid returns true if the file kind is recognised.
func (k FileKind) IsValid() bool {
	switch k {
	case FileKindText, FileKindMarkdown, FileKindPDF, FileKindDOCX:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k FileKind) String() string {
	return string(k)
}

// MIMEType returns the canonical MIME type for the kind.
func (k FileKind) MIMEType() string {
	switch k {
	case FileKindText:
		return "text/plain"
	case FileKindMarkdown:
		return "text/markdown"
	case FileKindPDF:
		return "application/pdf"
	case FileKindDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// FileKindFromName derives the file kind from a file name extension.
// Unknown extensions yield a kind for which IsValid returns false.
func FileKindFromName(name string) FileKind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "markdown" {
		return FileKindMarkdown
	}
	return FileKind(ext)
}

// Document represents an ingested file.
// Documents are immutable once indexed and destroyed on reset.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the original file name, used as the display title.
	Name string

	// Kind is the format the document was extracted from.
	Kind FileKind

	// ContentHash is the hex SHA-256 of the uploaded bytes.
	// Ingesting identical bytes again resolves to the same document.
	ContentHash string

	// Size is the upload size in bytes.
	Size int64

	// Content is the full extracted text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs from extraction.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// Chunk is a contiguous span of a document's text.
// StartOffset and EndOffset are character (rune) offsets into the
// document content, with StartOffset < EndOffset.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text of this span.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// StartOffset is the inclusive start of the span.
	StartOffset int

	// EndOffset is the exclusive end of the span.
	EndOffset int

	// Embedding is computed once at index time.
	Embedding []float32
}

// IngestRequest carries an uploaded file into the ingestion pipeline.
type IngestRequest struct {
	// Name is the file name. Used for display and kind detection.
	Name string

	// Kind is the file format. Derived from Name when empty.
	Kind FileKind

	// Content is the raw file bytes.
	Content []byte
}

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	// DocumentID identifies the stored document.
	DocumentID string

	// Chunks is the number of chunks indexed for the document.
	Chunks int

	// Duplicate is true when identical bytes were already ingested.
	// No new chunks are indexed for duplicates.
	Duplicate bool
}

// IndexStats summarises the contents of the index.
type IndexStats struct {
	TotalDocuments int    `json:"total_documents"`
	TotalChunks    int    `json:"total_chunks"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	LLMModel       string `json:"llm_model,omitempty"`
}
