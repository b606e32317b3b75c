package driving

import (
	"context"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// IngestService manages the document corpus.
type IngestService interface {
	// Ingest extracts, chunks, embeds and indexes one upload.
	// Re-ingesting identical content returns the existing document with
	// Duplicate set. Failures are returned as *domain.IngestError.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// List returns all stored documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Delete removes a document, its chunks and its vectors.
	Delete(ctx context.Context, documentID string) error

	// Stats returns corpus counts and the active model names.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Reset removes every document and clears the vector index.
	Reset(ctx context.Context) error

	// SupportedKinds returns the file kinds that can be ingested.
	SupportedKinds() []domain.FileKind
}
