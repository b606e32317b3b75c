package driven

import (
	"context"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// DocumentStore persists documents and chunks.
type DocumentStore interface {
	// SaveDocument stores a document together with its chunks atomically.
	SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// FindByHash retrieves a document by content hash.
	// Returns domain.ErrNotFound when no document matches.
	FindByHash(ctx context.Context, contentHash string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// AllChunks returns every stored chunk with its embedding.
	// Used to rebuild the vector index at startup.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Stats counts documents and chunks.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Reset removes every document and chunk.
	Reset(ctx context.Context) error
}
