package driven

import (
	"context"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// PostProcessor turns a normalised document into indexable chunks.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process splits the document content into chunks.
	// Chunk IDs must be a deterministic function of document ID and position.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
