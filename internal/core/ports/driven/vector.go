package driven

import "context"

// VectorIndex provides semantic similarity search operations.
// Writes must never expose partially applied state to concurrent searches.
type VectorIndex interface {
	// Upsert inserts or replaces vectors keyed by chunk ID as one batch.
	// A search running concurrently sees either none or all of the batch.
	Upsert(ctx context.Context, entries []VectorEntry) error

	// Delete removes vectors from the index.
	Delete(ctx context.Context, chunkIDs ...string) error

	// Search finds the k nearest neighbours to the query vector,
	// ordered by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Reset removes every vector.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorEntry is a vector to index.
type VectorEntry struct {
	ChunkID   string
	Embedding []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score.
	Similarity float64
}
