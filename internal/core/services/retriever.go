package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/logger"
)

// Retriever finds the passages most similar to a query.
type Retriever interface {
	// Retrieve returns up to k hits in descending score order with unique
	// chunk IDs, omitting any ID in exclude. Fewer than k hits are returned
	// only when fewer eligible chunks exist.
	Retrieve(ctx context.Context, query string, k int, exclude map[string]struct{}) (domain.RetrievalResult, error)
}

// Ensure VectorRetriever implements the interface.
var _ Retriever = (*VectorRetriever)(nil)

// VectorRetriever embeds the query and searches the vector index.
type VectorRetriever struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	docStore driven.DocumentStore
}

// NewVectorRetriever creates a retriever over the given index.
func NewVectorRetriever(
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	docStore driven.DocumentStore,
) *VectorRetriever {
	return &VectorRetriever{index: index, embedder: embedder, docStore: docStore}
}

// Retrieve implements Retriever.
func (r *VectorRetriever) Retrieve(
	ctx context.Context, query string, k int, exclude map[string]struct{},
) (domain.RetrievalResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", domain.ErrInvalidInput, k)
	}
	if r.index.Len() == 0 {
		return nil, domain.ErrIndexEmpty
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, classify(err, domain.ErrEmbedding)
	}

	// Over-fetch so exclusions and stale vectors do not starve the result.
	hits, err := r.index.Search(ctx, vec, k+len(exclude))
	if err != nil {
		return nil, classify(err, domain.ErrRetrievalBackend)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })

	result := make(domain.RetrievalResult, 0, k)
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if len(result) == k {
			break
		}
		if _, skip := exclude[hit.ChunkID]; skip {
			continue
		}
		if _, dup := seen[hit.ChunkID]; dup {
			continue
		}
		seen[hit.ChunkID] = struct{}{}

		chunk, err := r.docStore.GetChunk(ctx, hit.ChunkID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Skipping stale vector %s", hit.ChunkID)
			continue
		}
		if err != nil {
			return nil, classify(err, domain.ErrRetrievalBackend)
		}
		result = append(result, domain.RetrievalHit{ChunkID: hit.ChunkID, Score: hit.Similarity, Chunk: *chunk})
	}

	logger.Debug("Retrieved %d/%d passages (excluded %d)", len(result), k, len(exclude))
	return result, nil
}
