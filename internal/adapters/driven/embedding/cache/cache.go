// Package cache memoises embeddings so repeated questions and
// re-ingested text skip the embedding backend.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default cache timings.
const (
	DefaultExpiration      = 30 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// EmbeddingService is a caching decorator around another embedding service.
// Returned vectors are shared with the cache and must not be mutated.
type EmbeddingService struct {
	next  driven.EmbeddingService
	store *gocache.Cache
}

// New wraps next with an in-memory cache.
func New(next driven.EmbeddingService, expiration, cleanup time.Duration) *EmbeddingService {
	if expiration == 0 {
		expiration = DefaultExpiration
	}
	if cleanup == 0 {
		cleanup = DefaultCleanupInterval
	}
	return &EmbeddingService{next: next, store: gocache.New(expiration, cleanup)}
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(s.next.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed implements driven.EmbeddingService.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	k := s.key(text)
	if v, ok := s.store.Get(k); ok {
		return v.([]float32), nil
	}
	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.store.Set(k, vec, gocache.DefaultExpiration)
	return vec, nil
}

// EmbedBatch implements driven.EmbeddingService.
// Only the texts missing from the cache are sent to the backend.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if v, ok := s.store.Get(s.key(text)); ok {
			out[i] = v.([]float32)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := s.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		if j >= len(missingIdx) {
			break
		}
		out[missingIdx[j]] = vec
		s.store.Set(s.key(missing[j]), vec, gocache.DefaultExpiration)
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	return s.store.ItemCount()
}

// Flush empties the cache.
func (s *EmbeddingService) Flush() {
	s.store.Flush()
}

// Dimensions implements driven.EmbeddingService.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName implements driven.EmbeddingService.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping implements driven.EmbeddingService.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close implements driven.EmbeddingService.
func (s *EmbeddingService) Close() error {
	s.store.Flush()
	return s.next.Close()
}
