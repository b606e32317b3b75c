// Package memory provides an in-process vector index with exact cosine search.
//
// Writers build a new snapshot and publish it atomically, so searches
// never block on writes and never observe a half-applied batch.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type snapshot struct {
	ids   []string
	vecs  [][]float32
	norms []float64
	pos   map[string]int
}

func emptySnapshot() *snapshot {
	return &snapshot{pos: map[string]int{}}
}

// Index is a brute-force cosine similarity index.
type Index struct {
	dims    int
	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// New creates an index for vectors of the given dimension.
// Zero dims accepts the dimension of the first inserted vector.
func New(dims int) *Index {
	idx := &Index{dims: dims}
	idx.current.Store(emptySnapshot())
	return idx
}

// Upsert inserts or replaces vectors as one batch.
func (i *Index) Upsert(ctx context.Context, entries []driven.VectorEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	dims := i.dims
	if dims == 0 {
		dims = len(entries[0].Embedding)
	}
	for _, e := range entries {
		if e.ChunkID == "" {
			return fmt.Errorf("%w: empty chunk ID", domain.ErrInvalidInput)
		}
		if len(e.Embedding) != dims {
			return fmt.Errorf("%w: vector for %s has %d dimensions, index expects %d",
				domain.ErrInvalidInput, e.ChunkID, len(e.Embedding), dims)
		}
	}

	old := i.current.Load()
	next := &snapshot{
		ids:   append(make([]string, 0, len(old.ids)+len(entries)), old.ids...),
		vecs:  append(make([][]float32, 0, len(old.vecs)+len(entries)), old.vecs...),
		norms: append(make([]float64, 0, len(old.norms)+len(entries)), old.norms...),
		pos:   make(map[string]int, len(old.pos)+len(entries)),
	}
	for id, p := range old.pos {
		next.pos[id] = p
	}

	for _, e := range entries {
		vec := append([]float32(nil), e.Embedding...)
		if p, ok := next.pos[e.ChunkID]; ok {
			next.vecs[p] = vec
			next.norms[p] = norm(vec)
			continue
		}
		next.pos[e.ChunkID] = len(next.ids)
		next.ids = append(next.ids, e.ChunkID)
		next.vecs = append(next.vecs, vec)
		next.norms = append(next.norms, norm(vec))
	}

	i.dims = dims
	i.current.Store(next)
	return nil
}

// Delete removes vectors. Unknown IDs are ignored.
func (i *Index) Delete(ctx context.Context, chunkIDs ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	drop := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		drop[id] = true
	}

	old := i.current.Load()
	next := emptySnapshot()
	for p, id := range old.ids {
		if drop[id] {
			continue
		}
		next.pos[id] = len(next.ids)
		next.ids = append(next.ids, id)
		next.vecs = append(next.vecs, old.vecs[p])
		next.norms = append(next.norms, old.norms[p])
	}
	i.current.Store(next)
	return nil
}

// Search returns the k most similar vectors. Ties keep insertion order.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	snap := i.current.Load()
	if len(snap.ids) == 0 {
		return nil, nil
	}
	if len(query) != len(snap.vecs[0]) {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrInvalidInput, len(query), len(snap.vecs[0]))
	}

	qn := norm(query)
	hits := make([]driven.VectorHit, len(snap.ids))
	for p, vec := range snap.vecs {
		hits[p] = driven.VectorHit{ChunkID: snap.ids[p], Similarity: cosine(query, qn, vec, snap.norms[p])}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Similarity > hits[b].Similarity })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	return len(i.current.Load().ids)
}

// Reset removes every vector.
func (i *Index) Reset(_ context.Context) error {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()
	i.current.Store(emptySnapshot())
	return nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
