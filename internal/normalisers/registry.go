package normalisers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches uploads to normalisers by file kind.
type Registry struct {
	mu     sync.RWMutex
	byKind map[domain.FileKind]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byKind: make(map[domain.FileKind]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser for every kind it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, kind := range n.SupportedKinds() {
		r.byKind[kind] = n
	}
}

// Normalise extracts text with the normaliser registered for kind.
func (r *Registry) Normalise(ctx context.Context, kind domain.FileKind, content []byte) (*driven.NormaliseResult, error) {
	r.mu.RLock()
	n, ok := r.byKind[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, kind)
	}
	return n.Normalise(ctx, content)
}

// SupportedKinds returns the registered kinds in sorted order.
func (r *Registry) SupportedKinds() []domain.FileKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]domain.FileKind, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
