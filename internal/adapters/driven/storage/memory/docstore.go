package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// It backs ephemeral sessions and tests.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	byHash    map[string]string
	chunks    map[string][]domain.Chunk
	chunkByID map[string]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	s := &DocumentStore{}
	s.clear()
	return s
}

func (s *DocumentStore) clear() {
	s.documents = make(map[string]domain.Document)
	s.byHash = make(map[string]string)
	s.chunks = make(map[string][]domain.Chunk)
	s.chunkByID = make(map[string]domain.Chunk)
}

// SaveDocument stores a document and replaces its chunks.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.chunks[doc.ID] {
		delete(s.chunkByID, c.ID)
	}

	s.documents[doc.ID] = *doc
	if doc.ContentHash != "" {
		s.byHash[doc.ContentHash] = doc.ID
	}

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	sort.Slice(stored, func(i, j int) bool { return stored[i].Position < stored[j].Position })
	s.chunks[doc.ID] = stored
	for _, c := range stored {
		s.chunkByID[c.ID] = c
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// FindByHash retrieves a document by content hash.
func (s *DocumentStore) FindByHash(_ context.Context, contentHash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[contentHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// GetChunks retrieves all chunks for a document.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := s.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunkByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// AllChunks returns every stored chunk.
func (s *DocumentStore) AllChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, 0, len(s.chunkByID))
	for _, chunks := range s.chunks {
		out = append(out, chunks...)
	}
	return out, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, c := range s.chunks[id] {
		delete(s.chunkByID, c.ID)
	}
	delete(s.chunks, id)
	delete(s.byHash, doc.ContentHash)
	delete(s.documents, id)
	return nil
}

// ListDocuments returns all documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// Stats counts documents and chunks.
func (s *DocumentStore) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.IndexStats{TotalDocuments: len(s.documents), TotalChunks: len(s.chunkByID)}, nil
}

// Reset removes every document and chunk.
func (s *DocumentStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}
