package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
	"github.com/custodia-labs/verity/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// documentNamespace seeds document IDs derived from content hashes.
var documentNamespace = uuid.MustParse("2b8f4c1e-7d3a-4e59-b6a0-91c5e8d2f764")

// DocumentID returns the stable document ID for a content hash.
func DocumentID(contentHash string) string {
	return uuid.NewSHA1(documentNamespace, []byte(contentHash)).String()
}

// ContentHash returns the hex SHA-256 of an upload.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// flusher is implemented by caching embedders.
type flusher interface {
	Flush()
}

// IngestService extracts, chunks, embeds and indexes uploads.
// Writers are serialised so the duplicate check and the save are atomic;
// searches never block on ingestion because the index swaps snapshots.
type IngestService struct {
	mu sync.Mutex

	docStore    driven.DocumentStore
	index       driven.VectorIndex
	embedder    driven.EmbeddingService
	normalisers driven.NormaliserRegistry
	chunker     driven.PostProcessor
	cfg         domain.Config
	llmModel    string
	now         func() time.Time
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	docStore driven.DocumentStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	normalisers driven.NormaliserRegistry,
	chunker driven.PostProcessor,
	cfg domain.Config,
) *IngestService {
	return &IngestService{
		docStore:    docStore,
		index:       index,
		embedder:    embedder,
		normalisers: normalisers,
		chunker:     chunker,
		cfg:         cfg,
		now:         time.Now,
	}
}

// SetLLMModel records the language model name reported by Stats.
func (s *IngestService) SetLLMModel(name string) {
	s.llmModel = name
}

// Ingest extracts, chunks, embeds and indexes an upload.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	res, err := s.ingest(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Warn("ingest failed",
			zap.String("name", req.Name), zap.String("kind", domain.ErrorKind(err)), zap.Error(err))
		return nil, &domain.IngestError{Name: req.Name, Err: err}
	}
	return res, nil
}

func (s *IngestService) ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	kind := req.Kind
	if kind == "" {
		kind = domain.FileKindFromName(req.Name)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, kind)
	}
	if int64(len(req.Content)) > s.cfg.MaxFileBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, len(req.Content), s.cfg.MaxFileBytes)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}

	hash := ContentHash(req.Content)
	logger.Debug("Name: %s, kind: %s, hash: %s", req.Name, kind, hash)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.docStore.FindByHash(ctx, hash)
	switch {
	case err == nil:
		chunks, err := s.docStore.GetChunks(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("load chunks: %w", err)
		}
		logger.Debug("Already processed as %s", existing.ID)
		return &domain.IngestResult{DocumentID: existing.ID, Chunks: len(chunks), Duplicate: true}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("lookup content hash: %w", err)
	}

	normalised, err := s.normalisers.Normalise(ctx, kind, req.Content)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(normalised.Text) == "" {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrInvalidInput)
	}

	name := req.Name
	if name == "" {
		name = normalised.Title
	}
	doc := &domain.Document{
		ID:          DocumentID(hash),
		Name:        name,
		Kind:        kind,
		ContentHash: hash,
		Size:        int64(len(req.Content)),
		Content:     normalised.Text,
		Metadata:    normalised.Metadata,
		CreatedAt:   s.now(),
	}

	chunks, err := s.chunker.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	logger.Debug("Chunks: %d", len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, classify(err, domain.ErrEmbedding)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks))
	}
	entries := make([]driven.VectorEntry, len(chunks))
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
		entries[i] = driven.VectorEntry{ChunkID: chunks[i].ID, Embedding: vectors[i]}
	}

	if err := s.docStore.SaveDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		// Keep store and index consistent.
		if delErr := s.docStore.DeleteDocument(context.WithoutCancel(ctx), doc.ID); delErr != nil {
			logger.Warn("rollback of %s failed: %v", doc.ID, delErr)
		}
		return nil, classify(err, domain.ErrRetrievalBackend)
	}

	logger.FromContext(ctx).Info("document ingested",
		zap.String("document_id", doc.ID), zap.String("name", doc.Name), zap.Int("chunks", len(chunks)))

	return &domain.IngestResult{DocumentID: doc.ID, Chunks: len(chunks)}, nil
}

// List returns all ingested documents, newest first.
func (s *IngestService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *IngestService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// Delete removes a document from the store and its vectors from the index.
func (s *IngestService) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	if err := s.index.Delete(ctx, ids...); err != nil {
		return classify(err, domain.ErrRetrievalBackend)
	}
	return nil
}

// Stats summarises the index and names the active models.
func (s *IngestService) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats, err := s.docStore.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, err
	}
	if s.embedder != nil {
		stats.EmbeddingModel = s.embedder.ModelName()
	}
	stats.LLMModel = s.llmModel
	return stats, nil
}

// Reset clears documents, chunks, vectors and cached embeddings.
func (s *IngestService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.docStore.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	if err := s.index.Reset(ctx); err != nil {
		return classify(err, domain.ErrRetrievalBackend)
	}
	if f, ok := s.embedder.(flusher); ok {
		f.Flush()
	}
	logger.FromContext(ctx).Info("session reset")
	return nil
}

// SupportedKinds returns the kinds accepted by both detection and extraction.
func (s *IngestService) SupportedKinds() []domain.FileKind {
	registered := make(map[domain.FileKind]struct{})
	for _, k := range s.normalisers.SupportedKinds() {
		registered[k] = struct{}{}
	}
	var kinds []domain.FileKind
	for _, k := range domain.AllFileKinds() {
		if _, ok := registered[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// RebuildIndex loads every persisted chunk embedding into the vector index.
// Chunks without an embedding are skipped. Returns the number indexed.
func (s *IngestService) RebuildIndex(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := s.docStore.AllChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}
	entries := make([]driven.VectorEntry, 0, len(chunks))
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			continue
		}
		entries = append(entries, driven.VectorEntry{ChunkID: chunks[i].ID, Embedding: chunks[i].Embedding})
	}

	if err := s.index.Reset(ctx); err != nil {
		return 0, classify(err, domain.ErrRetrievalBackend)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		return 0, classify(err, domain.ErrRetrievalBackend)
	}
	logger.Debug("Rebuilt vector index with %d chunks", len(entries))
	return len(entries), nil
}

// classify wraps err with kind unless it already belongs to the taxonomy.
func classify(err, kind error) error {
	if err == nil {
		return nil
	}
	if domain.ErrorKind(err) != "internal" {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
