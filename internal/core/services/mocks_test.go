package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// --- Mock implementations ---

type retrieveCall struct {
	k       int
	exclude map[string]struct{}
}

// mockRetriever returns scripted results per call. The last entry repeats.
type mockRetriever struct {
	results []domain.RetrievalResult
	err     error
	// byExclude, when set, computes the result from the exclusion set.
	byExclude func(exclude map[string]struct{}) domain.RetrievalResult
	calls     []retrieveCall
}

func (m *mockRetriever) Retrieve(
	_ context.Context, _ string, k int, exclude map[string]struct{},
) (domain.RetrievalResult, error) {
	cp := make(map[string]struct{}, len(exclude))
	for id := range exclude {
		cp[id] = struct{}{}
	}
	m.calls = append(m.calls, retrieveCall{k: k, exclude: cp})
	if m.err != nil {
		return nil, m.err
	}
	if m.byExclude != nil {
		return m.byExclude(exclude), nil
	}
	return scripted(m.results, len(m.calls)-1), nil
}

// mockGenerator returns scripted drafts per call.
type mockGenerator struct {
	drafts   []domain.DraftAnswer
	err      error
	onCall   func(call int)
	requests []GenerateRequest
}

func (m *mockGenerator) Generate(_ context.Context, req GenerateRequest) (domain.DraftAnswer, error) {
	m.requests = append(m.requests, req)
	if m.onCall != nil {
		m.onCall(len(m.requests) - 1)
	}
	if m.err != nil {
		return domain.DraftAnswer{}, m.err
	}
	d := scripted(m.drafts, len(m.requests)-1)
	d.Iteration = req.Iteration
	return d, nil
}

// mockVerifier returns scripted verdicts or errors per call.
type mockVerifier struct {
	verdicts []domain.Verdict
	errs     []error
	requests []VerifyRequest
}

func (m *mockVerifier) Verify(_ context.Context, req VerifyRequest) (domain.Verdict, error) {
	call := len(m.requests)
	m.requests = append(m.requests, req)
	if call < len(m.errs) && m.errs[call] != nil {
		return domain.Verdict{}, m.errs[call]
	}
	return scripted(m.verdicts, call), nil
}

func scripted[T any](items []T, call int) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	if call >= len(items) {
		return items[len(items)-1]
	}
	return items[call]
}

// mockPromptStore serves fixed templates.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswer:       "PASSAGES:\n%s\nQUESTION: %s",
		driven.PromptCorrect:      "PASSAGES:\n%s\nQUESTION: %s\nDRAFT: %s\nFEEDBACK:\n%s",
		driven.PromptVerify:       "QUESTION: %s\nSOURCES:\n%s\nANSWER: %s",
		driven.PromptVerifyRepair: "REPAIR: %s",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %q: %w", name, domain.ErrNotFound)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockLLM returns scripted completions and records prompts.
type mockLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
	opts      []driven.CompleteOptions
}

func (m *mockLLM) Complete(_ context.Context, prompt string, opts driven.CompleteOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return scripted(m.responses, len(m.prompts)-1), nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// failingEmbedder always fails.
type failingEmbedder struct{}

var errEmbedBackend = errors.New("backend down")

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errEmbedBackend
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errEmbedBackend
}

func (failingEmbedder) Dimensions() int              { return 8 }
func (failingEmbedder) ModelName() string            { return "failing" }
func (failingEmbedder) Ping(_ context.Context) error { return errEmbedBackend }
func (failingEmbedder) Close() error                 { return nil }

// mockIndex wraps a real index and can fail upserts.
type mockIndex struct {
	driven.VectorIndex
	upsertErr error
}

func (m *mockIndex) Upsert(ctx context.Context, entries []driven.VectorEntry) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	return m.VectorIndex.Upsert(ctx, entries)
}

// --- Fixtures ---

func hit(id, docID, content string, score float64) domain.RetrievalHit {
	return domain.RetrievalHit{
		ChunkID: id,
		Score:   score,
		Chunk: domain.Chunk{
			ID:          id,
			DocumentID:  docID,
			Content:     content,
			StartOffset: 0,
			EndOffset:   len([]rune(content)),
		},
	}
}

func verdict(confidence float64, unsupported, missing []string) domain.Verdict {
	return domain.Verdict{
		IsFaithful:        len(unsupported) == 0,
		IsComplete:        len(missing) == 0,
		UnsupportedClaims: unsupported,
		MissingAspects:    missing,
		Confidence:        confidence,
	}
}
