package cli

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/custodia-labs/verity/internal/adapters/driven/report"
	"github.com/custodia-labs/verity/internal/core/domain"
)

// mockAskService implements driving.AskService for testing.
type mockAskService struct {
	result *domain.AskResult
	err    error
	asked  []string
}

func (m *mockAskService) Ask(_ context.Context, question string) (*domain.AskResult, error) {
	m.asked = append(m.asked, question)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.AskResult{
		SessionID:  "session-1",
		Question:   question,
		Answer:     "Either party may terminate with 30 days written notice.",
		Confidence: 0.93,
		Status:     domain.SessionAccepted,
		StopReason: domain.StopAccepted,
		Citations: []domain.Citation{{
			ChunkID: "c1", DocumentID: "doc-1", DocumentName: "contract.txt",
			StartOffset: 0, EndOffset: 55, Snippet: "Either party may terminate with 30 days written notice.",
		}},
		CorrectionLog: []domain.IterationSummary{
			{Iteration: 0, RetrievalK: 4, Confidence: 0.93, IsFaithful: true, IsComplete: true, Decision: "accepted"},
		},
	}, nil
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	docs   map[string]domain.Document
	resets int
}

func newMockIngestService() *mockIngestService {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &mockIngestService{docs: map[string]domain.Document{
		"doc-1": {
			ID: "doc-1", Name: "contract.txt", Kind: domain.FileKindText, Size: 55,
			ContentHash: "abc", Content: "Either party may terminate with 30 days written notice.",
			CreatedAt: created,
		},
	}}
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	kind := domain.FileKindFromName(req.Name)
	if !kind.IsValid() {
		return nil, &domain.IngestError{Name: req.Name, Err: domain.ErrUnsupportedFormat}
	}
	id := "doc-" + req.Name
	for _, d := range m.docs {
		if d.Content == string(req.Content) {
			return &domain.IngestResult{DocumentID: d.ID, Chunks: 1, Duplicate: true}, nil
		}
	}
	m.docs[id] = domain.Document{ID: id, Name: req.Name, Kind: kind, Content: string(req.Content)}
	return &domain.IngestResult{DocumentID: id, Chunks: 2}, nil
}

func (m *mockIngestService) List(context.Context) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *mockIngestService) Get(_ context.Context, id string) (*domain.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (m *mockIngestService) Delete(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *mockIngestService) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{
		TotalDocuments: len(m.docs),
		TotalChunks:    2 * len(m.docs),
		EmbeddingModel: "hashing-512",
	}, nil
}

func (m *mockIngestService) Reset(context.Context) error {
	m.resets++
	m.docs = map[string]domain.Document{}
	return nil
}

func (m *mockIngestService) SupportedKinds() []domain.FileKind {
	return []domain.FileKind{domain.FileKindText, domain.FileKindMarkdown}
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	values map[string]any
	checks []domain.ProviderCheck
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{values: map[string]any{}}
}

func (m *mockSettingsService) Get() (domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	s.LLM = domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test-123456789"}
	return s, nil
}

func (m *mockSettingsService) Value(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockSettingsService) Set(key, raw string) error {
	if key != "engine.max_iterations" && key != "llm.api_key" {
		return domain.ErrInvalidInput
	}
	m.values[key] = raw
	return nil
}

func (m *mockSettingsService) Unset(key string) error {
	if _, ok := m.values[key]; !ok {
		return domain.ErrInvalidInput
	}
	delete(m.values, key)
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"engine.max_iterations", "llm.api_key"}
}

func (m *mockSettingsService) Path() string {
	return "/tmp/verity/config.toml"
}

func (m *mockSettingsService) Check() ([]domain.ProviderCheck, error) {
	return m.checks, nil
}

type testServices struct {
	ask      *mockAskService
	ingest   *mockIngestService
	settings *mockSettingsService
}

// setupTestServices injects mocks and returns a cleanup that removes them.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ask:      &mockAskService{},
		ingest:   newMockIngestService(),
		settings: newMockSettingsService(),
	}
	SetServices(&Services{
		Ask:      ts.ask,
		Ingest:   ts.ingest,
		Settings: ts.settings,
		Reports:  report.NewFactory(),
	})
	return ts, func() {
		SetServices(nil)
	}
}

var errBackend = errors.New("backend offline")
