package httpapi

import (
	"context"

	"github.com/custodia-labs/verity/internal/core/domain"
)

type mockAskService struct {
	result   *domain.AskResult
	err      error
	question string
}

func (m *mockAskService) Ask(_ context.Context, question string) (*domain.AskResult, error) {
	m.question = question
	return m.result, m.err
}

type mockIngestService struct {
	documents []domain.Document
	document  *domain.Document
	result    *domain.IngestResult
	stats     domain.IndexStats
	err       error
	requests  []domain.IngestRequest
	deleted   []string
	resets    int
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.requests = append(m.requests, req)
	return m.result, m.err
}

func (m *mockIngestService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockIngestService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockIngestService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockIngestService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) Reset(_ context.Context) error {
	m.resets++
	return m.err
}

func (m *mockIngestService) SupportedKinds() []domain.FileKind {
	return []domain.FileKind{domain.FileKindText, domain.FileKindMarkdown}
}
