package mcp

import (
	"context"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	result   *domain.AskResult
	err      error
	question string
}

func (m *mockAskService) Ask(_ context.Context, question string) (*domain.AskResult, error) {
	m.question = question
	return m.result, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	documents []domain.Document
	document  *domain.Document
	result    *domain.IngestResult
	stats     domain.IndexStats
	err       error
	requests  []domain.IngestRequest
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

func (m *mockIngestService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIngestService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) Reset(_ context.Context) error {
	return m.err
}

func (m *mockIngestService) SupportedKinds() []domain.FileKind {
	return domain.AllFileKinds()
}
