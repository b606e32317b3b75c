package tui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// MockAskService implements driving.AskService for testing.
type MockAskService struct {
	AskFunc func(ctx context.Context, question string) (*domain.AskResult, error)
}

func (m *MockAskService) Ask(ctx context.Context, question string) (*domain.AskResult, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question)
	}
	return &domain.AskResult{
		Question:   question,
		Answer:     "Thirty days written notice.",
		Confidence: 0.9,
		Status:     domain.SessionAccepted,
		StopReason: domain.StopAccepted,
	}, nil
}

// MockIngestService implements driving.IngestService for testing.
type MockIngestService struct {
	Docs []domain.Document
}

func (m *MockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.Docs = append(m.Docs, domain.Document{ID: req.Name, Name: req.Name, CreatedAt: time.Now()})
	return &domain.IngestResult{DocumentID: req.Name, Chunks: 1}, nil
}

func (m *MockIngestService) List(context.Context) ([]domain.Document, error) {
	return m.Docs, nil
}

func (m *MockIngestService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.Docs {
		if m.Docs[i].ID == id {
			return &m.Docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockIngestService) Delete(context.Context, string) error { return nil }

func (m *MockIngestService) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{TotalDocuments: len(m.Docs)}, nil
}

func (m *MockIngestService) Reset(context.Context) error { return nil }

func (m *MockIngestService) SupportedKinds() []domain.FileKind {
	return domain.AllFileKinds()
}

func TestNewPorts(t *testing.T) {
	ask := &MockAskService{}
	ingest := &MockIngestService{}

	ports := NewPorts(ask, ingest)

	require.NotNil(t, ports)
	assert.Equal(t, ask, ports.Ask)
	assert.Equal(t, ingest, ports.Ingest)
	assert.NoError(t, ports.Validate())
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{name: "nil ports", ports: nil, wantErr: ErrInvalidPorts},
		{name: "missing ask", ports: &Ports{Ingest: &MockIngestService{}}, wantErr: ErrMissingAskService},
		{name: "missing ingest", ports: &Ports{Ask: &MockAskService{}}, wantErr: ErrMissingIngestService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.ports.Validate(), tt.wantErr)
		})
	}
}
