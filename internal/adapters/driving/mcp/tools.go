package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string           `json:"answer"`
	Confidence float64          `json:"confidence"`
	Band       string           `json:"band"`
	Status     string           `json:"status"`
	StopReason string           `json:"stop_reason"`
	Iterations int              `json:"iterations"`
	Citations  []CitationOutput `json:"citations"`
}

// CitationOutput is a source passage backing the answer.
type CitationOutput struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name,omitempty"`
	ChunkID      string `json:"chunk_id"`
	StartOffset  int    `json:"start_offset"`
	EndOffset    int    `json:"end_offset"`
	Snippet      string `json:"snippet"`
}

// IngestFileInput is the input schema for the ingest_file tool.
type IngestFileInput struct {
	Path string `json:"path" jsonschema:"absolute path of a .pdf, .docx, .txt or .md file to ingest"`
}

// IngestFileOutput is the output schema for the ingest_file tool.
type IngestFileOutput struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
	Duplicate  bool   `json:"duplicate"`
}

// StatsInput is the (empty) input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	TotalDocuments int    `json:"total_documents"`
	TotalChunks    int    `json:"total_chunks"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	LLMModel       string `json:"llm_model,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested documents, verified against cited passages",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_file",
		Description: "Ingest a local document so it can be asked about",
	}, s.handleIngestFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Report how many documents and chunks are indexed",
	}, s.handleStats)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	res, err := s.ports.Ask.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     res.Answer,
		Confidence: res.Confidence,
		Band:       string(res.Band()),
		Status:     res.Status.String(),
		StopReason: string(res.StopReason),
		Iterations: len(res.CorrectionLog),
		Citations:  make([]CitationOutput, len(res.Citations)),
	}
	for i, c := range res.Citations {
		output.Citations[i] = CitationOutput{
			DocumentID:   c.DocumentID,
			DocumentName: c.DocumentName,
			ChunkID:      c.ChunkID,
			StartOffset:  c.StartOffset,
			EndOffset:    c.EndOffset,
			Snippet:      c.Snippet,
		}
	}

	return nil, output, nil
}

func (s *Server) handleIngestFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestFileInput,
) (*mcp.CallToolResult, IngestFileOutput, error) {
	if input.Path == "" {
		return nil, IngestFileOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	content, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, IngestFileOutput{}, fmt.Errorf("reading %s: %w", input.Path, err)
	}

	res, err := s.ports.Ingest.Ingest(ctx, domain.IngestRequest{
		Name:    filepath.Base(input.Path),
		Content: content,
	})
	if err != nil {
		return nil, IngestFileOutput{}, err
	}

	return nil, IngestFileOutput{
		DocumentID: res.DocumentID,
		Chunks:     res.Chunks,
		Duplicate:  res.Duplicate,
	}, nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Ingest.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{
		TotalDocuments: stats.TotalDocuments,
		TotalChunks:    stats.TotalChunks,
		EmbeddingModel: stats.EmbeddingModel,
		LLMModel:       stats.LLMModel,
	}, nil
}
