package mcp

import (
	"github.com/custodia-labs/verity/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask runs the self-correcting answer loop.
	Ask driving.AskService

	// Ingest manages the indexed document set.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	return nil
}
