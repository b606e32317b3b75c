// Package tui provides the interactive chat interface for verity.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/verity/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Ask answers questions through the self-correction loop.
	Ask driving.AskService

	// Ingest lists and deletes documents.
	Ingest driving.IngestService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(ask driving.AskService, ingest driving.IngestService) *Ports {
	return &Ports{
		Ask:    ask,
		Ingest: ingest,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	return nil
}
