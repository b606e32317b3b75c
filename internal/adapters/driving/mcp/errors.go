// Package mcp provides an MCP (Model Context Protocol) server adapter for Verity.
// It lets AI assistants ask grounded questions against the ingested documents.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")

// ErrMissingIngestService is returned when the ingest service is not provided.
var ErrMissingIngestService = errors.New("mcp: ingest service is required")
