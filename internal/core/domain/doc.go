// Package domain defines the core entities of the question answering engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested file and its extracted text
//   - Chunk: A span of document text, the unit of retrieval
//   - DraftAnswer: One generation attempt with its citations
//   - Verdict: The verifier's critique of a draft
//   - CorrectionSession: The controller's per-question working state
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
