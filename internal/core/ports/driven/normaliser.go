package driven

import (
	"context"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// Normaliser extracts plain text from uploaded bytes.
// Each normaliser handles specific file kinds (e.g., PDF, DOCX).
type Normaliser interface {
	// SupportedKinds returns the file kinds this normaliser handles.
	SupportedKinds() []domain.FileKind

	// Normalise extracts the text of the file.
	// It is a pure function of its input.
	Normalise(ctx context.Context, content []byte) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Text is the extracted document text.
	Text string

	// Title is an optional title found in the file.
	Title string

	// Metadata contains format-specific key-value pairs.
	Metadata map[string]any
}
