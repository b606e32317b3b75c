package driven

import (
	"context"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for an upload.
// It dispatches on file kind; the last registered normaliser for a kind wins.
type NormaliserRegistry interface {
	// Normalise extracts text using the normaliser registered for kind.
	// Returns domain.ErrUnsupportedFormat when no normaliser handles kind.
	Normalise(ctx context.Context, kind domain.FileKind, content []byte) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedKinds returns all file kinds that can be normalised.
	SupportedKinds() []domain.FileKind
}
