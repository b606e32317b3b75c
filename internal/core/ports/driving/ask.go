package driving

import (
	"context"

	"github.com/custodia-labs/verity/internal/core/domain"
)

// AskService answers questions against the ingested documents.
type AskService interface {
	// Ask runs the self-correcting answer loop for one question.
	// Failures are always returned as *domain.AskError.
	Ask(ctx context.Context, question string) (*domain.AskResult, error)
}
