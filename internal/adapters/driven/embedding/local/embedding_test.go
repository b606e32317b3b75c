package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(0)
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, ModelName, svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestEmbed_Deterministic(t *testing.T) {
	svc := NewEmbeddingService(128)
	a, err := svc.Embed(context.Background(), "either party may terminate with 30 days notice")
	require.NoError(t, err)
	b, err := svc.Embed(context.Background(), "either party may terminate with 30 days notice")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
	assert.InDelta(t, 1.0, cosine(a, a), 1e-6)
}

func TestEmbed_RelatedTextIsCloser(t *testing.T) {
	svc := NewEmbeddingService(0)
	ctx := context.Background()

	query, _ := svc.Embed(ctx, "How much notice is required to terminate?")
	related, _ := svc.Embed(ctx, "Termination clause: either party may terminate with 30 days written notice.")
	unrelated, _ := svc.Embed(ctx, "The cafeteria serves lunch between noon and two.")

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestEmbed_EmptyTextIsZeroVector(t *testing.T) {
	vec, err := NewEmbeddingService(16).Embed(context.Background(), "the of and")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbedBatch(t *testing.T) {
	svc := NewEmbeddingService(32)
	out, err := svc.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	single, _ := svc.Embed(context.Background(), "beta")
	assert.Equal(t, single, out[1])
}

func TestEmbed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEmbeddingService(8).Embed(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
