package semantic

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

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	v1, err := e.Embed(context.Background(), "vacation policy for full-time employees")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "vacation policy for full-time employees")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, StaticDimensions)
}

func TestStaticEmbedder_UnitNorm(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	v, err := e.Embed(context.Background(), "expense reimbursement procedure")
	require.NoError(t, err)

	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestStaticEmbedder_EmptyText(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, v, StaticDimensions)
	for _, val := range v {
		assert.Zero(t, val)
	}
}

func TestStaticEmbedder_SimilarTextsCloser(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	ctx := context.Background()
	base, err := e.Embed(ctx, "employee vacation and leave policy")
	require.NoError(t, err)
	related, err := e.Embed(ctx, "vacation leave policy for employees")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "quarterly financial report spreadsheet")
	require.NoError(t, err)

	assert.Greater(t, cosine(base, related), cosine(base, unrelated))
}

func TestStaticEmbedder_Batch(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	vectors, err := e.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	single, err := e.Embed(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, single, vectors[1])
}

func TestStaticEmbedder_Closed(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrEmbedderClosed)
}
