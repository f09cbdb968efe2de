package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deesatzed/newragcity-sub001/internal/store"
)

func newTestBackend(t *testing.T) *HNSWBackend {
	t.Helper()
	b := NewHNSWBackend(NewStaticEmbedder(), nil)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func policyDocs() []*store.Document {
	return []*store.Document{
		{ID: "vacation", Content: "Employees accrue vacation days monthly and may carry over unused leave.", Metadata: map[string]any{"source": "hr-handbook"}},
		{ID: "expenses", Content: "Submit expense reports with receipts within thirty days of purchase.", Metadata: map[string]any{"source": "finance-guide"}},
		{ID: "security", Content: "Use the company VPN when accessing internal systems from remote networks.", Metadata: map[string]any{"source": "it-policy"}},
	}
}

func TestHNSWBackend_IndexAndSearch(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Index(ctx, policyDocs()))
	assert.Equal(t, 3, b.Count())

	results, err := b.Search(ctx, "vacation days and leave accrual", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "vacation", results[0].DocID)
	assert.Contains(t, results[0].Content, "vacation")
	assert.Equal(t, "hr-handbook", results[0].Metadata["source"])
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestHNSWBackend_SearchEmptyIndex(t *testing.T) {
	b := newTestBackend(t)

	results, err := b.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWBackend_TopKZero(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Index(context.Background(), policyDocs()))

	results, err := b.Search(context.Background(), "vacation", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHNSWBackend_ReindexSameID(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Index(ctx, policyDocs()))
	require.NoError(t, b.Index(ctx, []*store.Document{
		{ID: "vacation", Content: "Parental leave is available for up to twelve weeks."},
	}))

	assert.Equal(t, 3, b.Count())

	results, err := b.Search(ctx, "parental leave twelve weeks", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "vacation", results[0].DocID)
	assert.Contains(t, results[0].Content, "Parental")
}

func TestHNSWBackend_ClearEmptiesIndex(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Index(ctx, policyDocs()))
	require.Equal(t, 3, b.Count())

	require.NoError(t, b.Clear(ctx))
	assert.Equal(t, 0, b.Count())

	results, err := b.Search(ctx, "vacation days", 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	// A cleared backend accepts new documents.
	require.NoError(t, b.Index(ctx, policyDocs()[:1]))
	assert.Equal(t, 1, b.Count())
}

func TestHNSWBackend_Closed(t *testing.T) {
	b := NewHNSWBackend(NewStaticEmbedder(), nil)
	require.NoError(t, b.Close())

	err := b.Index(context.Background(), policyDocs())
	assert.ErrorIs(t, err, ErrBackendClosed)

	_, err = b.Search(context.Background(), "anything", 1)
	assert.ErrorIs(t, err, ErrBackendClosed)

	assert.ErrorIs(t, b.Clear(context.Background()), ErrBackendClosed)

	// Closing twice is fine.
	assert.NoError(t, b.Close())
}

func TestCosineDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, cosineDistanceToScore(0), 1e-9)
	assert.InDelta(t, 0.5, cosineDistanceToScore(1), 1e-9)
	assert.InDelta(t, 0.0, cosineDistanceToScore(2), 1e-9)
}
