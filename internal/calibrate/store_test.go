package calibrate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deesatzed/newragcity-sub001/internal/search"
)

func samplePoint(qt search.QueryType, age time.Duration) DataPoint {
	return DataPoint{
		Query:               "how many vacation days",
		PredictedConfidence: 0.85,
		ActualAccuracy:      0.7,
		QueryType:           qt,
		Timestamp:           time.Now().Add(-age),
		Factors: &ConfidenceFactors{
			SemanticConfidence: 0.9,
			SourceAuthority:    0.7,
			ContentRelevance:   0.8,
		},
	}
}

func TestMemoryFeedbackStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryFeedbackStore()

	require.NoError(t, store.Append(ctx, samplePoint(search.QueryTypePolicyLookup, time.Hour)))
	require.NoError(t, store.Append(ctx, samplePoint(search.QueryTypeFactual, time.Hour)))
	require.NoError(t, store.Append(ctx, samplePoint(search.QueryTypePolicyLookup, 48*time.Hour)))

	recent, err := store.Recent(ctx, search.QueryTypePolicyLookup, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	all, err := store.Recent(ctx, search.QueryTypePolicyLookup, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pruned, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 2, store.Count())

	require.NoError(t, store.Close())
}

func TestSQLiteFeedbackStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "feedback.db")

	store, err := OpenSQLiteFeedbackStore(path)
	require.NoError(t, err)

	point := samplePoint(search.QueryTypePolicyLookup, time.Hour)
	require.NoError(t, store.Append(ctx, point))

	// A point without factors survives too.
	bare := samplePoint(search.QueryTypeFactual, time.Hour)
	bare.Factors = nil
	require.NoError(t, store.Append(ctx, bare))

	recent, err := store.Recent(ctx, search.QueryTypePolicyLookup, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)

	got := recent[0]
	assert.Equal(t, point.Query, got.Query)
	assert.Equal(t, point.PredictedConfidence, got.PredictedConfidence)
	assert.Equal(t, point.ActualAccuracy, got.ActualAccuracy)
	assert.Equal(t, search.QueryTypePolicyLookup, got.QueryType)
	assert.WithinDuration(t, point.Timestamp, got.Timestamp, time.Millisecond)
	require.NotNil(t, got.Factors)
	assert.Equal(t, point.Factors.SemanticConfidence, got.Factors.SemanticConfidence)

	factual, err := store.Recent(ctx, search.QueryTypeFactual, time.Time{})
	require.NoError(t, err)
	require.Len(t, factual, 1)
	assert.Nil(t, factual[0].Factors)

	require.NoError(t, store.Close())

	// Reopening sees the persisted rows.
	reopened, err := OpenSQLiteFeedbackStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	recent, err = reopened.Recent(ctx, search.QueryTypePolicyLookup, time.Time{})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestSQLiteFeedbackStore_Prune(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteFeedbackStore(filepath.Join(t.TempDir(), "feedback.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(ctx, samplePoint(search.QueryTypeGeneral, time.Hour)))
	require.NoError(t, store.Append(ctx, samplePoint(search.QueryTypeGeneral, 72*time.Hour)))

	pruned, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	remaining, err := store.Recent(ctx, search.QueryTypeGeneral, time.Time{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
