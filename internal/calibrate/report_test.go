package calibrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deesatzed/newragcity-sub001/internal/search"
)

func TestReport_EmptyLedger(t *testing.T) {
	cal, err := New(NewMemoryFeedbackStore(), DefaultConfig())
	require.NoError(t, err)

	report, err := cal.Report(context.Background(), search.QueryTypeFactual)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Count)
	assert.Empty(t, report.Bins)
	assert.Zero(t, report.ExpectedError)
}

func TestReport_BinsAndExpectedError(t *testing.T) {
	cal, err := New(NewMemoryFeedbackStore(), DefaultConfig())
	require.NoError(t, err)
	ctx := context.Background()

	// Two bins: four overconfident points at 0.9 and two accurate at 0.45.
	for i := 0; i < 4; i++ {
		require.NoError(t, cal.AddFeedback(ctx, "policy query", 0.9, 0.6, search.QueryTypePolicyLookup))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, cal.AddFeedback(ctx, "policy query", 0.45, 0.45, search.QueryTypePolicyLookup))
	}

	report, err := cal.Report(ctx, search.QueryTypePolicyLookup)

	require.NoError(t, err)
	assert.Equal(t, 6, report.Count)
	require.Len(t, report.Bins, 2)

	assert.Equal(t, 4, report.Bins[0].Bin)
	assert.Equal(t, 2, report.Bins[0].Count)
	assert.InDelta(t, 0.45, report.Bins[0].MeanPredicted, 1e-9)
	assert.InDelta(t, 0.45, report.Bins[0].MeanActual, 1e-9)

	assert.Equal(t, 9, report.Bins[1].Bin)
	assert.Equal(t, 4, report.Bins[1].Count)
	assert.InDelta(t, 0.9, report.Bins[1].MeanPredicted, 1e-9)
	assert.InDelta(t, 0.6, report.Bins[1].MeanActual, 1e-9)

	// Weighted error: (2*0 + 4*0.3) / 6 = 0.2.
	assert.InDelta(t, 0.2, report.ExpectedError, 1e-9)
}

func TestReport_IsolatedByQueryType(t *testing.T) {
	cal, err := New(NewMemoryFeedbackStore(), DefaultConfig())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, cal.AddFeedback(ctx, "how to", 0.8, 0.8, search.QueryTypeProcedural))

	report, err := cal.Report(ctx, search.QueryTypeFactual)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Count)
}
