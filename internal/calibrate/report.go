package calibrate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/deesatzed/newragcity-sub001/internal/search"
)

// BinReport aggregates the feedback points falling into one confidence bin.
type BinReport struct {
	// Bin is the bin index; the bin covers [Bin*width, (Bin+1)*width).
	Bin int `json:"bin"`

	Count         int     `json:"count"`
	MeanPredicted float64 `json:"mean_predicted"`
	MeanActual    float64 `json:"mean_actual"`
}

// Report summarizes calibration quality for one query type over the
// calibration window.
type Report struct {
	QueryType search.QueryType `json:"query_type"`
	Count     int              `json:"count"`
	Bins      []BinReport      `json:"bins,omitempty"`

	// ExpectedError is the count-weighted mean absolute gap between
	// predicted confidence and actual accuracy across bins.
	ExpectedError float64 `json:"expected_error"`
}

// Report computes per-bin calibration quality for a query type from the
// feedback recorded inside the calibration window. An empty ledger yields a
// report with Count 0 and no bins.
func (c *Calibrator) Report(ctx context.Context, queryType search.QueryType) (*Report, error) {
	cutoff := time.Now().Add(-c.config.window())
	history, err := c.store.Recent(ctx, queryType, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load feedback history: %w", err)
	}

	report := &Report{QueryType: queryType, Count: len(history)}
	if len(history) == 0 {
		return report, nil
	}

	maxBin := int(math.Ceil(1.0/c.config.BinWidth)) - 1
	sumPredicted := make([]float64, maxBin+1)
	sumActual := make([]float64, maxBin+1)
	counts := make([]int, maxBin+1)
	for _, p := range history {
		bin := c.binIndex(p.PredictedConfidence)
		sumPredicted[bin] += p.PredictedConfidence
		sumActual[bin] += p.ActualAccuracy
		counts[bin]++
	}

	var weightedError float64
	for bin, n := range counts {
		if n == 0 {
			continue
		}
		br := BinReport{
			Bin:           bin,
			Count:         n,
			MeanPredicted: sumPredicted[bin] / float64(n),
			MeanActual:    sumActual[bin] / float64(n),
		}
		report.Bins = append(report.Bins, br)
		weightedError += float64(n) * math.Abs(br.MeanPredicted-br.MeanActual)
	}
	report.ExpectedError = weightedError / float64(len(history))
	return report, nil
}
