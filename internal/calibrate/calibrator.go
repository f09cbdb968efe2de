package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/deesatzed/newragcity-sub001/internal/search"
)

// Calibrated confidence clamp bounds. Calibration never claims certainty in
// either direction.
const (
	minCalibrated = 0.1
	maxCalibrated = 0.95
)

// Uncertainty estimate clamp bounds.
const (
	minUncertainty = 0.05
	maxUncertainty = 0.4
)

// zScore95 is the z-value for a 95% confidence interval.
const zScore95 = 1.96

// defaultHistoricalVariance is used when no feedback exists to measure the
// spread of past predictions.
const defaultHistoricalVariance = 0.15

// Calibrator computes calibrated confidence for search results and records
// feedback outcomes. All state lives in the feedback store; a host
// application constructs one calibrator and shares it.
type Calibrator struct {
	store  FeedbackStore
	config Config
}

// New creates a calibrator over the given feedback store.
func New(store FeedbackStore, config Config) (*Calibrator, error) {
	if store == nil {
		return nil, fmt.Errorf("feedback store is required")
	}
	if config.WindowDays <= 0 {
		config.WindowDays = DefaultConfig().WindowDays
	}
	if config.MinSamples <= 0 {
		config.MinSamples = DefaultConfig().MinSamples
	}
	if config.BinWidth <= 0 || config.BinWidth > 1 {
		config.BinWidth = DefaultConfig().BinWidth
	}
	if config.Conservatism <= 0 || config.Conservatism > 1 {
		config.Conservatism = DefaultConfig().Conservatism
	}
	return &Calibrator{store: store, config: config}, nil
}

// Calibrate computes the calibrated confidence for one result. Insufficient
// history is not an error: the raw confidence is returned unchanged with
// CalibrationApplied false.
func (c *Calibrator) Calibrate(ctx context.Context, result *search.FusedResult, query string, queryType search.QueryType) (*Calibration, error) {
	if result == nil {
		return nil, fmt.Errorf("result is required")
	}

	cutoff := time.Now().Add(-c.config.window())
	history, err := c.store.Recent(ctx, queryType, cutoff)
	if err != nil {
		// Degrade to uncalibrated rather than failing the query.
		slog.Warn("feedback_history_unavailable", slog.String("error", err.Error()))
		history = nil
	}

	factors := ExtractFactors(result, query, history)
	raw := rawConfidence(factors)

	calibrated := raw
	applied := false
	if len(history) >= c.config.MinSamples {
		calibrated, applied = c.applyBinCorrection(raw, history)
	}

	uncertainty := c.uncertaintyEstimate(calibrated, factors, history)

	halfWidth := zScore95 * uncertainty / 2
	interval := Interval{
		Low:  clamp01(calibrated - halfWidth),
		High: clamp01(calibrated + halfWidth),
	}

	cal := &Calibration{
		OriginalConfidence:   raw,
		CalibratedConfidence: calibrated,
		UncertaintyEstimate:  uncertainty,
		ConfidenceInterval:   interval,
		QualityLabel:         qualityLabel(calibrated, uncertainty),
		Factors:              factors,
		CalibrationApplied:   applied,
	}

	slog.Debug("confidence_calibrated",
		slog.String("doc_id", result.DocID),
		slog.String("query_type", string(queryType)),
		slog.Float64("raw", raw),
		slog.Float64("calibrated", calibrated),
		slog.Float64("uncertainty", uncertainty),
		slog.Bool("applied", applied),
		slog.Int("history", len(history)))

	return cal, nil
}

// AddFeedback appends an outcome to the ledger and prunes points that have
// aged out of the retention window.
func (c *Calibrator) AddFeedback(ctx context.Context, query string, predicted, actual float64, queryType search.QueryType) error {
	point := DataPoint{
		Query:               query,
		PredictedConfidence: clamp01(predicted),
		ActualAccuracy:      clamp01(actual),
		QueryType:           queryType,
		Timestamp:           time.Now(),
	}
	if err := c.store.Append(ctx, point); err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}

	pruned, err := c.store.Prune(ctx, time.Now().Add(-c.config.retention()))
	if err != nil {
		return fmt.Errorf("prune feedback: %w", err)
	}
	if pruned > 0 {
		slog.Debug("feedback_pruned", slog.Int("points", pruned))
	}
	return nil
}

// rawConfidence combines the factors into the uncalibrated confidence. The
// uncertainty penalty appears both as a weighted term and as a dampener.
func rawConfidence(f ConfidenceFactors) float64 {
	sum := f.SemanticConfidence*weightSemantic +
		f.SourceAuthority*weightAuthority +
		f.ContentRelevance*weightRelevance +
		f.StructuralConfidence*weightStructural +
		f.ModelConfidence*weightModel +
		f.HistoricalAccuracy*weightHistorical +
		f.UncertaintyPenalty*weightUncertainty

	return clamp01(sum * (1 - f.UncertaintyPenalty*0.1))
}

// applyBinCorrection corrects the raw confidence against the historical
// accuracy of predictions in the same confidence bin. Only a conservative
// share of the full correction is applied, and the result is clamped away
// from both extremes.
func (c *Calibrator) applyBinCorrection(raw float64, history []DataPoint) (float64, bool) {
	bin := c.binIndex(raw)

	var sumPredicted, sumActual float64
	count := 0
	for _, p := range history {
		if c.binIndex(p.PredictedConfidence) == bin {
			sumPredicted += p.PredictedConfidence
			sumActual += p.ActualAccuracy
			count++
		}
	}
	if count == 0 {
		return raw, false
	}

	binConfidence := sumPredicted / float64(count)
	if binConfidence == 0 {
		return raw, false
	}
	binAccuracy := sumActual / float64(count)

	calibrationFactor := binAccuracy / binConfidence
	full := raw * calibrationFactor

	calibrated := raw + c.config.Conservatism*(full-raw)
	if calibrated < minCalibrated {
		calibrated = minCalibrated
	}
	if calibrated > maxCalibrated {
		calibrated = maxCalibrated
	}
	return calibrated, true
}

func (c *Calibrator) binIndex(confidence float64) int {
	idx := int(math.Floor(confidence / c.config.BinWidth))
	maxBin := int(math.Ceil(1.0/c.config.BinWidth)) - 1
	if idx > maxBin {
		idx = maxBin
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// uncertaintyEstimate blends three variance signals: a U-shaped function of
// the calibrated confidence (maximal at 0.5), the mean U-shaped variance of
// the non-penalty factors, and the historical spread between predictions
// and outcomes.
func (c *Calibrator) uncertaintyEstimate(calibrated float64, f ConfidenceFactors, history []DataPoint) float64 {
	confidenceVariance := 2 * calibrated * (1 - calibrated)

	factorValues := []float64{
		f.SemanticConfidence,
		f.SourceAuthority,
		f.ContentRelevance,
		f.StructuralConfidence,
		f.ModelConfidence,
		f.HistoricalAccuracy,
	}
	factorVariance := 0.0
	for _, v := range factorValues {
		factorVariance += 2 * v * (1 - v)
	}
	factorVariance /= float64(len(factorValues))

	historicalVariance := defaultHistoricalVariance
	if len(history) > 0 {
		sum := 0.0
		for _, p := range history {
			sum += math.Abs(p.PredictedConfidence - p.ActualAccuracy)
		}
		historicalVariance = sum / float64(len(history))
	}

	u := 0.4*confidenceVariance + 0.4*factorVariance + 0.2*historicalVariance
	if u < minUncertainty {
		return minUncertainty
	}
	if u > maxUncertainty {
		return maxUncertainty
	}
	return u
}

// qualityLabel maps (confidence, uncertainty) to a coarse verdict.
func qualityLabel(confidence, uncertainty float64) string {
	switch {
	case uncertainty < 0.1 && confidence > 0.8:
		return QualityHighConfident
	case uncertainty < 0.1 && confidence > 0.6:
		return QualityHighModerate
	case uncertainty < 0.1:
		return QualityHighUncertain
	case uncertainty < 0.2:
		return QualityModerate
	default:
		return QualityLowUncertainty
	}
}
