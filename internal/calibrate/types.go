// Package calibrate assigns calibrated confidence scores to hybrid search
// results. A multi-factor raw confidence is corrected against historical
// (predicted, actual) feedback bucketed by confidence bin, then paired with
// an uncertainty estimate and interval. Calibration is deterministic and
// explainable, not a trained model.
package calibrate

import (
	"context"
	"time"

	"github.com/deesatzed/newragcity-sub001/internal/search"
)

// Factor weights for the raw confidence combination. The uncertainty
// penalty contributes twice: as a weighted factor and as a multiplicative
// dampener on the whole sum.
const (
	weightSemantic    = 0.25
	weightAuthority   = 0.20
	weightRelevance   = 0.15
	weightStructural  = 0.15
	weightModel       = 0.10
	weightHistorical  = 0.10
	weightUncertainty = 0.05
)

// Quality labels combine calibrated confidence and uncertainty into a
// coarse verdict for downstream consumers.
const (
	QualityHighConfident  = "high_quality_confident"
	QualityHighModerate   = "high_quality_moderate"
	QualityHighUncertain  = "high_quality_uncertain"
	QualityModerate       = "moderate_quality"
	QualityLowUncertainty = "low_quality_high_uncertainty"
)

// ConfidenceFactors are the seven signals, each in [0, 1], extracted
// independently from one result and its query.
type ConfidenceFactors struct {
	// SemanticConfidence is the result's normalized semantic score.
	SemanticConfidence float64

	// SourceAuthority comes from result metadata; 0.70 when absent.
	SourceAuthority float64

	// ContentRelevance is length-adjusted term overlap between query and
	// content.
	ContentRelevance float64

	// StructuralConfidence comes from result metadata; 0.70 when absent.
	StructuralConfidence float64

	// ModelConfidence is the reranker's score when reranking ran, else 0.70.
	ModelConfidence float64

	// HistoricalAccuracy is the mean outcome of past feedback for queries
	// sharing at least one token; 0.75 when no history matches.
	HistoricalAccuracy float64

	// UncertaintyPenalty accumulates fixed increments for weak-signal
	// conditions, capped at 1.0. Higher means less certain.
	UncertaintyPenalty float64
}

// DataPoint is one recorded feedback outcome: what confidence was predicted
// and how accurate the result turned out to be.
type DataPoint struct {
	Query               string             `json:"query"`
	PredictedConfidence float64            `json:"predicted_confidence"`
	ActualAccuracy      float64            `json:"actual_accuracy"`
	QueryType           search.QueryType   `json:"query_type"`
	Timestamp           time.Time          `json:"timestamp"`
	Factors             *ConfidenceFactors `json:"factors,omitempty"`
}

// Interval is a confidence interval clamped to [0, 1].
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Calibration is the outcome of calibrating one result.
type Calibration struct {
	OriginalConfidence   float64           `json:"original_confidence"`
	CalibratedConfidence float64           `json:"calibrated_confidence"`
	UncertaintyEstimate  float64           `json:"uncertainty_estimate"`
	ConfidenceInterval   Interval          `json:"confidence_interval"`
	QualityLabel         string            `json:"quality_label"`
	Factors              ConfidenceFactors `json:"factors"`

	// CalibrationApplied is false when history was too thin and the raw
	// confidence was returned unchanged.
	CalibrationApplied bool `json:"calibration_applied"`
}

// FeedbackStore is the append-mostly ledger of calibration feedback.
// Implementations must support concurrent appends; readers may observe
// slightly stale (pre-prune) data but never a partial point.
type FeedbackStore interface {
	// Append records a feedback point.
	Append(ctx context.Context, p DataPoint) error

	// Recent returns the points for a query type recorded at or after the
	// cutoff, oldest first.
	Recent(ctx context.Context, queryType search.QueryType, cutoff time.Time) ([]DataPoint, error)

	// Prune removes points older than the cutoff and reports how many were
	// dropped. Points at or after the cutoff are never touched.
	Prune(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases store resources.
	Close() error
}

// Config tunes the calibration loop. The conservatism factor and bin width
// are hand-tuned defaults, kept configurable rather than assumed optimal.
type Config struct {
	// WindowDays is the calibration window; feedback older than this is
	// ignored for corrections (default: 30). Retention is twice the window.
	WindowDays int

	// MinSamples is the minimum feedback count per query type before
	// calibration applies (default: 10).
	MinSamples int

	// BinWidth is the confidence bin width (default: 0.1).
	BinWidth float64

	// Conservatism scales the applied correction delta (default: 0.7).
	Conservatism float64
}

// DefaultConfig returns the default calibration configuration.
func DefaultConfig() Config {
	return Config{
		WindowDays:   30,
		MinSamples:   10,
		BinWidth:     0.1,
		Conservatism: 0.7,
	}
}

// window returns the calibration window as a duration.
func (c Config) window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// retention returns how long feedback points are kept.
func (c Config) retention() time.Duration {
	return 2 * c.window()
}
