package model

import "time"

// PredictionSpec is the caller's forecast handed to the tracker.
type PredictionSpec struct {
	ID          string
	PatternName string
	Type        Direction
	Probability float64 // not validated; out-of-range values flow into accuracy
	Horizon     int     // candles after CandleIndex at which the forecast is scored
	CandleIndex int     // anchor within the caller's current candle sequence
}

// TrackedPrediction is a registered forecast owned by the tracker.
type TrackedPrediction struct {
	PredictionSpec
	Timestamp time.Time // registration wall clock, used for retention only
	Evaluated bool
}

// TargetIndex is the candle index the prediction is scored against.
func (p TrackedPrediction) TargetIndex() int {
	return p.CandleIndex + p.Horizon
}

// PredictionResult is the immutable outcome of one resolved prediction.
type PredictionResult struct {
	PredictionID  string    `json:"prediction_id"`
	Success       bool      `json:"success"`
	ActualOutcome Direction `json:"actual_outcome"`
	Accuracy      float64   `json:"accuracy"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// PatternStat aggregates resolved predictions that share a pattern name.
type PatternStat struct {
	Total    int     `json:"total"`
	Success  int     `json:"success"`
	Accuracy float64 `json:"accuracy"` // mean accuracy
}

// AccuracyStats is the rolling accuracy summary over retained results.
type AccuracyStats struct {
	TotalPredictions int                    `json:"total_predictions"`
	SuccessRate      float64                `json:"success_rate"`
	AverageAccuracy  float64                `json:"average_accuracy"`
	PatternStats     map[string]PatternStat `json:"pattern_stats"`
}

// Forecast is a prediction produced by a forecaster before it is anchored and registered.
type Forecast struct {
	ID          string
	Source      string // forecaster name
	PatternName string
	Type        Direction
	Probability float64
	Horizon     int
	Confidence  float64
	Reasoning   string
}

// Spec anchors the forecast at candleIndex for registration with the tracker.
func (f Forecast) Spec(candleIndex int) PredictionSpec {
	return PredictionSpec{
		ID:          f.ID,
		PatternName: f.PatternName,
		Type:        f.Type,
		Probability: f.Probability,
		Horizon:     f.Horizon,
		CandleIndex: candleIndex,
	}
}
