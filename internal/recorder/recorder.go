package recorder

import "PatternSentinel/internal/model"

// Recorder persists the audit history of an analysis run.
// Nothing is read back into the tracker.
type Recorder interface {
	RecordPatterns(symbol string, patterns []model.Pattern) error
	RecordPrediction(symbol string, p model.TrackedPrediction) error
	RecordResult(symbol string, r model.PredictionResult) error
	RecordStats(symbol string, stats model.AccuracyStats) error
	Close() error
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*PostgresRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
