package recorder

import "PatternSentinel/internal/model"

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPatterns(string, []model.Pattern) error           { return nil }
func (n *NoopRecorder) RecordPrediction(string, model.TrackedPrediction) error { return nil }
func (n *NoopRecorder) RecordResult(string, model.PredictionResult) error      { return nil }
func (n *NoopRecorder) RecordStats(string, model.AccuracyStats) error          { return nil }
func (n *NoopRecorder) Close() error                                           { return nil }
