// Package tracker registers forecasts, scores them once their horizon has elapsed
// and keeps rolling accuracy statistics.
package tracker

import (
	"sort"
	"sync"
	"time"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
)

const (
	// DefaultRetention bounds how long predictions and results are kept.
	DefaultRetention = time.Hour
	// DefaultOutcomeThreshold is the relative close-to-close move that counts as bullish or bearish.
	DefaultOutcomeThreshold = 0.015
	// DefaultRecentCount is used by RecentResults when count <= 0.
	DefaultRecentCount = 10
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithRetention sets the pruning window applied on AddPrediction.
func WithRetention(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.retention = d
		}
	}
}

// WithOutcomeThreshold sets the bullish/bearish price change threshold.
func WithOutcomeThreshold(threshold float64) Option {
	return func(t *Tracker) {
		if threshold >= 0 {
			t.threshold = threshold
		}
	}
}

// Tracker owns pending predictions and their resolved results. Safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	predictions []*model.TrackedPrediction
	results     []model.PredictionResult

	now       func() time.Time
	retention time.Duration
	threshold float64
}

// New creates an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		now:       time.Now,
		retention: DefaultRetention,
		threshold: DefaultOutcomeThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddPrediction registers a pending prediction and prunes expired entries.
// Ids are not checked for uniqueness; duplicates are tracked and resolved independently.
func (t *Tracker) AddPrediction(spec model.PredictionSpec) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.predictions = append(t.predictions, &model.TrackedPrediction{
		PredictionSpec: spec,
		Timestamp:      now,
	})
	t.prune(now)
}

// prune drops predictions and results at or beyond the retention window.
func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-t.retention)

	kept := t.predictions[:0]
	for _, p := range t.predictions {
		if p.Timestamp.After(cutoff) {
			kept = append(kept, p)
		}
	}
	clear(t.predictions[len(kept):])
	t.predictions = kept

	results := t.results[:0]
	for _, r := range t.results {
		if r.EvaluatedAt.After(cutoff) {
			results = append(results, r)
		}
	}
	t.results = results
}

// EvaluatePredictions scores every pending prediction whose target candle is present in candles.
// It returns only the results resolved by this call.
func (t *Tracker) EvaluatePredictions(candles []model.Candle) []model.PredictionResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	resolved := make([]model.PredictionResult, 0)
	for _, p := range t.predictions {
		if p.Evaluated {
			continue
		}
		target := p.TargetIndex()
		if p.CandleIndex < 0 || target < p.CandleIndex || target >= len(candles) {
			continue
		}

		change := calculator.PriceChange(candles[p.CandleIndex], candles[target])
		outcome := calculator.ClassifyChange(change, t.threshold)
		success := p.Type == outcome
		accuracy := 1 - p.Probability
		if success {
			accuracy = p.Probability
		}

		result := model.PredictionResult{
			PredictionID:  p.ID,
			Success:       success,
			ActualOutcome: outcome,
			Accuracy:      accuracy,
			EvaluatedAt:   t.now(),
		}
		t.results = append(t.results, result)
		resolved = append(resolved, result)
		p.Evaluated = true
	}
	return resolved
}

// Shift re-anchors pending predictions after n candles were dropped from the front of the
// sequence. Predictions whose anchor falls off stay pending until pruned.
func (t *Tracker) Shift(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.predictions {
		if !p.Evaluated {
			p.CandleIndex -= n
		}
	}
}

// AccuracyStats aggregates all retained results.
func (t *Tracker) AccuracyStats() model.AccuracyStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := model.AccuracyStats{PatternStats: map[string]model.PatternStat{}}
	if len(t.results) == 0 {
		return stats
	}

	successes := 0
	sum := 0.0
	byID := make(map[string]model.PredictionResult, len(t.results))
	for _, r := range t.results {
		if r.Success {
			successes++
		}
		sum += r.Accuracy
		if _, seen := byID[r.PredictionID]; !seen {
			byID[r.PredictionID] = r
		}
	}
	stats.TotalPredictions = len(t.results)
	stats.SuccessRate = float64(successes) / float64(len(t.results))
	stats.AverageAccuracy = sum / float64(len(t.results))

	accuracySums := map[string]float64{}
	for _, p := range t.predictions {
		r, ok := byID[p.ID]
		if !ok {
			continue
		}
		ps := stats.PatternStats[p.PatternName]
		ps.Total++
		if r.Success {
			ps.Success++
		}
		accuracySums[p.PatternName] += r.Accuracy
		stats.PatternStats[p.PatternName] = ps
	}
	for name, ps := range stats.PatternStats {
		ps.Accuracy = accuracySums[name] / float64(ps.Total)
		stats.PatternStats[name] = ps
	}
	return stats
}

// RecentResults returns up to count results, most recently evaluated first.
func (t *Tracker) RecentResults(count int) []model.PredictionResult {
	if count <= 0 {
		count = DefaultRecentCount
	}

	t.mu.Lock()
	out := make([]model.PredictionResult, len(t.results))
	// reversed so that equal timestamps keep newest-appended first after the stable sort
	for i, r := range t.results {
		out[len(t.results)-1-i] = r
	}
	t.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EvaluatedAt.After(out[j].EvaluatedAt)
	})
	if len(out) > count {
		out = out[:count]
	}
	return out
}

// Pending returns a snapshot of unresolved predictions in registration order.
func (t *Tracker) Pending() []model.TrackedPrediction {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.TrackedPrediction, 0)
	for _, p := range t.predictions {
		if !p.Evaluated {
			out = append(out, *p)
		}
	}
	return out
}

// Len reports the number of retained predictions and results.
func (t *Tracker) Len() (predictions, results int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.predictions), len(t.results)
}
