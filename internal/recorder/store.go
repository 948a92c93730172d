package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"PatternSentinel/internal/model"
)

// store implements Recorder over database/sql for both drivers.
// Queries are written with ? placeholders; rebind converts them for the driver.
type store struct {
	db     *sql.DB
	mu     sync.Mutex
	now    func() time.Time
	dollar bool
}

func (s *store) rebind(q string) string {
	if !s.dollar {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *store) exec(stmts []string) error {
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			head := q
			if len(head) > 40 {
				head = head[:40]
			}
			return fmt.Errorf("exec %q: %w", head, err)
		}
	}
	return nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func (s *store) RecordPatterns(symbol string, patterns []model.Pattern) error {
	if len(patterns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.rebind(`INSERT INTO patterns
		(recorded_at, symbol, name, type, confidence, candle_index, start_index, end_index, signal, description)
		VALUES (?,?,?,?,?,?,?,?,?,?)`))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := s.now().UnixMilli()
	for _, p := range patterns {
		if _, err := stmt.Exec(now, symbol, string(p.Name), string(p.Type), p.Confidence,
			p.CandleIndex, nullInt(p.StartIndex), nullInt(p.EndIndex), p.Signal, p.Description); err != nil {
			return fmt.Errorf("insert pattern %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

func (s *store) RecordPrediction(symbol string, p model.TrackedPrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(s.rebind(`INSERT INTO predictions
		(id, symbol, pattern_name, type, probability, horizon, candle_index, created_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO NOTHING`),
		p.ID, symbol, p.PatternName, string(p.Type), p.Probability,
		p.Horizon, p.CandleIndex, p.Timestamp.UnixMilli(),
	)
	return err
}

func (s *store) RecordResult(symbol string, r model.PredictionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(s.rebind(`INSERT INTO prediction_results
		(prediction_id, symbol, success, actual_outcome, accuracy, evaluated_at)
		VALUES (?,?,?,?,?,?)`),
		r.PredictionID, symbol, r.Success, string(r.ActualOutcome), r.Accuracy, r.EvaluatedAt.UnixMilli(),
	)
	return err
}

func (s *store) RecordStats(symbol string, stats model.AccuracyStats) error {
	perPattern, err := json.Marshal(stats.PatternStats)
	if err != nil {
		return fmt.Errorf("encode pattern stats: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(s.rebind(`INSERT INTO accuracy_snapshots
		(recorded_at, symbol, total_predictions, success_rate, average_accuracy, pattern_stats)
		VALUES (?,?,?,?,?,?)`),
		s.now().UnixMilli(), symbol, stats.TotalPredictions, stats.SuccessRate,
		stats.AverageAccuracy, string(perPattern),
	)
	return err
}

func (s *store) Close() error {
	return s.db.Close()
}
