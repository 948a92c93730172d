package recorder

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// PostgresRecorder persists the audit history to PostgreSQL.
type PostgresRecorder struct {
	store
}

// NewPostgresRecorder connects with a lib/pq DSN, checks the connection and creates tables.
func NewPostgresRecorder(dsn string) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{store: store{db: db, now: time.Now, dollar: true}}
	if err := r.exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Msg("postgres recorder connected")
	return r, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS patterns (
		id           BIGSERIAL PRIMARY KEY,
		recorded_at  BIGINT NOT NULL,
		symbol       TEXT NOT NULL,
		name         TEXT NOT NULL,
		type         TEXT NOT NULL,
		confidence   DOUBLE PRECISION,
		candle_index INTEGER,
		start_index  INTEGER,
		end_index    INTEGER,
		signal       TEXT,
		description  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patterns_ts ON patterns(recorded_at)`,

	`CREATE TABLE IF NOT EXISTS predictions (
		id           TEXT PRIMARY KEY,
		symbol       TEXT NOT NULL,
		pattern_name TEXT NOT NULL,
		type         TEXT NOT NULL,
		probability  DOUBLE PRECISION,
		horizon      INTEGER,
		candle_index INTEGER,
		created_at   BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_ts ON predictions(created_at)`,

	`CREATE TABLE IF NOT EXISTS prediction_results (
		id             BIGSERIAL PRIMARY KEY,
		prediction_id  TEXT NOT NULL,
		symbol         TEXT NOT NULL,
		success        BOOLEAN NOT NULL,
		actual_outcome TEXT NOT NULL,
		accuracy       DOUBLE PRECISION,
		evaluated_at   BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_prediction ON prediction_results(prediction_id)`,

	`CREATE TABLE IF NOT EXISTS accuracy_snapshots (
		id                BIGSERIAL PRIMARY KEY,
		recorded_at       BIGINT NOT NULL,
		symbol            TEXT NOT NULL,
		total_predictions INTEGER,
		success_rate      DOUBLE PRECISION,
		average_accuracy  DOUBLE PRECISION,
		pattern_stats     JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON accuracy_snapshots(recorded_at)`,
}
