package recorder

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit history to a SQLite database.
type SQLiteRecorder struct {
	store
	path string
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection; inserts are serialized by the store mutex.
	db.SetMaxOpenConns(1)

	// WAL mode so dashboards can read while the sentinel writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{store: store{db: db, now: time.Now}, path: dbPath}
	if err := r.exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS patterns (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at  INTEGER NOT NULL,
		symbol       TEXT NOT NULL,
		name         TEXT NOT NULL,
		type         TEXT NOT NULL,
		confidence   REAL,
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
		probability  REAL,
		horizon      INTEGER,
		candle_index INTEGER,
		created_at   INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_ts ON predictions(created_at)`,

	`CREATE TABLE IF NOT EXISTS prediction_results (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		prediction_id  TEXT NOT NULL,
		symbol         TEXT NOT NULL,
		success        INTEGER NOT NULL,
		actual_outcome TEXT NOT NULL,
		accuracy       REAL,
		evaluated_at   INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_prediction ON prediction_results(prediction_id)`,

	`CREATE TABLE IF NOT EXISTS accuracy_snapshots (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at       INTEGER NOT NULL,
		symbol            TEXT NOT NULL,
		total_predictions INTEGER,
		success_rate      REAL,
		average_accuracy  REAL,
		pattern_stats     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON accuracy_snapshots(recorded_at)`,
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Str("path", r.path).Msg("closing sqlite recorder")
	return r.store.Close()
}
