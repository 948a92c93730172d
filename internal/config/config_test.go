package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, SourceSample, cfg.DataSource.Kind)
	assert.Equal(t, "EUR/USD", cfg.DataSource.Symbol)
	assert.Equal(t, "@every 30s", cfg.Schedule.AnalysisCron)
	assert.Equal(t, time.Hour, cfg.Tracker.Retention)
	assert.Equal(t, 0.015, cfg.Tracker.OutcomeThreshold)
	assert.Equal(t, 3, cfg.Forecast.PatternHorizon)
	assert.Equal(t, 2, cfg.Forecast.VolumeHorizon)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
data_source:
  kind: yahoo
  symbol: Bitcoin
  interval: 15m
  count: 50
schedule:
  analysis_cron: "0 */1 * * * *"
tracker:
  retention: 30m
  outcome_threshold: 0.01
database:
  driver: none
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceYahoo, cfg.DataSource.Kind)
	assert.Equal(t, "Bitcoin", cfg.DataSource.Symbol)
	assert.Equal(t, "15m", cfg.DataSource.Interval)
	assert.Equal(t, 50, cfg.DataSource.Count)
	assert.Equal(t, 30*time.Minute, cfg.Tracker.Retention)
	assert.Equal(t, 0.01, cfg.Tracker.OutcomeThreshold)
	assert.Equal(t, DriverNone, cfg.Database.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "data_source:\n  symbol: Gold\n")
	t.Setenv("SYMBOL", "Oil")
	t.Setenv("SOURCE_KIND", "file")
	t.Setenv("SOURCE_PATH", "/tmp/candles.json")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/sentinel?sslmode=disable")
	t.Setenv("RUN_ON_START", "true")
	t.Setenv("TRACKER_RETENTION", "2h")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Oil", cfg.DataSource.Symbol)
	assert.Equal(t, SourceFile, cfg.DataSource.Kind)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, 2*time.Hour, cfg.Tracker.Retention)
	assert.True(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadInput(t *testing.T) {
	_, err := Load(writeConfig(t, "data_source: ["))
	assert.Error(t, err)

	t.Setenv("OUTCOME_THRESHOLD", "lots")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "OUTCOME_THRESHOLD")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown source", func(c *Config) { c.DataSource.Kind = "camera" }, "data_source.kind"},
		{"file without path", func(c *Config) { c.DataSource.Kind = SourceFile }, "data_source.path"},
		{"bad cron", func(c *Config) { c.Schedule.AnalysisCron = "every minute" }, "analysis_cron"},
		{"five field cron", func(c *Config) { c.Schedule.ReportCron = "*/5 * * * *" }, "report_cron"},
		{"threshold", func(c *Config) { c.Tracker.OutcomeThreshold = 1.5 }, "outcome_threshold"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, "postgres_dsn"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "token" }, "telegram"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
