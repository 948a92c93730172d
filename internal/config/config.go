package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	DataSource struct {
		Kind     string `yaml:"kind"` // sample, file or yahoo
		Symbol   string `yaml:"symbol"`
		Path     string `yaml:"path"`
		Interval string `yaml:"interval"`
		Count    int    `yaml:"count"`
		Replay   bool   `yaml:"replay"`
	} `yaml:"data_source"`
	Schedule struct {
		AnalysisCron string `yaml:"analysis_cron"`
		ReportCron   string `yaml:"report_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Tracker struct {
		Retention        time.Duration `yaml:"retention"`
		OutcomeThreshold float64       `yaml:"outcome_threshold"`
	} `yaml:"tracker"`
	Forecast struct {
		PatternHorizon  int `yaml:"pattern_horizon"`
		MomentumHorizon int `yaml:"momentum_horizon"`
		VolumeHorizon   int `yaml:"volume_horizon"`
	} `yaml:"forecast"`
	Database struct {
		Driver      string `yaml:"driver"` // sqlite, postgres or none
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

const (
	SourceSample = "sample"
	SourceFile   = "file"
	SourceYahoo  = "yahoo"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"SYMBOL":             &c.DataSource.Symbol,
		"SOURCE_KIND":        &c.DataSource.Kind,
		"SOURCE_PATH":        &c.DataSource.Path,
		"SOURCE_INTERVAL":    &c.DataSource.Interval,
		"HTTPS_PROXY":        &c.Proxy,
		"CRON_ANALYSIS":      &c.Schedule.AnalysisCron,
		"CRON_REPORT":        &c.Schedule.ReportCron,
		"DB_DRIVER":          &c.Database.Driver,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"POSTGRES_DSN":       &c.Database.PostgresDSN,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		c.Schedule.RunOnStart = b
	}
	if v := os.Getenv("SOURCE_REPLAY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SOURCE_REPLAY: %w", err)
		}
		c.DataSource.Replay = b
	}
	if v := os.Getenv("OUTCOME_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OUTCOME_THRESHOLD: %w", err)
		}
		c.Tracker.OutcomeThreshold = f
	}
	if v := os.Getenv("TRACKER_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TRACKER_RETENTION: %w", err)
		}
		c.Tracker.Retention = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Kind == "" {
		c.DataSource.Kind = SourceSample
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "EUR/USD"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = "1h"
	}
	if c.DataSource.Count == 0 {
		c.DataSource.Count = 100
	}
	if c.Schedule.AnalysisCron == "" {
		c.Schedule.AnalysisCron = "@every 30s"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 */5 * * * *"
	}
	if c.Tracker.Retention == 0 {
		c.Tracker.Retention = time.Hour
	}
	if c.Tracker.OutcomeThreshold == 0 {
		c.Tracker.OutcomeThreshold = 0.015
	}
	if c.Forecast.PatternHorizon == 0 {
		c.Forecast.PatternHorizon = 3
	}
	if c.Forecast.MomentumHorizon == 0 {
		c.Forecast.MomentumHorizon = 3
	}
	if c.Forecast.VolumeHorizon == 0 {
		c.Forecast.VolumeHorizon = 2
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/pattern_sentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	switch c.DataSource.Kind {
	case SourceSample, SourceYahoo:
	case SourceFile:
		if c.DataSource.Path == "" {
			errs = append(errs, errors.New("data_source.path is required for the file source"))
		}
	default:
		errs = append(errs, fmt.Errorf("data_source.kind %q is not one of sample, file, yahoo", c.DataSource.Kind))
	}
	if c.DataSource.Count < 0 {
		errs = append(errs, errors.New("data_source.count must not be negative"))
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.AnalysisCron); err != nil {
		errs = append(errs, fmt.Errorf("schedule.analysis_cron: %w", err))
	}
	if _, err := parser.Parse(c.Schedule.ReportCron); err != nil {
		errs = append(errs, fmt.Errorf("schedule.report_cron: %w", err))
	}

	if c.Tracker.Retention < 0 {
		errs = append(errs, errors.New("tracker.retention must be positive"))
	}
	if c.Tracker.OutcomeThreshold < 0 || c.Tracker.OutcomeThreshold >= 1 {
		errs = append(errs, errors.New("tracker.outcome_threshold must be in [0, 1)"))
	}
	if c.Forecast.PatternHorizon < 0 || c.Forecast.MomentumHorizon < 0 || c.Forecast.VolumeHorizon < 0 {
		errs = append(errs, errors.New("forecast horizons must be positive"))
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverNone:
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			errs = append(errs, errors.New("database.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of sqlite, postgres, none", c.Database.Driver))
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, errors.New("telegram.bot_token and telegram.chat_id must be set together"))
	}
	return errors.Join(errs...)
}
