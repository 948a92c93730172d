package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"PatternSentinel/internal/collector"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/forecast"
	"PatternSentinel/internal/logging"
	"PatternSentinel/internal/notifier"
	"PatternSentinel/internal/recorder"
	"PatternSentinel/internal/scheduler"
	"PatternSentinel/internal/tracker"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format, "pattern-sentinel")
	log.Info().Str("config", cfgPath).Msg("PatternSentinel starting")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Kind {
	case config.SourceYahoo:
		fetcher = collector.NewYahooFetcher(cfg.DataSource.Interval, cfg.Proxy)
	case config.SourceFile:
		fetcher = collector.NewFileFetcher(cfg.DataSource.Path)
	default:
		fetcher = collector.NewSampleFetcher(time.Now(), cfg.DataSource.Replay)
	}
	log.Info().Str("source", fetcher.Name()).Str("symbol", cfg.DataSource.Symbol).Msg("data source ready")

	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.DataSource.Count)
	tr := tracker.New(
		tracker.WithRetention(cfg.Tracker.Retention),
		tracker.WithOutcomeThreshold(cfg.Tracker.OutcomeThreshold),
	)
	eng := forecast.NewEngine(forecast.Horizons{
		Pattern:  cfg.Forecast.PatternHorizon,
		Momentum: cfg.Forecast.MomentumHorizon,
		Volume:   cfg.Forecast.VolumeHorizon,
	})

	rec := openRecorder(cfg)
	defer rec.Close()

	// Telegram is optional; reports go to the log otherwise.
	var n notifier.Notifier = notifier.LogNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err != nil {
			log.Warn().Err(err).Msg("init telegram notifier failed, reporting to log")
		} else {
			n = tn
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, tr, eng, n, rec)
	if err := sched.RegisterAll(cfg.Schedule.AnalysisCron, cfg.Schedule.ReportCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, executing analysis now")
		sched.RunNowAsync()
	}

	log.Info().Str("analysis", cfg.Schedule.AnalysisCron).Msg("PatternSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
}

func openRecorder(cfg *config.Config) recorder.Recorder {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pr, err := recorder.NewPostgresRecorder(cfg.Database.PostgresDSN)
		if err != nil {
			log.Warn().Err(err).Msg("init postgres recorder failed, using noop")
			return recorder.NewNoopRecorder()
		}
		return pr
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Warn().Err(err).Msg("create sqlite directory")
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			return recorder.NewNoopRecorder()
		}
		return sr
	default:
		return recorder.NewNoopRecorder()
	}
}
