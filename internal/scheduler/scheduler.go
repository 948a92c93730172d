package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"PatternSentinel/internal/collector"
	"PatternSentinel/internal/forecast"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/notifier"
	"PatternSentinel/internal/pattern"
	"PatternSentinel/internal/recorder"
	"PatternSentinel/internal/tracker"
)

// Cycle is the outcome of one analysis pass.
type Cycle struct {
	Snapshot  *collector.Snapshot
	NewCandle bool
	Results   []model.PredictionResult
	Forecasts []model.Forecast
	Stats     model.AccuracyStats
	Skipped   bool
}

// Scheduler manages the analysis and report cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Tracker   *tracker.Tracker
	Engine    *forecast.Engine
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Ctx       context.Context
	Now       func() time.Time

	// NotifyCycles sends a pattern/forecast report whenever a new candle arrives.
	NotifyCycles bool

	running sync.Mutex
	async   sync.WaitGroup

	mu            sync.Mutex
	lastIndex     int // global index (Base + local) of the newest candle seen
	lastBase      int
	last          *collector.Snapshot
	lastForecasts []model.Forecast
	failing       bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, tr *tracker.Tracker, eng *forecast.Engine,
	n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	if n == nil {
		n = notifier.LogNotifier{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Collector:    col,
		Tracker:      tr,
		Engine:       eng,
		Notifier:     n,
		Recorder:     rec,
		Ctx:          ctx,
		Now:          time.Now,
		NotifyCycles: true,
		lastIndex:    -1,
	}
}

// RegisterAll registers the analysis cycle and the periodic stats report.
func (s *Scheduler) RegisterAll(analysisCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	if reportCron != "" {
		if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
			return fmt.Errorf("register report task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running cycles, cron or RunNowAsync, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.async.Wait()
	log.Info().Msg("scheduler stopped")
}

// RunNowAsync runs one cycle in the background; Stop waits for it.
func (s *Scheduler) RunNowAsync() {
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		s.RunNow()
	}()
}

// RunNow executes one analysis cycle immediately (for manual trigger / RUN_ON_START).
// A cycle that starts while another is still running is skipped.
func (s *Scheduler) RunNow() Cycle {
	if !s.running.TryLock() {
		log.Warn().Msg("previous analysis cycle still running, skipping")
		return Cycle{Skipped: true}
	}
	defer s.running.Unlock()

	symbol := s.Collector.Symbol
	snap, err := s.Collector.Collect(s.Ctx)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("collect candles")
		s.mu.Lock()
		first := !s.failing
		s.failing = true
		s.mu.Unlock()
		if first {
			s.trySend(fmt.Sprintf("❌ Data collection failed for %s: %v", symbol, err))
		}
		return Cycle{}
	}

	s.mu.Lock()
	s.failing = false
	global := snap.Base + snap.Last()
	newCandle := global > s.lastIndex
	shift := snap.Base - s.lastBase
	s.lastIndex = global
	s.lastBase = snap.Base
	s.last = snap
	s.mu.Unlock()

	// indices into the history moved down by the trimmed candles
	s.Tracker.Shift(shift)

	cycle := Cycle{Snapshot: snap, NewCandle: newCandle}

	cycle.Results = s.Tracker.EvaluatePredictions(snap.Candles)
	for _, r := range cycle.Results {
		if err := s.Recorder.RecordResult(symbol, r); err != nil {
			log.Error().Err(err).Str("prediction", r.PredictionID).Msg("record result")
		}
	}

	if newCandle {
		s.registerForecasts(&cycle)
		if err := s.Recorder.RecordPatterns(symbol, pattern.EndingAt(snap.Patterns, snap.Last())); err != nil {
			log.Error().Err(err).Msg("record patterns")
		}
	}

	cycle.Stats = s.Tracker.AccuracyStats()
	if len(cycle.Results) > 0 || len(cycle.Forecasts) > 0 {
		if err := s.Recorder.RecordStats(symbol, cycle.Stats); err != nil {
			log.Error().Err(err).Msg("record stats")
		}
	}

	pending, _ := s.Tracker.Len()
	log.Info().
		Str("symbol", symbol).
		Int("candles", len(snap.Candles)).
		Int("patterns", len(snap.Patterns)).
		Bool("new_candle", newCandle).
		Int("evaluated", len(cycle.Results)).
		Int("forecasts", len(cycle.Forecasts)).
		Int("tracked", pending).
		Float64("success_rate", cycle.Stats.SuccessRate).
		Msg("analysis cycle complete")

	s.notifyCycle(cycle)
	return cycle
}

// registerForecasts anchors new forecasts at the newest candle.
func (s *Scheduler) registerForecasts(cycle *Cycle) {
	snap := cycle.Snapshot
	cycle.Forecasts = s.Engine.Forecast(snap.Candles, snap.Patterns)
	now := s.Now()
	for _, fc := range cycle.Forecasts {
		spec := fc.Spec(snap.Last())
		s.Tracker.AddPrediction(spec)
		if err := s.Recorder.RecordPrediction(snap.Symbol, model.TrackedPrediction{PredictionSpec: spec, Timestamp: now}); err != nil {
			log.Error().Err(err).Str("prediction", fc.ID).Msg("record prediction")
		}
	}
	s.mu.Lock()
	s.lastForecasts = cycle.Forecasts
	s.mu.Unlock()
}

func (s *Scheduler) notifyCycle(cycle Cycle) {
	if !s.NotifyCycles {
		return
	}
	var parts []string
	if cycle.NewCandle {
		snap := cycle.Snapshot
		parts = append(parts,
			notifier.FormatPatterns(snap.Symbol, snap.Candles, pattern.EndingAt(snap.Patterns, snap.Last())),
			notifier.FormatForecasts(cycle.Forecasts))
	}
	if len(cycle.Results) > 0 {
		parts = append(parts, notifier.FormatResults(cycle.Results))
	}
	if len(parts) > 0 {
		s.trySend(strings.Join(parts, "\n"))
	}
}

func (s *Scheduler) reportTask() {
	log.Info().Msg("running stats report")
	s.trySend(s.statsReport())
}

func (s *Scheduler) statsReport() string {
	return notifier.FormatStats(s.Tracker.AccuracyStats()) + "\n" +
		notifier.FormatResults(s.Tracker.RecentResults(5))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch strings.ToLower(strings.TrimPrefix(command, "/")) {
	case "analyze":
		if c := s.RunNow(); c.Skipped {
			return "An analysis cycle is already running."
		}
		return ""
	case "stats":
		return s.statsReport()
	case "recent":
		return notifier.FormatResults(s.Tracker.RecentResults(tracker.DefaultRecentCount))
	case "patterns":
		s.mu.Lock()
		snap := s.last
		s.mu.Unlock()
		if snap == nil {
			return "No analysis has run yet."
		}
		return notifier.FormatPatterns(snap.Symbol, snap.Candles, pattern.Latest(snap.Patterns, 10))
	case "forecasts":
		s.mu.Lock()
		fcs := s.lastForecasts
		s.mu.Unlock()
		return notifier.FormatForecasts(fcs)
	default:
		return "Available commands:\n• /analyze\n• /stats\n• /recent\n• /patterns\n• /forecasts"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
