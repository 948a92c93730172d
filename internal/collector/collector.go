package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"PatternSentinel/internal/model"
	"PatternSentinel/internal/pattern"
)

// DefaultMaxHistory caps the merged history kept in memory.
const DefaultMaxHistory = 5000

// Snapshot is the analysed state of the market after one collection.
// Base is the number of candles trimmed from the front of the history so far;
// Candles[i] is candle Base+i of the whole feed.
type Snapshot struct {
	Symbol    string
	Base      int
	Candles   []model.Candle
	Patterns  []model.Pattern
	FetchedAt time.Time
}

// Last returns the index of the newest candle, or -1 for an empty snapshot.
func (s *Snapshot) Last() int { return len(s.Candles) - 1 }

// Collector fetches candles, merges them into an append-only history and detects patterns.
// Indices into the history stay stable across calls so tracked predictions keep their anchor.
type Collector struct {
	Fetcher    Fetcher
	Symbol     string
	Count      int
	MaxHistory int
	Now        func() time.Time

	mu      sync.Mutex
	history []model.Candle
	base    int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, count int) *Collector {
	return &Collector{
		Fetcher:    fetcher,
		Symbol:     symbol,
		Count:      count,
		MaxHistory: DefaultMaxHistory,
		Now:        time.Now,
	}
}

// Collect fetches the latest candles and analyses the merged history.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	fetched, err := c.Fetcher.FetchCandles(ctx, c.Symbol, c.Count)
	if err != nil {
		return nil, fmt.Errorf("fetch candles from %s: %w", c.Fetcher.Name(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	added, updated := c.merge(clean(fetched))
	if len(c.history) == 0 {
		return nil, ErrNoData
	}
	log.Debug().
		Str("symbol", c.Symbol).
		Str("source", c.Fetcher.Name()).
		Int("fetched", len(fetched)).
		Int("added", added).
		Bool("updated_last", updated).
		Int("history", len(c.history)).
		Int("base", c.base).
		Msg("candles merged")

	candles := make([]model.Candle, len(c.history))
	copy(candles, c.history)

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return &Snapshot{
		Symbol:    c.Symbol,
		Base:      c.base,
		Candles:   candles,
		Patterns:  pattern.DetectPatterns(candles),
		FetchedAt: now(),
	}, nil
}

// History returns a copy of the merged history.
func (c *Collector) History() []model.Candle {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Candle, len(c.history))
	copy(out, c.history)
	return out
}

// merge appends candles newer than the history tail and refreshes a still-forming last candle.
// Older candles are ignored. Trimmed candles advance base so callers can re-anchor indices.
func (c *Collector) merge(fetched []model.Candle) (added int, updated bool) {
	sort.SliceStable(fetched, func(i, j int) bool { return fetched[i].Timestamp.Before(fetched[j].Timestamp) })
	for _, candle := range fetched {
		n := len(c.history)
		if n == 0 || candle.Timestamp.After(c.history[n-1].Timestamp) {
			c.history = append(c.history, candle)
			added++
			continue
		}
		if candle.Timestamp.Equal(c.history[n-1].Timestamp) && candle != c.history[n-1] {
			c.history[n-1] = candle
			updated = true
		}
	}
	if c.MaxHistory > 0 && len(c.history) > c.MaxHistory {
		dropped := len(c.history) - c.MaxHistory
		log.Debug().Int("dropped", dropped).Msg("history trimmed")
		c.history = append([]model.Candle(nil), c.history[dropped:]...)
		c.base += dropped
	}
	return added, updated
}

// clean drops candles with non-finite prices.
func clean(candles []model.Candle) []model.Candle {
	out := make([]model.Candle, 0, len(candles))
	for _, c := range candles {
		if !finite(c.Open) || !finite(c.High) || !finite(c.Low) || !finite(c.Close) {
			log.Warn().Time("timestamp", c.Timestamp).Msg("skipping candle with non-finite price")
			continue
		}
		out = append(out, c)
	}
	return out
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
