package collector

import (
	"context"
	"sync"
	"time"

	"PatternSentinel/internal/model"
)

// sampleBars is a hand-built sequence containing known formations:
// a doji, hammer, shooting star, bearish engulfing, morning star and evening star.
var sampleBars = [][4]float64{
	{105, 106, 98, 99},
	{99, 100, 95, 96},
	{96, 97, 92, 93},

	{93, 95, 91, 93.2},
	{92, 93, 88, 92.5},

	{92.5, 96, 92, 95},
	{95, 98, 94, 97},
	{97, 101, 96, 100},

	{100, 105, 99, 100.5},
	{100, 102, 99, 101},
	{102, 103, 96, 97},

	{97, 98, 92, 93},
	{93, 94, 92, 93.5},
	{94, 99, 93, 98},

	{98, 102, 97, 101},
	{101, 104, 100, 103},
	{103, 106, 102, 104},

	{104, 107, 103, 106},
	{106, 107, 105, 106.2},
	{106, 107, 101, 102},

	{102, 103, 98, 99},
	{99, 100, 95, 96},
}

// SampleCandles returns the sample sequence, one hour apart, ending one hour before end.
// Volumes are deterministic in [5000, 15000).
func SampleCandles(end time.Time) []model.Candle {
	n := len(sampleBars)
	out := make([]model.Candle, n)
	for i, b := range sampleBars {
		out[i] = model.Candle{
			Open:      b[0],
			High:      b[1],
			Low:       b[2],
			Close:     b[3],
			Timestamp: end.Add(-time.Duration(n-i) * time.Hour),
			Volume:    float64(5000 + (i*3779)%10000),
		}
	}
	return out
}

// SampleFetcher serves the sample sequence.
// In replay mode the first call reveals ReplayStart candles and every later call one more,
// so predictions registered on early snapshots can resolve.
type SampleFetcher struct {
	Replay      bool
	ReplayStart int

	mu       sync.Mutex
	candles  []model.Candle
	revealed int
}

// NewSampleFetcher anchors the sample timestamps at now.
func NewSampleFetcher(now time.Time, replay bool) *SampleFetcher {
	return &SampleFetcher{
		Replay:      replay,
		ReplayStart: 10,
		candles:     SampleCandles(now),
	}
}

func (f *SampleFetcher) Name() string { return "sample" }

func (f *SampleFetcher) FetchCandles(ctx context.Context, _ string, count int) ([]model.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.candles == nil {
		f.candles = SampleCandles(time.Now())
	}
	visible := len(f.candles)
	if f.Replay {
		if f.revealed == 0 {
			f.revealed = f.ReplayStart
		} else if f.revealed < len(f.candles) {
			f.revealed++
		}
		if f.revealed <= 0 || f.revealed > len(f.candles) {
			f.revealed = len(f.candles)
		}
		visible = f.revealed
	}

	start := 0
	if count > 0 && visible > count {
		start = visible - count
	}
	out := make([]model.Candle, visible-start)
	copy(out, f.candles[start:visible])
	return out, nil
}
