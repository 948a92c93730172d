package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"PatternSentinel/internal/model"
)

// FileFetcher reads a JSON array of candles from disk on every call,
// so an external process can keep appending to the file.
type FileFetcher struct {
	Path string
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{Path: path}
}

func (f *FileFetcher) Name() string { return "file" }

func (f *FileFetcher) FetchCandles(ctx context.Context, _ string, count int) ([]model.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read candles: %w", err)
	}
	var candles []model.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("decode candles %s: %w", f.Path, err)
	}
	if len(candles) == 0 {
		return nil, ErrNoData
	}

	// Files without timestamps get a stable hourly axis so the history merge still works.
	for i := range candles {
		if candles[i].Timestamp.IsZero() {
			candles[i].Timestamp = time.Unix(0, 0).UTC().Add(time.Duration(i) * time.Hour)
		}
	}
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })

	if count > 0 && len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}
