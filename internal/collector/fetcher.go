package collector

import (
	"context"
	"errors"

	"PatternSentinel/internal/model"
)

// ErrNoData is returned when a source yields no usable candles.
var ErrNoData = errors.New("no candle data")

// Fetcher defines the interface for fetching candles, oldest first.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol string, count int) ([]model.Candle, error)
	Name() string
}
