package calculator

import (
	"math"

	"PatternSentinel/internal/model"
)

// Body is the absolute open/close distance.
func Body(c model.Candle) float64 {
	return math.Abs(c.Close - c.Open)
}

// Range is the high/low distance.
func Range(c model.Candle) float64 {
	return c.High - c.Low
}

// UpperShadow is the wick above the body.
func UpperShadow(c model.Candle) float64 {
	return c.High - math.Max(c.Open, c.Close)
}

// LowerShadow is the wick below the body.
func LowerShadow(c model.Candle) float64 {
	return math.Min(c.Open, c.Close) - c.Low
}

// BodyTop and BodyBottom bound the real body.
func BodyTop(c model.Candle) float64    { return math.Max(c.Open, c.Close) }
func BodyBottom(c model.Candle) float64 { return math.Min(c.Open, c.Close) }

// IsBullish reports close > open. A flat candle is neither bullish nor bearish.
func IsBullish(c model.Candle) bool { return c.Close > c.Open }

// IsBearish reports close < open.
func IsBearish(c model.Candle) bool { return c.Close < c.Open }
