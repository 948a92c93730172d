package calculator

import "PatternSentinel/internal/model"

// PriceChange returns the relative close-to-close change from start to end.
// A non-positive starting close yields 0 rather than Inf/NaN.
func PriceChange(start, end model.Candle) float64 {
	if start.Close <= 0 {
		return 0
	}
	return (end.Close - start.Close) / start.Close
}

// ClassifyChange maps a relative change onto a direction using a symmetric threshold.
func ClassifyChange(change, threshold float64) model.Direction {
	switch {
	case change > threshold:
		return model.Bullish
	case change < -threshold:
		return model.Bearish
	default:
		return model.Neutral
	}
}
