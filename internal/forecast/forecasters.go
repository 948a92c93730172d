package forecast

import (
	"fmt"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/pattern"
)

const (
	MomentumName = "market_momentum"
	VolumeName   = "volume_analysis"

	momentumWindow = 5
	volumeWindow   = 3
	volumeSpike    = 1.5
)

// PatternForecaster projects continuation of the most recent detected pattern.
type PatternForecaster struct {
	Horizon int
}

func (PatternForecaster) Name() string { return "pattern" }

// Forecast uses the last of the three most recent patterns.
// Probability: 0.75 + 0.2*confidence. Confidence: 0.9*pattern confidence.
func (f PatternForecaster) Forecast(_ []model.Candle, patterns []model.Pattern) (model.Forecast, bool) {
	recent := pattern.Latest(patterns, 3)
	if len(recent) == 0 {
		return model.Forecast{}, false
	}
	last := recent[len(recent)-1]
	return model.Forecast{
		PatternName: string(last.Name),
		Type:        last.Type,
		Probability: 0.75 + 0.2*last.Confidence,
		Horizon:     f.Horizon,
		Confidence:  last.Confidence * 0.9,
		Reasoning:   fmt.Sprintf("continuation of %s detected at candle %d", last.Name, last.CandleIndex),
	}, true
}

// MomentumForecaster counts bullish vs bearish candles over the last five.
type MomentumForecaster struct {
	Horizon int
}

func (MomentumForecaster) Name() string { return MomentumName }

func (f MomentumForecaster) Forecast(candles []model.Candle, _ []model.Pattern) (model.Forecast, bool) {
	fc := model.Forecast{
		PatternName: MomentumName,
		Type:        model.Neutral,
		Probability: 0.5,
		Horizon:     f.Horizon,
		Confidence:  0.65,
	}
	if len(candles) < momentumWindow {
		fc.Reasoning = "not enough candles for momentum"
		return fc, true
	}

	bullish, bearish := 0, 0
	for _, c := range candles[len(candles)-momentumWindow:] {
		switch {
		case calculator.IsBullish(c):
			bullish++
		case calculator.IsBearish(c):
			bearish++
		}
	}

	switch {
	case bullish > bearish:
		fc.Type = model.Bullish
		fc.Probability = 0.6 + float64(bullish)/momentumWindow*0.3
		fc.Reasoning = fmt.Sprintf("%d of %d recent candles are bullish", bullish, momentumWindow)
	case bearish > bullish:
		fc.Type = model.Bearish
		fc.Probability = 0.6 + float64(bearish)/momentumWindow*0.3
		fc.Reasoning = fmt.Sprintf("%d of %d recent candles are bearish", bearish, momentumWindow)
	default:
		fc.Reasoning = "bullish and bearish candles balanced"
	}
	return fc, true
}

// VolumeForecaster follows the last candle when its volume spikes above the short average.
type VolumeForecaster struct {
	Horizon int
}

func (VolumeForecaster) Name() string { return VolumeName }

func (f VolumeForecaster) Forecast(candles []model.Candle, _ []model.Pattern) (model.Forecast, bool) {
	fc := model.Forecast{
		PatternName: VolumeName,
		Type:        model.Neutral,
		Probability: 0.5,
		Horizon:     f.Horizon,
		Confidence:  0.55,
		Reasoning:   "not enough volume data",
	}
	avg, err := calculator.CalculateSMA(calculator.Volumes(candles), volumeWindow)
	if err != nil || !(avg > 0) {
		return fc, true
	}

	last := candles[len(candles)-1]
	ratio := last.Volume / avg
	if ratio > volumeSpike {
		fc.Type = model.Bearish
		if calculator.IsBullish(last) {
			fc.Type = model.Bullish
		}
		fc.Probability = 0.7
		fc.Reasoning = fmt.Sprintf("volume %.0f%% of average confirms direction", ratio*100)
		return fc, true
	}
	fc.Probability = 0.45
	fc.Reasoning = "normal volume, no confirmation"
	return fc, true
}
