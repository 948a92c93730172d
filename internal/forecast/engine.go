// Package forecast turns candles and detected patterns into registrable predictions.
package forecast

import (
	"github.com/google/uuid"

	"PatternSentinel/internal/model"
)

// Forecaster produces at most one forecast per analysis pass.
// Randomised or model-backed forecasters plug in here; the tracker only sees the result.
type Forecaster interface {
	Name() string
	Forecast(candles []model.Candle, patterns []model.Pattern) (model.Forecast, bool)
}

// Engine runs forecasters in order.
type Engine struct {
	Forecasters []Forecaster
	NewID       func() string
}

// Horizons sets the candle horizon of each default forecaster.
type Horizons struct {
	Pattern  int
	Momentum int
	Volume   int
}

// DefaultHorizons are the candle horizons used when none are configured.
var DefaultHorizons = Horizons{Pattern: 3, Momentum: 3, Volume: 2}

// NewEngine creates an engine with the pattern, momentum and volume forecasters.
func NewEngine(h Horizons) *Engine {
	if h.Pattern <= 0 {
		h.Pattern = DefaultHorizons.Pattern
	}
	if h.Momentum <= 0 {
		h.Momentum = DefaultHorizons.Momentum
	}
	if h.Volume <= 0 {
		h.Volume = DefaultHorizons.Volume
	}
	return &Engine{
		Forecasters: []Forecaster{
			PatternForecaster{Horizon: h.Pattern},
			MomentumForecaster{Horizon: h.Momentum},
			VolumeForecaster{Horizon: h.Volume},
		},
		NewID: uuid.NewString,
	}
}

// Forecast runs every forecaster and assigns fresh ids.
func (e *Engine) Forecast(candles []model.Candle, patterns []model.Pattern) []model.Forecast {
	out := make([]model.Forecast, 0, len(e.Forecasters))
	if len(candles) == 0 {
		return out
	}
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	for _, f := range e.Forecasters {
		fc, ok := f.Forecast(candles, patterns)
		if !ok {
			continue
		}
		fc.ID = newID()
		fc.Source = f.Name()
		out = append(out, fc)
	}
	return out
}
