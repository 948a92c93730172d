package forecast

import (
	"fmt"
	"math"
	"testing"

	"PatternSentinel/internal/model"
)

func c(o, cl, vol float64) model.Candle {
	hi := math.Max(o, cl) + 1
	lo := math.Min(o, cl) - 1
	return model.Candle{Open: o, High: hi, Low: lo, Close: cl, Volume: vol}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPatternForecaster_UsesLatestPattern(t *testing.T) {
	patterns := []model.Pattern{
		{Name: model.PatternDoji, Type: model.Neutral, Confidence: 0.5, CandleIndex: 1},
		{Name: model.PatternMorningStar, Type: model.Bullish, Confidence: 0.85, CandleIndex: 4},
	}
	fc, ok := PatternForecaster{Horizon: 3}.Forecast(nil, patterns)
	if !ok {
		t.Fatal("expected a forecast")
	}
	if fc.PatternName != "morning_star" || fc.Type != model.Bullish {
		t.Fatalf("unexpected forecast %+v", fc)
	}
	if !approx(fc.Probability, 0.75+0.2*0.85) {
		t.Errorf("probability = %.4f", fc.Probability)
	}
	if !approx(fc.Confidence, 0.85*0.9) {
		t.Errorf("confidence = %.4f", fc.Confidence)
	}
	if fc.Horizon != 3 {
		t.Errorf("horizon = %d", fc.Horizon)
	}
}

func TestPatternForecaster_NoPatterns(t *testing.T) {
	if _, ok := (PatternForecaster{Horizon: 3}).Forecast(nil, nil); ok {
		t.Error("expected no forecast without patterns")
	}
}

func TestMomentumForecaster(t *testing.T) {
	tests := []struct {
		name     string
		candles  []model.Candle
		wantType model.Direction
		wantProb float64
	}{
		{"insufficient", []model.Candle{c(1, 2, 0), c(2, 3, 0)}, model.Neutral, 0.5},
		{"bullish 4/5", []model.Candle{c(1, 2, 0), c(2, 3, 0), c(3, 4, 0), c(4, 3, 0), c(3, 5, 0)}, model.Bullish, 0.6 + 0.8*0.3},
		{"bearish 5/5", []model.Candle{c(9, 8, 0), c(8, 7, 0), c(7, 6, 0), c(6, 5, 0), c(5, 4, 0)}, model.Bearish, 0.9},
		{"balanced", []model.Candle{c(1, 2, 0), c(2, 1, 0), c(1, 1, 0), c(1, 2, 0), c(2, 1, 0)}, model.Neutral, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, ok := MomentumForecaster{Horizon: 3}.Forecast(tt.candles, nil)
			if !ok {
				t.Fatal("momentum always forecasts")
			}
			if fc.Type != tt.wantType || !approx(fc.Probability, tt.wantProb) {
				t.Errorf("got %s %.4f, want %s %.4f", fc.Type, fc.Probability, tt.wantType, tt.wantProb)
			}
			if fc.Confidence != 0.65 {
				t.Errorf("confidence = %.2f", fc.Confidence)
			}
		})
	}
}

func TestMomentumForecaster_OnlyLastFive(t *testing.T) {
	candles := []model.Candle{c(9, 1, 0), c(9, 1, 0), c(9, 1, 0)}
	for i := 0; i < 5; i++ {
		candles = append(candles, c(1, 2, 0))
	}
	fc, _ := MomentumForecaster{Horizon: 3}.Forecast(candles, nil)
	if fc.Type != model.Bullish || !approx(fc.Probability, 0.9) {
		t.Errorf("got %s %.4f", fc.Type, fc.Probability)
	}
}

func TestVolumeForecaster(t *testing.T) {
	tests := []struct {
		name     string
		candles  []model.Candle
		wantType model.Direction
		wantProb float64
	}{
		{"insufficient", []model.Candle{c(1, 2, 100), c(2, 3, 100)}, model.Neutral, 0.5},
		{"zero volume", []model.Candle{c(1, 2, 0), c(2, 3, 0), c(3, 4, 0)}, model.Neutral, 0.5},
		// avg = (100+100+1000)/3 = 400, ratio 2.5
		{"bullish spike", []model.Candle{c(1, 2, 100), c(2, 3, 100), c(3, 4, 1000)}, model.Bullish, 0.7},
		{"bearish spike", []model.Candle{c(1, 2, 100), c(2, 3, 100), c(4, 3, 1000)}, model.Bearish, 0.7},
		{"normal volume", []model.Candle{c(1, 2, 100), c(2, 3, 110), c(3, 4, 120)}, model.Neutral, 0.45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, ok := VolumeForecaster{Horizon: 2}.Forecast(tt.candles, nil)
			if !ok {
				t.Fatal("volume always forecasts")
			}
			if fc.Type != tt.wantType || !approx(fc.Probability, tt.wantProb) {
				t.Errorf("got %s %.4f, want %s %.4f", fc.Type, fc.Probability, tt.wantType, tt.wantProb)
			}
			if fc.Horizon != 2 {
				t.Errorf("horizon = %d", fc.Horizon)
			}
		})
	}
}

func TestEngine_AssignsUniqueIDs(t *testing.T) {
	e := NewEngine(Horizons{})
	n := 0
	e.NewID = func() string { n++; return fmt.Sprintf("id-%d", n) }

	candles := []model.Candle{c(1, 2, 100), c(2, 3, 100), c(3, 4, 100), c(4, 5, 100), c(5, 6, 100)}
	patterns := []model.Pattern{{Name: model.PatternHammer, Type: model.Bullish, Confidence: 0.7, CandleIndex: 4}}

	got := e.Forecast(candles, patterns)
	if len(got) != 3 {
		t.Fatalf("expected 3 forecasts, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, fc := range got {
		if seen[fc.ID] {
			t.Errorf("duplicate id %s", fc.ID)
		}
		seen[fc.ID] = true
	}
	if got[0].Source != "pattern" || got[1].Source != MomentumName || got[2].Source != VolumeName {
		t.Errorf("unexpected order: %s %s %s", got[0].Source, got[1].Source, got[2].Source)
	}
	if got[2].Horizon != DefaultHorizons.Volume {
		t.Errorf("volume horizon = %d", got[2].Horizon)
	}
}

func TestEngine_EmptyCandles(t *testing.T) {
	if got := NewEngine(DefaultHorizons).Forecast(nil, nil); len(got) != 0 {
		t.Errorf("expected no forecasts, got %d", len(got))
	}
}

func TestEngine_DefaultIDsAreUUIDs(t *testing.T) {
	got := NewEngine(DefaultHorizons).Forecast([]model.Candle{c(1, 2, 1)}, nil)
	if len(got) == 0 {
		t.Fatal("expected forecasts")
	}
	if len(got[0].ID) != 36 {
		t.Errorf("expected uuid, got %q", got[0].ID)
	}
}
