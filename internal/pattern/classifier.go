// Package pattern detects classic Japanese candlestick formations.
package pattern

import (
	"math"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
)

const (
	dojiBodyRatio       = 0.10
	smallBodyRatio      = 0.30 // hammer / shooting star
	longShadowFactor    = 2.0
	shortShadowFactor   = 0.5
	haramiBodyFactor    = 0.70
	starMiddleFactor    = 0.5
	starThirdFactor     = 0.5
	engulfingConfidence = 0.8
	haramiConfidence    = 0.6
	starConfidence      = 0.9
)

// detector inspects the formation ending at index i and reports at most one pattern.
type detector func(candles []model.Candle, i int) (model.Pattern, bool)

// detectors run in this order for every index.
var detectors = []detector{
	detectDoji,
	detectHammer,
	detectShootingStar,
	detectEngulfing,
	detectHarami,
	detectMorningStar,
	detectEveningStar,
}

// DetectPatterns classifies every candle position independently.
// Output is ordered by candle index, then by detector order. Overlapping formations are
// all reported; nothing is deduplicated.
func DetectPatterns(candles []model.Candle) []model.Pattern {
	patterns := make([]model.Pattern, 0)
	for i := range candles {
		for _, detect := range detectors {
			p, ok := detect(candles, i)
			if !ok {
				continue
			}
			if math.IsNaN(p.Confidence) || math.IsInf(p.Confidence, 0) {
				continue
			}
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func detectDoji(candles []model.Candle, i int) (model.Pattern, bool) {
	c := candles[i]
	rng := calculator.Range(c)
	if !(rng > 0) {
		return model.Pattern{}, false
	}
	ratio := calculator.Body(c) / rng
	if !(ratio < dojiBodyRatio) {
		return model.Pattern{}, false
	}
	return model.Pattern{
		Name:        model.PatternDoji,
		Type:        model.Neutral,
		Confidence:  1 - ratio,
		CandleIndex: i,
		Signal:      "Market indecision - possible reversal",
		Description: "Doji shows balance between buyers and sellers",
	}, true
}

// smallBodied returns body and range for hammer-like checks, rejecting degenerate candles.
func smallBodied(c model.Candle) (body float64, ok bool) {
	rng := calculator.Range(c)
	body = calculator.Body(c)
	if !(rng > 0) || !(body > 0) {
		return 0, false
	}
	return body, body/rng < smallBodyRatio
}

func detectHammer(candles []model.Candle, i int) (model.Pattern, bool) {
	c := candles[i]
	body, ok := smallBodied(c)
	if !ok {
		return model.Pattern{}, false
	}
	lower := calculator.LowerShadow(c)
	upper := calculator.UpperShadow(c)
	if !(lower > body*longShadowFactor && upper < body*shortShadowFactor) {
		return model.Pattern{}, false
	}
	return model.Pattern{
		Name:        model.PatternHammer,
		Type:        model.Bullish,
		Confidence:  math.Min(lower/body/3, 1),
		CandleIndex: i,
		Signal:      "Possible bullish reversal - consider buying",
		Description: "Hammer shows rejection of lower prices",
	}, true
}

func detectShootingStar(candles []model.Candle, i int) (model.Pattern, bool) {
	c := candles[i]
	body, ok := smallBodied(c)
	if !ok {
		return model.Pattern{}, false
	}
	lower := calculator.LowerShadow(c)
	upper := calculator.UpperShadow(c)
	if !(upper > body*longShadowFactor && lower < body*shortShadowFactor) {
		return model.Pattern{}, false
	}
	return model.Pattern{
		Name:        model.PatternShootingStar,
		Type:        model.Bearish,
		Confidence:  math.Min(upper/body/3, 1),
		CandleIndex: i,
		Signal:      "Possible bearish reversal - consider selling",
		Description: "Shooting star shows rejection of higher prices",
	}, true
}

func detectEngulfing(candles []model.Candle, i int) (model.Pattern, bool) {
	if i < 1 {
		return model.Pattern{}, false
	}
	prev, cur := candles[i-1], candles[i]
	prevBullish := calculator.IsBullish(prev)
	curBullish := calculator.IsBullish(cur)

	switch {
	case !prevBullish && curBullish && cur.Open < prev.Close && cur.Close > prev.Open:
		return span(model.Pattern{
			Name:        model.PatternEngulfing,
			Type:        model.Bullish,
			Confidence:  engulfingConfidence,
			Signal:      "Bullish engulfing - strong buy signal",
			Description: "Bullish candle fully engulfs the previous bearish body",
		}, i-1, i), true
	case prevBullish && !curBullish && cur.Open > prev.Close && cur.Close < prev.Open:
		return span(model.Pattern{
			Name:        model.PatternEngulfing,
			Type:        model.Bearish,
			Confidence:  engulfingConfidence,
			Signal:      "Bearish engulfing - strong sell signal",
			Description: "Bearish candle fully engulfs the previous bullish body",
		}, i-1, i), true
	}
	return model.Pattern{}, false
}

func detectHarami(candles []model.Candle, i int) (model.Pattern, bool) {
	if i < 1 {
		return model.Pattern{}, false
	}
	prev, cur := candles[i-1], candles[i]
	inside := calculator.BodyTop(cur) < calculator.BodyTop(prev) &&
		calculator.BodyBottom(cur) > calculator.BodyBottom(prev)
	smaller := calculator.Body(cur) < calculator.Body(prev)*haramiBodyFactor
	if !(inside && smaller) {
		return model.Pattern{}, false
	}

	p := model.Pattern{
		Name:        model.PatternHarami,
		Type:        model.Bullish,
		Confidence:  haramiConfidence,
		Signal:      "Bullish harami - bearish momentum weakening",
		Description: "Small body inside the previous candle's body",
	}
	if calculator.IsBullish(prev) {
		p.Type = model.Bearish
		p.Signal = "Bearish harami - bullish momentum weakening"
	}
	return span(p, i-1, i), true
}

// star checks the three-candle frame ending at i: a first candle bullish when firstBullish
// (bearish otherwise), a small middle body and a third candle in the opposite direction.
func star(candles []model.Candle, i int, firstBullish bool) bool {
	if i < 2 {
		return false
	}
	first, second, third := candles[i-2], candles[i-1], candles[i]
	b1 := calculator.Body(first)

	firstOK := calculator.IsBearish(first)
	thirdOK := calculator.IsBullish(third)
	if firstBullish {
		firstOK = calculator.IsBullish(first)
		thirdOK = calculator.IsBearish(third)
	}
	return firstOK &&
		calculator.Body(second) < b1*starMiddleFactor &&
		thirdOK &&
		calculator.Body(third) > b1*starThirdFactor
}

func detectMorningStar(candles []model.Candle, i int) (model.Pattern, bool) {
	if !star(candles, i, false) {
		return model.Pattern{}, false
	}
	return span(model.Pattern{
		Name:        model.PatternMorningStar,
		Type:        model.Bullish,
		Confidence:  starConfidence,
		Signal:      "Morning star - strong buy signal",
		Description: "Three-candle bullish reversal",
	}, i-2, i), true
}

func detectEveningStar(candles []model.Candle, i int) (model.Pattern, bool) {
	if !star(candles, i, true) {
		return model.Pattern{}, false
	}
	return span(model.Pattern{
		Name:        model.PatternEveningStar,
		Type:        model.Bearish,
		Confidence:  starConfidence,
		Signal:      "Evening star - strong sell signal",
		Description: "Three-candle bearish reversal",
	}, i-2, i), true
}

func span(p model.Pattern, start, end int) model.Pattern {
	p.CandleIndex = end
	p.StartIndex = &start
	p.EndIndex = &end
	return p
}
