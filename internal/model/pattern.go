package model

// PatternName is one of the fixed candlestick formation names.
type PatternName string

const (
	PatternDoji         PatternName = "doji"
	PatternHammer       PatternName = "hammer"
	PatternShootingStar PatternName = "shooting_star"
	PatternEngulfing    PatternName = "engulfing"
	PatternHarami       PatternName = "harami"
	PatternMorningStar  PatternName = "morning_star"
	PatternEveningStar  PatternName = "evening_star"
)

// Pattern is one detected formation within a candle sequence.
type Pattern struct {
	Name        PatternName `json:"name"`
	Type        Direction   `json:"type"`
	Confidence  float64     `json:"confidence"` // 0.0 ~ 1.0
	CandleIndex int         `json:"candle_index"`
	StartIndex  *int        `json:"start_index,omitempty"` // multi-candle formations only
	EndIndex    *int        `json:"end_index,omitempty"`
	Signal      string      `json:"signal,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Span returns the candle range covered by the pattern.
func (p Pattern) Span() (start, end int) {
	start, end = p.CandleIndex, p.CandleIndex
	if p.StartIndex != nil {
		start = *p.StartIndex
	}
	if p.EndIndex != nil {
		end = *p.EndIndex
	}
	return start, end
}

// IsMultiCandle reports whether the pattern spans more than one candle.
func (p Pattern) IsMultiCandle() bool {
	start, end := p.Span()
	return end > start
}
