package model

import (
	"encoding/json"
	"time"
)

// Direction is the bullish/bearish/neutral reading of a pattern, forecast or outcome.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Candle represents a single OHLCV price bar.
// Invariant (caller responsibility): Low <= min(Open, Close) <= max(Open, Close) <= High.
type Candle struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Timestamp time.Time
	Volume    float64 // 0 when the source does not supply volume
}

// candleJSON is the wire shape used by candle sources: timestamp in Unix milliseconds.
type candleJSON struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Timestamp int64   `json:"timestamp"`
	Volume    float64 `json:"volume,omitempty"`
}

// MarshalJSON encodes the candle with its timestamp in Unix milliseconds (0 when unset).
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal(candleJSON{
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Timestamp: unixMilli(c.Timestamp),
		Volume:    c.Volume,
	})
}

// UnmarshalJSON decodes a candle whose timestamp is in Unix milliseconds; 0 leaves it zero.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var raw candleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Candle{
		Open:   raw.Open,
		High:   raw.High,
		Low:    raw.Low,
		Close:  raw.Close,
		Volume: raw.Volume,
	}
	if raw.Timestamp != 0 {
		c.Timestamp = time.UnixMilli(raw.Timestamp)
	}
	return nil
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
