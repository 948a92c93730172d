package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"PatternSentinel/internal/model"
	"PatternSentinel/internal/pattern"
)

// MarketSentiment returns the majority direction of the detected patterns.
func MarketSentiment(patterns []model.Pattern) model.Direction {
	counts := pattern.CountByType(patterns)
	switch {
	case counts[model.Bullish] > counts[model.Bearish]:
		return model.Bullish
	case counts[model.Bearish] > counts[model.Bullish]:
		return model.Bearish
	default:
		return model.Neutral
	}
}

// PriceMove is the change from the previous to the last close.
type PriceMove struct {
	Last    float64
	Change  float64
	Percent float64
}

// LastMove returns the last close-to-close move; ok is false with fewer than two candles.
func LastMove(candles []model.Candle) (PriceMove, bool) {
	if len(candles) < 2 {
		return PriceMove{}, false
	}
	prev, last := candles[len(candles)-2], candles[len(candles)-1]
	m := PriceMove{Last: last.Close, Change: last.Close - prev.Close}
	if prev.Close != 0 {
		m.Percent = m.Change / prev.Close * 100
	}
	return m, true
}

// Insight summarises how well the forecasts are doing.
func Insight(stats model.AccuracyStats) string {
	switch {
	case stats.SuccessRate > 0.7:
		return fmt.Sprintf("Excellent performance: %.0f%% of forecasts succeed.", stats.SuccessRate*100)
	case stats.SuccessRate > 0.5:
		return fmt.Sprintf("Learning: %.0f%% success, improving with more samples.", stats.SuccessRate*100)
	case stats.TotalPredictions > 5:
		return "Readjusting: recent forecasts are underperforming."
	default:
		return ""
	}
}

func arrow(d model.Direction) string {
	switch d {
	case model.Bullish:
		return "🟢"
	case model.Bearish:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatPatterns formats the detected patterns and the market read.
func FormatPatterns(symbol string, candles []model.Candle, patterns []model.Pattern) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕯 <b>%s patterns</b> | %s\n\n", html.EscapeString(symbol), time.Now().Format("2006-01-02 15:04")))

	if m, ok := LastMove(candles); ok {
		b.WriteString(fmt.Sprintf("Price: %.4f (%+.4f, %+.2f%%)\n", m.Last, m.Change, m.Percent))
	}
	b.WriteString(fmt.Sprintf("Sentiment: %s %s\n\n", arrow(MarketSentiment(patterns)), MarketSentiment(patterns)))

	if len(patterns) == 0 {
		b.WriteString("No patterns detected.\n")
		return b.String()
	}
	for _, p := range patterns {
		b.WriteString(fmt.Sprintf("%s %s @%d (%.0f%%)", arrow(p.Type), p.Name, p.CandleIndex, p.Confidence*100))
		if p.Signal != "" {
			b.WriteString(" - " + html.EscapeString(p.Signal))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatForecasts formats newly registered forecasts.
func FormatForecasts(forecasts []model.Forecast) string {
	var b strings.Builder
	b.WriteString("🔮 <b>Forecasts</b>\n")
	if len(forecasts) == 0 {
		b.WriteString("  none\n")
		return b.String()
	}
	for _, f := range forecasts {
		b.WriteString(fmt.Sprintf("  %s %s %s: %.0f%% in %d candles (confidence %.0f%%)\n",
			arrow(f.Type), f.PatternName, f.Type, f.Probability*100, f.Horizon, f.Confidence*100))
		if f.Reasoning != "" {
			b.WriteString("     " + html.EscapeString(f.Reasoning) + "\n")
		}
	}
	return b.String()
}

// FormatResults formats evaluated predictions, newest first.
func FormatResults(results []model.PredictionResult) string {
	var b strings.Builder
	b.WriteString("📋 <b>Recent results</b>\n")
	if len(results) == 0 {
		b.WriteString("  no evaluated predictions yet\n")
		return b.String()
	}
	for _, r := range results {
		mark := "❌"
		if r.Success {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("  %s %s → %s (accuracy %.0f%%) %s\n",
			mark, shortID(r.PredictionID), r.ActualOutcome, r.Accuracy*100, r.EvaluatedAt.Format("15:04:05")))
	}
	return b.String()
}

// FormatStats formats the accuracy statistics with a per-pattern breakdown.
func FormatStats(stats model.AccuracyStats) string {
	var b strings.Builder
	b.WriteString("📈 <b>Accuracy</b>\n\n")
	b.WriteString(fmt.Sprintf("Evaluated: %d\n", stats.TotalPredictions))
	b.WriteString(fmt.Sprintf("Success rate: %.1f%%\n", stats.SuccessRate*100))
	b.WriteString(fmt.Sprintf("Average accuracy: %.1f%%\n", stats.AverageAccuracy*100))

	if len(stats.PatternStats) > 0 {
		names := make([]string, 0, len(stats.PatternStats))
		for name := range stats.PatternStats {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\nBy pattern:\n")
		for _, name := range names {
			s := stats.PatternStats[name]
			b.WriteString(fmt.Sprintf("  %s: %d/%d (avg %.0f%%)\n", name, s.Success, s.Total, s.Accuracy*100))
		}
	}
	if insight := Insight(stats); insight != "" {
		b.WriteString("\n💡 " + insight + "\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
