package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/model"
)

func TestMarketSentiment(t *testing.T) {
	bull := model.Pattern{Type: model.Bullish}
	bear := model.Pattern{Type: model.Bearish}
	neutral := model.Pattern{Type: model.Neutral}

	assert.Equal(t, model.Bullish, MarketSentiment([]model.Pattern{bull, bull, bear}))
	assert.Equal(t, model.Bearish, MarketSentiment([]model.Pattern{bear, neutral}))
	assert.Equal(t, model.Neutral, MarketSentiment([]model.Pattern{bull, bear, neutral}))
	assert.Equal(t, model.Neutral, MarketSentiment(nil))
}

func TestLastMove(t *testing.T) {
	_, ok := LastMove([]model.Candle{{Close: 1}})
	assert.False(t, ok)

	m, ok := LastMove([]model.Candle{{Close: 100}, {Close: 102}})
	require.True(t, ok)
	assert.Equal(t, 102.0, m.Last)
	assert.InDelta(t, 2.0, m.Change, 1e-9)
	assert.InDelta(t, 2.0, m.Percent, 1e-9)

	m, _ = LastMove([]model.Candle{{Close: 0}, {Close: 1}})
	assert.Equal(t, 0.0, m.Percent)
}

func TestInsight(t *testing.T) {
	assert.Contains(t, Insight(model.AccuracyStats{SuccessRate: 0.8, TotalPredictions: 10}), "Excellent")
	assert.Contains(t, Insight(model.AccuracyStats{SuccessRate: 0.6, TotalPredictions: 10}), "Learning")
	assert.Contains(t, Insight(model.AccuracyStats{SuccessRate: 0.2, TotalPredictions: 6}), "Readjusting")
	assert.Empty(t, Insight(model.AccuracyStats{SuccessRate: 0.5, TotalPredictions: 5}))
}

func TestFormatPatterns(t *testing.T) {
	candles := []model.Candle{{Close: 100}, {Close: 99}}
	patterns := []model.Pattern{
		{Name: model.PatternEngulfing, Type: model.Bearish, Confidence: 0.8, CandleIndex: 1, Signal: "sell <now>"},
	}
	out := FormatPatterns("EUR/USD", candles, patterns)
	assert.Contains(t, out, "EUR/USD")
	assert.Contains(t, out, "engulfing @1 (80%)")
	assert.Contains(t, out, "sell &lt;now&gt;")
	assert.Contains(t, out, "Sentiment: 🔴 bearish")

	assert.Contains(t, FormatPatterns("X", nil, nil), "No patterns detected")
}

func TestFormatForecastsAndResults(t *testing.T) {
	out := FormatForecasts([]model.Forecast{{PatternName: "market_momentum", Type: model.Bullish, Probability: 0.84, Horizon: 3, Confidence: 0.65}})
	assert.Contains(t, out, "market_momentum bullish: 84% in 3 candles")
	assert.Contains(t, FormatForecasts(nil), "none")

	at := time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC)
	out = FormatResults([]model.PredictionResult{
		{PredictionID: "0123456789abcdef", Success: true, ActualOutcome: model.Bullish, Accuracy: 0.9, EvaluatedAt: at},
		{PredictionID: "p2", Success: false, ActualOutcome: model.Neutral, Accuracy: 0.1, EvaluatedAt: at},
	})
	assert.Contains(t, out, "✅ 01234567 → bullish (accuracy 90%)")
	assert.Contains(t, out, "❌ p2 → neutral")
	assert.Contains(t, FormatResults(nil), "no evaluated predictions")
}

func TestFormatStats(t *testing.T) {
	out := FormatStats(model.AccuracyStats{
		TotalPredictions: 4,
		SuccessRate:      0.75,
		AverageAccuracy:  0.7,
		PatternStats: map[string]model.PatternStat{
			"volume_analysis": {Total: 1, Success: 0, Accuracy: 0.3},
			"doji":            {Total: 3, Success: 3, Accuracy: 0.83},
		},
	})
	assert.Contains(t, out, "Evaluated: 4")
	assert.Contains(t, out, "Success rate: 75.0%")
	assert.Less(t, strings.Index(out, "doji"), strings.Index(out, "volume_analysis"), "patterns sorted by name")
	assert.Contains(t, out, "Excellent")
}

type fakeTelegram struct {
	mu   sync.Mutex
	sent []string
	fail int
}

func (f *fakeTelegram) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"sentinel","username":"sentinel_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail > 0 {
			f.fail--
			w.Write([]byte(`{"ok":false,"error_code":500,"description":"try later"}`))
			return
		}
		r.ParseMultipartForm(1 << 20)
		f.sent = append(f.sent, r.FormValue("chat_id")+":"+r.FormValue("text"))
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestNotifier(t *testing.T, fake *fakeTelegram) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	n, err := newTelegramNotifier("token", "42", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	fake := &fakeTelegram{}
	n := newTestNotifier(t, fake)
	assert.Equal(t, "sentinel_bot", n.Bot.Self.UserName)

	require.NoError(t, n.Send(context.Background(), "<b>hello</b>"))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, "42:<b>hello</b>", fake.sent[0])
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	fake := &fakeTelegram{fail: 1}
	n := newTestNotifier(t, fake)
	require.NoError(t, n.SendWithRetry(context.Background(), "hi", 2))
	assert.Len(t, fake.sent, 1)
}

func TestTelegramNotifier_InvalidChatID(t *testing.T) {
	_, err := newTelegramNotifier("token", "not-a-number", "http://127.0.0.1/bot%s/%s", http.DefaultClient)
	assert.Error(t, err)
}

func TestHandleCommand(t *testing.T) {
	fake := &fakeTelegram{}
	n := newTestNotifier(t, fake)
	handler := func(cmd string) string { return "reply to " + cmd }

	n.handle(tgbotapi.Update{Message: &tgbotapi.Message{Text: "/stats", Chat: &tgbotapi.Chat{ID: 42}}}, handler)
	n.handle(tgbotapi.Update{Message: &tgbotapi.Message{Text: "/stats", Chat: &tgbotapi.Chat{ID: 7}}}, handler)
	n.handle(tgbotapi.Update{}, handler)

	require.Len(t, fake.sent, 1)
	assert.Equal(t, "42:reply to stats", fake.sent[0])
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Send(context.Background(), "<b>x</b> &lt;y&gt;"))
	assert.Equal(t, "x &lt;y&gt;", tags.ReplaceAllString("<b>x</b> &lt;y&gt;", ""))
}
