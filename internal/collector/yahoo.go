package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"PatternSentinel/internal/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
type YahooFetcher struct {
	BaseURL   string
	Interval  string // Yahoo interval, e.g. "1h", "15m", "1d"
	Client    *http.Client
	Limiter   *rate.Limiter
	MaxRetry  time.Duration
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(interval, proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if interval == "" {
		interval = "1h"
	}
	return &YahooFetcher{
		BaseURL:  defaultYahooBaseURL,
		Interval: interval,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Limiter:  rate.NewLimiter(rate.Every(time.Second), 2),
		MaxRetry: 30 * time.Second,
		SymbolMap: map[string]string{
			"SPX500":   "^GSPC",
			"SPX":      "^GSPC",
			"EUR/USD":  "EURUSD=X",
			"GBP/USD":  "GBPUSD=X",
			"USD/JPY":  "JPY=X",
			"AUD/USD":  "AUDUSD=X",
			"USD/CAD":  "CAD=X",
			"USD/CHF":  "CHF=X",
			"NZD/USD":  "NZDUSD=X",
			"EUR/GBP":  "EURGBP=X",
			"EUR/JPY":  "EURJPY=X",
			"GBP/JPY":  "GBPJPY=X",
			"Gold":     "GC=F",
			"Silver":   "SI=F",
			"Oil":      "CL=F",
			"Bitcoin":  "BTC-USD",
			"Ethereum": "ETH-USD",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// rangeFor picks the smallest Yahoo range that covers count bars of the interval.
func rangeFor(interval string, count int) string {
	switch interval {
	case "1m":
		return "1d"
	case "2m", "5m", "15m", "30m":
		if count <= 100 {
			return "1d"
		}
		return "5d"
	case "1d":
		switch {
		case count <= 30:
			return "1mo"
		case count <= 90:
			return "3mo"
		case count <= 180:
			return "6mo"
		default:
			return "1y"
		}
	default:
		if count <= 24 {
			return "5d"
		}
		return "1mo"
	}
}

// FetchCandles fetches the latest count candles.
func (f *YahooFetcher) FetchCandles(ctx context.Context, symbol string, count int) ([]model.Candle, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), f.Interval, rangeFor(f.Interval, count))

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoData
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	candles := make([]model.Candle, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, ok1 := at(quote.Open, i)
		h, ok2 := at(quote.High, i)
		l, ok3 := at(quote.Low, i)
		c, ok4 := at(quote.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue // null bars (market closed)
		}
		v, _ := at(quote.Volume, i)
		candles = append(candles, model.Candle{
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Timestamp: time.Unix(ts, 0),
			Volume:    v,
		})
	}
	if len(candles) == 0 {
		return nil, ErrNoData
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	if count > 0 && len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

// get performs a rate limited GET, retrying transport errors and 5xx/429 responses.
func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := f.Client.Do(req)
		if err != nil {
			return fmt.Errorf("yahoo fetch: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("yahoo read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(b, 200))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		body = b
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = f.MaxRetry
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("yahoo request failed")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(strategy, ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
