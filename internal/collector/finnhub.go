package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"TradeSentinel/internal/model"
)

// DefaultFinnhubURL is the Finnhub REST base URL.
const DefaultFinnhubURL = "https://finnhub.io/api/v1"

// FinnhubOptions configures a FinnhubSource.
type FinnhubOptions struct {
	BaseURL    string
	APIKey     string
	Proxy      string
	Resolution string        // candle resolution: 1, 5, 15, 30, 60, D, W, M
	Lookback   time.Duration // window ending now, used when From/To are zero
	From, To   time.Time     // fixed window
	Timeout    time.Duration
	Retries    int
}

// FinnhubSource implements Source using the Finnhub stock candle endpoint.
type FinnhubSource struct {
	client     *resty.Client
	apiKey     string
	resolution string
	lookback   time.Duration
	from, to   time.Time
	now        func() time.Time
}

// NewFinnhubSource creates a Finnhub source with optional proxy support.
func NewFinnhubSource(opts FinnhubOptions) *FinnhubSource {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultFinnhubURL
	}
	if opts.Resolution == "" {
		opts.Resolution = "D"
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 120 * 24 * time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Accept", "application/json")
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}
	if opts.Retries > 0 {
		client.SetRetryCount(opts.Retries)
		client.SetRetryWaitTime(500 * time.Millisecond)
	}

	return &FinnhubSource{
		client:     client,
		apiKey:     opts.APIKey,
		resolution: opts.Resolution,
		lookback:   opts.Lookback,
		from:       opts.From,
		to:         opts.To,
		now:        time.Now,
	}
}

func (f *FinnhubSource) Name() string { return "finnhub" }

// finnhubCandles is the column-oriented /stock/candle response.
type finnhubCandles struct {
	C     []float64 `json:"c"`
	H     []float64 `json:"h"`
	L     []float64 `json:"l"`
	O     []float64 `json:"o"`
	T     []int64   `json:"t"`
	V     []float64 `json:"v"`
	S     string    `json:"s"`
	Error string    `json:"error"`
}

func (f *FinnhubSource) window() (from, to time.Time) {
	if !f.from.IsZero() && !f.to.IsZero() {
		return f.from, f.to
	}
	to = f.now()
	return to.Add(-f.lookback), to
}

// FetchSeries fetches the configured candle window for symbol.
func (f *FinnhubSource) FetchSeries(ctx context.Context, symbol string) (model.PriceSeries, error) {
	empty := model.PriceSeries{Symbol: symbol}
	from, to := f.window()

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     symbol,
			"resolution": f.resolution,
			"from":       strconv.FormatInt(from.Unix(), 10),
			"to":         strconv.FormatInt(to.Unix(), 10),
			"token":      f.apiKey,
		}).
		Get("/stock/candle")
	if err != nil {
		return empty, fmt.Errorf("finnhub fetch %s: %w", symbol, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return empty, fmt.Errorf("%w: finnhub status %d for %s: %s", ErrNoData, resp.StatusCode(), symbol, resp.String())
	}

	var payload finnhubCandles
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return empty, fmt.Errorf("%w: finnhub decode %s: %v", ErrMalformed, symbol, err)
	}
	if payload.Error != "" {
		return empty, fmt.Errorf("%w: finnhub error for %s: %s", ErrNoData, symbol, payload.Error)
	}

	series, err := Columns{
		Status:     payload.S,
		Timestamps: payload.T,
		Opens:      payload.O,
		Highs:      payload.H,
		Lows:       payload.L,
		Closes:     payload.C,
		Volumes:    payload.V,
	}.Series(symbol)
	if err != nil {
		return series, err
	}
	series.FetchedAt = f.now()
	return series, nil
}
