package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"TradeSentinel/internal/model"
)

// DefaultYahooURL is the Yahoo Finance chart API host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooOptions configures a YahooSource.
type YahooOptions struct {
	BaseURL  string
	Proxy    string
	Interval string // e.g. 1m, 5m, 1d
	Range    string // e.g. 1d, 5d, 6mo
	Timeout  time.Duration
	Retries  int
}

// YahooSource implements Source using the Yahoo Finance public chart API.
type YahooSource struct {
	client    *resty.Client
	interval  string
	rng       string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	now       func() time.Time
}

// NewYahooSource creates a new Yahoo Finance source.
func NewYahooSource(opts YahooOptions) *YahooSource {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooURL
	}
	if opts.Interval == "" {
		opts.Interval = "1d"
	}
	if opts.Range == "" {
		opts.Range = "6mo"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}
	if opts.Retries > 0 {
		client.SetRetryCount(opts.Retries)
		client.SetRetryWaitTime(500 * time.Millisecond)
	}

	return &YahooSource{
		client:   client,
		interval: opts.Interval,
		rng:      opts.Range,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		now: time.Now,
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

func (y *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := y.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Quote arrays hold nulls for bars without trades.
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

// nullable turns a JSON array with nulls into floats, NaN marking a null.
func nullable(values []*float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

// FetchSeries fetches the configured chart range for symbol.
func (y *YahooSource) FetchSeries(ctx context.Context, symbol string) (model.PriceSeries, error) {
	empty := model.PriceSeries{Symbol: symbol}

	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", y.yahooSymbol(symbol)).
		SetQueryParams(map[string]string{
			"interval": y.interval,
			"range":    y.rng,
		}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return empty, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		if resp.StatusCode() != http.StatusOK {
			return empty, fmt.Errorf("%w: yahoo status %d for %s", ErrNoData, resp.StatusCode(), symbol)
		}
		return empty, fmt.Errorf("%w: yahoo decode %s: %v", ErrMalformed, symbol, err)
	}
	if chart.Chart.Error != nil {
		return empty, fmt.Errorf("%w: yahoo api error for %s: %s", ErrNoData, symbol, chart.Chart.Error.Description)
	}
	if resp.StatusCode() != http.StatusOK {
		return empty, fmt.Errorf("%w: yahoo status %d for %s", ErrNoData, resp.StatusCode(), symbol)
	}
	if len(chart.Chart.Result) == 0 {
		return empty, fmt.Errorf("%w: yahoo returned no result for %s", ErrNoData, symbol)
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return empty, fmt.Errorf("%w: yahoo quote missing for %s", ErrMalformed, symbol)
	}
	quote := result.Indicators.Quote[0]

	series, err := Columns{
		Status:     StatusOK,
		Timestamps: result.Timestamp,
		Opens:      nullable(quote.Open),
		Highs:      nullable(quote.High),
		Lows:       nullable(quote.Low),
		Closes:     nullable(quote.Close),
		Volumes:    nullable(quote.Volume),
	}.Series(symbol)
	if err != nil {
		return series, err
	}

	// Skip null bars (holidays, no trades); fill partial nulls from the close.
	bars := series.Bars[:0]
	for _, b := range series.Bars {
		if math.IsNaN(b.Close) {
			continue
		}
		if math.IsNaN(b.Open) {
			b.Open = b.Close
		}
		if math.IsNaN(b.High) {
			b.High = b.Close
		}
		if math.IsNaN(b.Low) {
			b.Low = b.Close
		}
		if math.IsNaN(b.Volume) {
			b.Volume = 0
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return empty, fmt.Errorf("%w: yahoo returned only null bars for %s", ErrNoData, symbol)
	}
	series.Bars = bars
	series.FetchedAt = y.now()
	return series, nil
}
