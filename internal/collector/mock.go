package collector

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"TradeSentinel/internal/model"
)

// MockSource returns controllable data for development and testing.
// Symbols without a fixed series or error get a generated oscillating series
// that shifts on every call, so repeated polls produce changing decisions.
type MockSource struct {
	BasePrice float64
	Bars      int
	Delay     time.Duration

	mu     sync.Mutex
	series map[string]model.PriceSeries
	errs   map[string]error
	calls  map[string]int
}

// NewMockSource creates a mock source generating bars around basePrice.
func NewMockSource(basePrice float64, bars int) *MockSource {
	return &MockSource{
		BasePrice: basePrice,
		Bars:      bars,
		series:    make(map[string]model.PriceSeries),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (m *MockSource) Name() string { return "mock" }

// Set fixes the series returned for symbol.
func (m *MockSource) Set(symbol string, series model.PriceSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[symbol] = series
}

// SetError makes every fetch of symbol fail with err.
func (m *MockSource) SetError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
}

// Calls returns how many times symbol was fetched.
func (m *MockSource) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *MockSource) FetchSeries(ctx context.Context, symbol string) (model.PriceSeries, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return model.PriceSeries{Symbol: symbol}, ctx.Err()
		case <-time.After(m.Delay):
		}
	}

	m.mu.Lock()
	m.calls[symbol]++
	call := m.calls[symbol]
	err, failing := m.errs[symbol]
	series, fixed := m.series[symbol]
	m.mu.Unlock()

	if failing {
		return model.PriceSeries{Symbol: symbol}, err
	}
	if fixed {
		return series, nil
	}
	return generateMockSeries(symbol, m.BasePrice, m.Bars, call), nil
}

func generateMockSeries(symbol string, basePrice float64, count, phase int) model.PriceSeries {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	offset := float64(h.Sum32() % 64)

	now := time.Now().UTC().Truncate(time.Minute)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.05*math.Sin((float64(i+phase)+offset)/9))
		bars[i] = model.OHLCV{
			Time:   now.Add(-time.Duration(count-i) * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: now}
}

// LinearSeries builds n daily bars whose closes go start, start+step, ...
func LinearSeries(symbol string, n int, start, step float64) model.PriceSeries {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = model.OHLCV{Time: t0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: t0.AddDate(0, 0, n)}
}
