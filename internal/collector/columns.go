package collector

import (
	"fmt"
	"time"

	"TradeSentinel/internal/model"
)

// StatusOK is the success marker of column-oriented candle APIs.
const StatusOK = "ok"

// Columns is a column-oriented candle payload: one array per field, all
// indexed by bar. A nil slice means the field was absent.
type Columns struct {
	Status     string
	Timestamps []int64
	Opens      []float64
	Highs      []float64
	Lows       []float64
	Closes     []float64
	Volumes    []float64
}

// Series validates the columns and zips them into a price series. Any
// failure yields an empty series and a data error; it never panics.
func (c Columns) Series(symbol string) (model.PriceSeries, error) {
	empty := model.PriceSeries{Symbol: symbol}
	if c.Status != StatusOK {
		return empty, fmt.Errorf("%w: status %q for %s", ErrNoData, c.Status, symbol)
	}

	fields := []struct {
		name    string
		n       int
		missing bool
	}{
		{"t", len(c.Timestamps), c.Timestamps == nil},
		{"o", len(c.Opens), c.Opens == nil},
		{"h", len(c.Highs), c.Highs == nil},
		{"l", len(c.Lows), c.Lows == nil},
		{"c", len(c.Closes), c.Closes == nil},
		{"v", len(c.Volumes), c.Volumes == nil},
	}
	n := len(c.Timestamps)
	for _, f := range fields {
		if f.missing {
			return empty, fmt.Errorf("%w: field %s missing for %s", ErrMalformed, f.name, symbol)
		}
		if f.n != n {
			return empty, fmt.Errorf("%w: field %s has %d values, want %d for %s", ErrMalformed, f.name, f.n, n, symbol)
		}
	}
	if n == 0 {
		return empty, fmt.Errorf("%w: empty candles for %s", ErrNoData, symbol)
	}

	bars := make([]model.OHLCV, n)
	for i := 0; i < n; i++ {
		bars[i] = model.OHLCV{
			Time:   time.Unix(c.Timestamps[i], 0).UTC(),
			Open:   c.Opens[i],
			High:   c.Highs[i],
			Low:    c.Lows[i],
			Close:  c.Closes[i],
			Volume: c.Volumes[i],
		}
	}
	return model.PriceSeries{Symbol: symbol, Bars: bars}, nil
}
