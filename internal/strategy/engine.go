package strategy

import (
	"TradeSentinel/internal/calculator"
	"TradeSentinel/internal/model"
)

// Default crossover windows.
const (
	DefaultShortWindow = 10
	DefaultLongWindow  = 50
)

// Strategy turns a price series into a trade decision.
// ok is false when the strategy has nothing to say for this series.
type Strategy interface {
	Decide(series model.PriceSeries) (decision model.Decision, ok bool)
	Name() string
}

// MovingAverage is the short/long simple moving average crossover rule.
type MovingAverage struct {
	ShortWindow int
	LongWindow  int
}

// NewMovingAverage creates a crossover strategy with the given windows.
func NewMovingAverage(short, long int) *MovingAverage {
	return &MovingAverage{ShortWindow: short, LongWindow: long}
}

func (m *MovingAverage) Name() string { return "ma-crossover" }

// Decide evaluates the crossover on the series close prices.
func (m *MovingAverage) Decide(series model.PriceSeries) (model.Decision, bool) {
	return Crossover(series.Closes(), m.ShortWindow, m.LongWindow)
}

// Crossover compares the last value of the short and long moving average
// sequences. Fewer than long closes, or a window that cannot be computed,
// yields no decision. Equal averages yield Hold.
func Crossover(closes []float64, short, long int) (model.Decision, bool) {
	if long <= 0 || len(closes) < long {
		return model.Hold, false
	}
	shortMA, ok := calculator.LastMovingAverage(closes, short)
	if !ok {
		return model.Hold, false
	}
	longMA, ok := calculator.LastMovingAverage(closes, long)
	if !ok {
		return model.Hold, false
	}
	switch {
	case shortMA > longMA:
		return model.Buy, true
	case shortMA < longMA:
		return model.Sell, true
	default:
		return model.Hold, true
	}
}
