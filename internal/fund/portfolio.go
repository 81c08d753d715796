package fund

import "TradeSentinel/internal/model"

// DefaultStartingCash is the cash a freshly tracked symbol starts with.
const DefaultStartingCash = 10000.0

// Portfolio is a single-symbol cash/position ledger. It is not safe for
// concurrent use; the scheduler loop is its only writer.
type Portfolio struct {
	cash  float64
	units float64
}

// NewPortfolio creates a portfolio holding only cash.
func NewPortfolio(startingCash float64) *Portfolio {
	if startingCash < 0 {
		startingCash = 0
	}
	return &Portfolio{cash: startingCash}
}

// Cash returns the uninvested balance.
func (p *Portfolio) Cash() float64 { return p.cash }

// Units returns the held position size.
func (p *Portfolio) Units() float64 { return p.units }

// Apply executes a decision at the given fill price and reports whether the
// ledger changed. Buy converts all cash into units, Sell liquidates the whole
// position. A non-positive price never fills.
func (p *Portfolio) Apply(decision model.Decision, price float64) bool {
	switch decision {
	case model.Buy:
		if price <= 0 || p.cash <= 0 {
			return false
		}
		p.units += p.cash / price
		p.cash = 0
		return true
	case model.Sell:
		if price <= 0 || p.units <= 0 {
			return false
		}
		p.cash += p.units * price
		p.units = 0
		return true
	default:
		return false
	}
}

// MarkToMarket values the portfolio at the current price.
func (p *Portfolio) MarkToMarket(price float64) float64 {
	return p.cash + p.units*price
}
