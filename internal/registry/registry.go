package registry

import (
	"strings"
	"time"

	"TradeSentinel/internal/fund"
	"TradeSentinel/internal/model"
	"TradeSentinel/internal/strategy"
)

// Entry is one tracked symbol with its simulated portfolio and strategy.
type Entry struct {
	Symbol    string
	Portfolio *fund.Portfolio
	Strategy  strategy.Strategy
	AddedAt   time.Time

	// Outcome of the last applied decision; zero until the first one.
	LastPrice    float64
	LastDecision model.Decision
	LastPolled   time.Time
}

// Balance values the entry at its last observed price.
func (e *Entry) Balance() float64 {
	return e.Portfolio.MarkToMarket(e.LastPrice)
}

// Factory builds the strategy for a newly added symbol.
type Factory func(symbol string) strategy.Strategy

// Registry maps symbols to entries and remembers insertion order.
// It has no locking: the scheduler loop owns it.
type Registry struct {
	startingCash float64
	factory      Factory
	entries      map[string]*Entry
	order        []string
	now          func() time.Time
}

// New creates an empty registry. A nil factory uses the default crossover windows.
func New(startingCash float64, factory Factory) *Registry {
	if factory == nil {
		factory = func(string) strategy.Strategy {
			return strategy.NewMovingAverage(strategy.DefaultShortWindow, strategy.DefaultLongWindow)
		}
	}
	return &Registry{
		startingCash: startingCash,
		factory:      factory,
		entries:      make(map[string]*Entry),
		now:          time.Now,
	}
}

// Normalize trims and upper-cases a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Add starts tracking symbol with a fresh portfolio. Adding a symbol that is
// already tracked leaves its simulation untouched and returns false.
func (r *Registry) Add(symbol string) (*Entry, bool) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return nil, false
	}
	if e, ok := r.entries[symbol]; ok {
		return e, false
	}
	e := &Entry{
		Symbol:    symbol,
		Portfolio: fund.NewPortfolio(r.startingCash),
		Strategy:  r.factory(symbol),
		AddedAt:   r.now(),
	}
	r.entries[symbol] = e
	r.order = append(r.order, symbol)
	return e, true
}

// Remove stops tracking symbol. It reports whether the symbol was tracked.
func (r *Registry) Remove(symbol string) bool {
	symbol = Normalize(symbol)
	if _, ok := r.entries[symbol]; !ok {
		return false
	}
	delete(r.entries, symbol)
	for i, s := range r.order {
		if s == symbol {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get looks up a tracked symbol.
func (r *Registry) Get(symbol string) (*Entry, bool) {
	e, ok := r.entries[Normalize(symbol)]
	return e, ok
}

// Symbols returns tracked symbols in insertion order.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entries returns tracked entries in insertion order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, r.entries[s])
	}
	return out
}

// Len returns the number of tracked symbols.
func (r *Registry) Len() int { return len(r.order) }
