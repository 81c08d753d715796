package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TradeSentinel/internal/collector"
	"TradeSentinel/internal/model"
	"TradeSentinel/internal/notifier"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/registry"
)

// Outcome is what a poll cycle did with one symbol.
type Outcome int

const (
	Applied Outcome = iota
	FetchFailed
	NoData
	NoDecision
	MarketClosed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case FetchFailed:
		return "fetch failed"
	case NoData:
		return "no data"
	case NoDecision:
		return "no decision"
	case MarketClosed:
		return "market closed"
	default:
		return "unknown"
	}
}

// SymbolResult is the outcome of one symbol in a cycle.
type SymbolResult struct {
	Symbol   string
	Outcome  Outcome
	Decision model.Decision
	Price    float64
	Balance  float64
	Err      error
}

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	At       time.Time
	Duration time.Duration
	Results  []SymbolResult
}

// Count returns how many symbols ended with outcome o.
func (r CycleReport) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

type fetchResult struct {
	series model.PriceSeries
	err    error
}

// PollOnce fetches every tracked symbol concurrently, then decides and
// applies sequentially. A failure for one symbol never affects the others.
func (s *Scheduler) PollOnce(ctx context.Context, now time.Time) CycleReport {
	start := time.Now()
	report := CycleReport{At: now}

	var entries []*registry.Entry
	for _, e := range s.Registry.Entries() {
		if s.MarketOpen != nil && !s.MarketOpen(e.Symbol, now) {
			report.Results = append(report.Results, SymbolResult{Symbol: e.Symbol, Outcome: MarketClosed})
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		report.Duration = time.Since(start)
		return report
	}

	fetched := s.fetchAll(ctx, entries)
	for i, e := range entries {
		report.Results = append(report.Results, s.apply(ctx, now, e, fetched[i]))
	}

	report.Duration = time.Since(start)
	s.logf("[INFO] poll cycle done: %d symbols, %d applied, %d failed in %v",
		len(report.Results), report.Count(Applied), report.Count(FetchFailed)+report.Count(NoData), report.Duration.Round(time.Millisecond))
	return report
}

// fetchAll runs at most Workers fetches at a time. Results are index
// aligned with entries.
func (s *Scheduler) fetchAll(ctx context.Context, entries []*registry.Entry) []fetchResult {
	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	timeout := s.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	results := make([]fetchResult, len(entries))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, e := range entries {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = fetchResult{series: model.PriceSeries{Symbol: symbol}, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			series, err := s.Source.FetchSeries(fctx, symbol)
			results[i] = fetchResult{series: series, err: err}
		}(i, e.Symbol)
	}
	wg.Wait()
	return results
}

func (s *Scheduler) apply(ctx context.Context, now time.Time, e *registry.Entry, fr fetchResult) SymbolResult {
	res := SymbolResult{Symbol: e.Symbol}

	switch {
	case fr.err != nil && collector.IsDataError(fr.err):
		s.logf("[WARN] %s: unusable price data: %v", e.Symbol, fr.err)
		res.Outcome, res.Err = NoData, fr.err
		return res
	case errors.Is(fr.err, context.DeadlineExceeded):
		s.logf("[ERROR] %s: fetch timed out: %v", e.Symbol, fr.err)
		res.Outcome, res.Err = FetchFailed, fr.err
		return res
	case fr.err != nil:
		s.logf("[ERROR] %s: fetch failed: %v", e.Symbol, fr.err)
		res.Outcome, res.Err = FetchFailed, fr.err
		return res
	case fr.series.Empty():
		s.logf("[WARN] %s: no price data", e.Symbol)
		res.Outcome = NoData
		return res
	}

	decision, ok := e.Strategy.Decide(fr.series)
	if !ok {
		s.logf("[INFO] %s: not enough history for %s (%d bars)", e.Symbol, e.Strategy.Name(), fr.series.Len())
		res.Outcome = NoDecision
		return res
	}

	bar, _ := fr.series.Last()
	price := bar.Close
	changed := e.Portfolio.Apply(decision, price)
	e.LastPrice = price
	e.LastDecision = decision
	e.LastPolled = now

	balance := e.Balance()
	s.logf("[TRADE] %s %s price=%s balance=%s", e.Symbol, decision, recorder.Money(price), recorder.Money(balance))

	rec := recorder.NewTradeRecord(now, e.Symbol, decision, price, e.Portfolio.Cash(), e.Portfolio.Units(), balance)
	if err := s.withSinkTimeout(ctx, func(sctx context.Context) error { return s.Recorder.Record(sctx, rec) }); err != nil {
		s.logf("[ERROR] record trade %s: %v", e.Symbol, err)
	}
	if changed {
		msg := notifier.FormatTrade(rec)
		if err := s.withSinkTimeout(ctx, func(sctx context.Context) error { return s.Notifier.Notify(sctx, msg) }); err != nil {
			s.logf("[WARN] notify trade %s: %v", e.Symbol, err)
		}
	}

	res.Outcome = Applied
	res.Decision = decision
	res.Price = price
	res.Balance = balance
	return res
}

// withSinkTimeout runs a best-effort side effect under SinkTimeout. A sink
// that ignores its context is abandoned when the deadline passes.
func (s *Scheduler) withSinkTimeout(ctx context.Context, call func(context.Context) error) error {
	timeout := s.SinkTimeout
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- call(sctx) }()
	select {
	case err := <-done:
		return err
	case <-sctx.Done():
		return fmt.Errorf("sink gave up after %v: %w", timeout, sctx.Err())
	}
}
