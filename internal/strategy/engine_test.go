package strategy

import (
	"testing"
	"time"

	"TradeSentinel/internal/model"
)

func seriesOf(closes ...float64) model.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return model.PriceSeries{Symbol: "TEST", Bars: bars}
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestCrossover_InsufficientHistory(t *testing.T) {
	pairs := [][2]int{{1, 1}, {2, 5}, {10, 50}, {3, 3}}
	for _, p := range pairs {
		for n := 0; n < p[1]; n++ {
			if d, ok := Crossover(linear(n, 100, 1), p[0], p[1]); ok {
				t.Errorf("windows %v, len %d: expected no decision, got %v", p, n, d)
			}
		}
	}
}

func TestCrossover_SignOfDifference(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   model.Decision
	}{
		{"uptrend buys", linear(20, 100, 1), model.Buy},
		{"downtrend sells", linear(20, 100, -1), model.Sell},
		{"flat holds", linear(20, 100, 0), model.Hold},
		{"recent spike buys", append(linear(19, 50, 0), 80), model.Buy},
		{"recent drop sells", append(linear(19, 50, 0), 20), model.Sell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Crossover(tt.closes, 3, 10)
			if !ok {
				t.Fatal("expected a decision")
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCrossover_EqualWindowsHold(t *testing.T) {
	got, ok := Crossover(linear(10, 1, 3), 5, 5)
	if !ok || got != model.Hold {
		t.Errorf("expected Hold, got %v (ok=%v)", got, ok)
	}
}

func TestCrossover_InvalidWindows(t *testing.T) {
	closes := linear(30, 100, 1)
	for _, w := range [][2]int{{0, 10}, {-1, 10}, {10, 0}, {40, 10}} {
		if d, ok := Crossover(closes, w[0], w[1]); ok {
			t.Errorf("windows %v: expected no decision, got %v", w, d)
		}
	}
}

func TestMovingAverage_UptrendScenario(t *testing.T) {
	// 60 closes rising linearly from 100 to 159.
	ma := NewMovingAverage(DefaultShortWindow, DefaultLongWindow)
	got, ok := ma.Decide(seriesOf(linear(60, 100, 1)...))
	if !ok {
		t.Fatal("expected a decision")
	}
	if got != model.Buy {
		t.Errorf("expected Buy, got %v", got)
	}
}

func TestMovingAverage_EmptySeries(t *testing.T) {
	ma := NewMovingAverage(DefaultShortWindow, DefaultLongWindow)
	if d, ok := ma.Decide(model.PriceSeries{}); ok {
		t.Errorf("expected no decision, got %v", d)
	}
}

func TestMovingAverage_Deterministic(t *testing.T) {
	ma := NewMovingAverage(3, 7)
	s := seriesOf(5, 7, 6, 8, 9, 4, 3, 6, 7, 8)
	first, ok1 := ma.Decide(s)
	for i := 0; i < 5; i++ {
		got, ok := ma.Decide(s)
		if got != first || ok != ok1 {
			t.Fatalf("non-deterministic result: %v/%v vs %v/%v", got, ok, first, ok1)
		}
	}
}
