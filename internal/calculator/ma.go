package calculator

// MovingAverage slides a window of the given size across values and returns
// one mean per full window, so the result has len(values)-window+1 entries.
// It returns nil when the window is not positive or larger than the input.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}
	out := make([]float64, 0, len(values)-window+1)
	for i := 0; i+window <= len(values); i++ {
		sum := 0.0
		for _, v := range values[i : i+window] {
			sum += v
		}
		out = append(out, sum/float64(window))
	}
	return out
}

// LastMovingAverage returns the final value of MovingAverage(values, window).
func LastMovingAverage(values []float64, window int) (float64, bool) {
	ma := MovingAverage(values, window)
	if len(ma) == 0 {
		return 0, false
	}
	return ma[len(ma)-1], true
}
