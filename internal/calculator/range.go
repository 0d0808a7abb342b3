package calculator

import (
	"errors"
	"math"
)

// RangeHighLow scans the most recent n values and returns the high and low.
func RangeHighLow(values []float64, n int) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	if n <= 0 {
		return 0, 0, ErrInvalidWindow
	}
	start := len(values) - n
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, v := range values[start:] {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high], clamped to 0.0~1.0.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(1, math.Max(0, pos)), nil
}

// Momentum returns the percentage change between the last value and the value n steps earlier.
// NaN when the series is shorter than n+1.
func Momentum(values []float64, n int) float64 {
	if n <= 0 || len(values) < n+1 {
		return math.NaN()
	}
	base := values[len(values)-1-n]
	if base == 0 {
		return math.NaN()
	}
	return (values[len(values)-1] - base) / base * 100
}

// Rebase divides every value by the first one so the series starts at 1.0.
func Rebase(values []float64) []float64 {
	if len(values) == 0 || values[0] == 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / values[0]
	}
	return out
}
