package calculator

import (
	"errors"
	"math"
)

// ErrInvalidWindow is returned when a window or period is not positive.
var ErrInvalidWindow = errors.New("window must be positive")

// RSIState carries the EWMA averages of gains and losses between observations.
// Averages use alpha = 1/window and are seeded by the first observed change,
// so the result depends only on the values pushed so far.
type RSIState struct {
	window  int
	alpha   float64
	prev    float64
	avgGain float64
	avgLoss float64
	n       int
}

// NewRSIState returns an empty state for the given window.
func NewRSIState(window int) (*RSIState, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &RSIState{window: window, alpha: 1 / float64(window)}, nil
}

// Push consumes the next value and returns the RSI at that point,
// or NaN while the state is still warming up.
func (s *RSIState) Push(v float64) float64 {
	if s.n == 0 {
		s.prev = v
		s.n = 1
		return math.NaN()
	}
	change := v - s.prev
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}
	if s.n == 1 {
		s.avgGain = gain
		s.avgLoss = loss
	} else {
		s.avgGain = (1-s.alpha)*s.avgGain + s.alpha*gain
		s.avgLoss = (1-s.alpha)*s.avgLoss + s.alpha*loss
	}
	s.prev = v
	s.n++
	return s.Current()
}

// Peek returns the RSI that Push(v) would return without changing the state.
func (s *RSIState) Peek(v float64) float64 {
	c := *s
	return c.Push(v)
}

// Current returns the RSI after the last pushed value.
func (s *RSIState) Current() float64 {
	// index of the last value is n-1; the first window-1 points are warm-up
	if s.n < 2 || s.n-1 < s.window-1 {
		return math.NaN()
	}
	return rsiFromAverages(s.avgGain, s.avgLoss)
}

// Count returns how many values have been pushed.
func (s *RSIState) Count() int { return s.n }

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// CalculateRSI computes the RSI series aligned with values. Warm-up points are NaN.
func CalculateRSI(values []float64, window int) ([]float64, error) {
	st, err := NewRSIState(window)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = st.Push(v)
	}
	return out, nil
}

// LatestRSI returns the RSI at the last value, NaN if it is not yet defined.
func LatestRSI(values []float64, window int) (float64, error) {
	st, err := NewRSIState(window)
	if err != nil {
		return 0, err
	}
	rsi := math.NaN()
	for _, v := range values {
		rsi = st.Push(v)
	}
	return rsi, nil
}
