package calculator

// DefaultBandWidth is the standard-deviation multiplier of the Bollinger bands.
const DefaultBandWidth = 2.0

// Bands holds Bollinger band series aligned with the input values.
type Bands struct {
	SMA   []float64
	Std   []float64
	Upper []float64
	Lower []float64
}

// CalculateBollinger computes SMA ± k·std over a trailing window.
// The standard deviation is the sample one (N-1).
func CalculateBollinger(values []float64, window int, k float64) (Bands, error) {
	sma, err := RollingSMA(values, window)
	if err != nil {
		return Bands{}, err
	}
	std, err := RollingStd(values, window)
	if err != nil {
		return Bands{}, err
	}
	b := Bands{
		SMA:   sma,
		Std:   std,
		Upper: make([]float64, len(values)),
		Lower: make([]float64, len(values)),
	}
	for i := range values {
		// NaN propagates through the arithmetic
		b.Upper[i] = sma[i] + k*std[i]
		b.Lower[i] = sma[i] - k*std[i]
	}
	return b, nil
}
