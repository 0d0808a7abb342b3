package calculator

import (
	"math"
	"testing"
	"time"

	talib "github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/model"
)

func makeSeries(values ...float64) model.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]model.PricePoint, len(values))
	for i, v := range values {
		pts[i] = model.PricePoint{Date: start.AddDate(0, 0, i), Value: v}
	}
	return model.PriceSeries{Code: "000001", Points: pts}
}

func wavySeries(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = 1.5 + 0.2*math.Sin(float64(i)/3) + 0.05*math.Cos(float64(i)*1.7)
	}
	return vals
}

func TestCalculateRSI_HandComputed(t *testing.T) {
	rsi, err := CalculateRSI([]float64{1, 2, 1}, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(rsi[0]))
	assert.InDelta(t, 100.0, rsi[1], 1e-12)
	// avgGain = avgLoss = 0.5 after the second change
	assert.InDelta(t, 50.0, rsi[2], 1e-12)
}

func TestCalculateRSI_Bounded(t *testing.T) {
	rsi, err := CalculateRSI(wavySeries(300), DefaultRSIWindow)
	require.NoError(t, err)
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		assert.LessOrEqual(t, v, 100.0, "index %d", i)
	}
}

func TestCalculateRSI_InvalidWindow(t *testing.T) {
	_, err := CalculateRSI([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestRSIState_PeekDoesNotMutate(t *testing.T) {
	st, err := NewRSIState(3)
	require.NoError(t, err)
	for _, v := range []float64{1, 1.1, 1.05, 1.2} {
		st.Push(v)
	}
	before := st.Current()
	peeked := st.Peek(0.9)
	assert.Equal(t, before, st.Current())
	assert.Equal(t, 4, st.Count())
	assert.Equal(t, peeked, st.Push(0.9))
}

func TestComputeIndicators_WarmUp(t *testing.T) {
	frame := ComputeIndicators(makeSeries(wavySeries(40)...), 14, 20)
	require.Equal(t, 40, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		if i < 13 {
			assert.True(t, math.IsNaN(frame.RSI[i]), "rsi %d should be undefined", i)
		} else {
			assert.False(t, math.IsNaN(frame.RSI[i]), "rsi %d should be defined", i)
		}
		if i < 19 {
			assert.True(t, math.IsNaN(frame.SMA[i]), "sma %d should be undefined", i)
			assert.True(t, math.IsNaN(frame.Upper[i]))
			assert.True(t, math.IsNaN(frame.Lower[i]))
		} else {
			assert.False(t, math.IsNaN(frame.SMA[i]), "sma %d should be defined", i)
		}
	}
}

func TestComputeIndicators_BandsSymmetric(t *testing.T) {
	frame := ComputeIndicators(makeSeries(wavySeries(120)...), 14, 20)
	for i := 19; i < frame.Len(); i++ {
		assert.LessOrEqual(t, frame.Lower[i], frame.SMA[i])
		assert.LessOrEqual(t, frame.SMA[i], frame.Upper[i])
		assert.InDelta(t, frame.Upper[i]-frame.SMA[i], frame.SMA[i]-frame.Lower[i], 1e-12)
	}
}

func TestComputeIndicators_LinearRise(t *testing.T) {
	vals := make([]float64, 21)
	for i := range vals {
		vals[i] = 1.0 + 0.01*float64(i)
	}
	frame := ComputeIndicators(makeSeries(vals...), 14, 20)
	last, ok := frame.Latest()
	require.True(t, ok)
	assert.Equal(t, 100.0, last.RSI)

	window := vals[1:]
	m := 0.0
	for _, v := range window {
		m += v
	}
	m /= float64(len(window))
	sq := 0.0
	for _, v := range window {
		sq += (v - m) * (v - m)
	}
	std := math.Sqrt(sq / float64(len(window)-1))
	assert.InDelta(t, m, last.SMA, 1e-12)
	assert.InDelta(t, std, last.Std, 1e-12)
	assert.InDelta(t, m+2*std, last.Upper, 1e-12)
	assert.InDelta(t, m-2*std, last.Lower, 1e-12)
}

func TestComputeIndicators_SMAMatchesTalib(t *testing.T) {
	vals := wavySeries(80)
	frame := ComputeIndicators(makeSeries(vals...), 14, 20)
	want := talib.Sma(vals, 20)
	for i := 19; i < len(vals); i++ {
		assert.InDelta(t, want[i], frame.SMA[i], 1e-9, "index %d", i)
	}
}

func TestComputeIndicators_EmptyAndShort(t *testing.T) {
	empty := ComputeIndicators(model.PriceSeries{}, 14, 20)
	assert.Equal(t, 0, empty.Len())
	_, ok := empty.Latest()
	assert.False(t, ok)

	one := ComputeIndicators(makeSeries(1.2), 14, 20)
	require.Equal(t, 1, one.Len())
	assert.True(t, math.IsNaN(one.RSI[0]))
	assert.True(t, math.IsNaN(one.Lower[0]))
}

func TestComputeIndicators_AppendedPointMatchesRealSeries(t *testing.T) {
	vals := wavySeries(50)
	full := ComputeIndicators(makeSeries(vals...), 14, 20)
	base := makeSeries(vals[:49]...)
	extended := base.Append(model.PricePoint{Date: base.Points[48].Date.AddDate(0, 0, 1), Value: vals[49]})
	hyp := ComputeIndicators(extended, 14, 20)
	assert.Equal(t, full.RSI[49], hyp.RSI[49])
	assert.Equal(t, full.Lower[49], hyp.Lower[49])
}

func TestCalculateSMA(t *testing.T) {
	v, err := CalculateSMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	_, err = CalculateSMA([]float64{1}, 2)
	assert.Error(t, err)
}

func TestRollingSMA_Edges(t *testing.T) {
	_, err := RollingSMA([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	short, err := RollingSMA([]float64{1, 2, 3}, 5)
	require.NoError(t, err)
	require.Len(t, short, 3)
	for _, v := range short {
		assert.True(t, math.IsNaN(v))
	}

	empty, err := RollingSMA(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)

	one, err := RollingSMA([]float64{1, 2, 4}, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 4}, one, 1e-12)

	got, err := RollingSMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[0]))
	assert.InDeltaSlice(t, []float64{1.5, 2.5, 3.5}, got[1:], 1e-12)
}

func TestRangeHighLowAndPosition(t *testing.T) {
	high, low, err := RangeHighLow([]float64{5, 1, 3, 4, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, 4.0, high)
	assert.Equal(t, 2.0, low)

	pos, err := RangePosition(3, high, low)
	require.NoError(t, err)
	assert.Equal(t, 0.5, pos)

	_, _, err = RangeHighLow(nil, 3)
	assert.Error(t, err)
}

func TestMomentumAndRebase(t *testing.T) {
	vals := []float64{1.0, 1.1, 1.2, 1.0, 1.25}
	assert.InDelta(t, 25.0, Momentum(vals, 4), 1e-9)
	assert.True(t, math.IsNaN(Momentum(vals, 5)))

	rb := Rebase([]float64{2, 3, 1})
	assert.Equal(t, []float64{1, 1.5, 0.5}, rb)
	assert.Nil(t, Rebase(nil))
}
