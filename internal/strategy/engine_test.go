package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"FundSentinel/internal/model"
)

func TestClassify_RuleTables(t *testing.T) {
	th := DefaultThresholds()
	nan := math.NaN()
	tests := []struct {
		name     string
		category model.AssetCategory
		in       ClassifyInput
		want     model.SignalCategory
	}{
		{"brokerage oversold", model.CategoryBrokerage, ClassifyInput{RSI: 25, IntradayMove: -3}, model.SignalStrongBuy},
		{"brokerage overheated", model.CategoryBrokerage, ClassifyInput{RSI: 75, IntradayMove: -3}, model.SignalTakeProfit},
		{"brokerage dip", model.CategoryBrokerage, ClassifyInput{RSI: 45, IntradayMove: -1.5}, model.SignalSpeculativeBuy},
		{"brokerage dip at threshold", model.CategoryBrokerage, ClassifyInput{RSI: 45, IntradayMove: -1.2}, model.SignalHold},
		{"brokerage unknown move", model.CategoryBrokerage, ClassifyInput{RSI: 45, IntradayMove: nan}, model.SignalHold},
		{"commodity oversold", model.CategoryDefensiveCommodity, ClassifyInput{RSI: 29.9}, model.SignalOversoldBuy},
		{"commodity at 30", model.CategoryDefensiveCommodity, ClassifyInput{RSI: 30}, model.SignalHold},
		{"commodity hot", model.CategoryDefensiveCommodity, ClassifyInput{RSI: 90}, model.SignalHold},
		{"us index rare", model.CategoryUSIndex, ClassifyInput{RSI: 20}, model.SignalRareOpportunity},
		{"us index hold", model.CategoryUSIndex, ClassifyInput{RSI: 29}, model.SignalHoldLongTerm},
		{"tech oversold", model.CategoryHighVolTech, ClassifyInput{RSI: 34}, model.SignalOversoldBuy},
		{"tech overheated", model.CategoryHighVolTech, ClassifyInput{RSI: 71}, model.SignalHighRiskReduce},
		{"tech neutral", model.CategoryHighVolTech, ClassifyInput{RSI: 50}, model.SignalNeutralWatch},
		{"default low", model.CategoryDefault, ClassifyInput{RSI: 10}, model.SignalLowRSIBuy},
		{"default hold", model.CategoryDefault, ClassifyInput{RSI: 80}, model.SignalHold},
		{"unknown category uses default", model.AssetCategory("other"), ClassifyInput{RSI: 10}, model.SignalLowRSIBuy},
		{"band oversold first", model.CategoryBandWatch, ClassifyInput{RSI: 20, DistanceToLower: -2}, model.SignalExtremeOversold},
		{"band broke support", model.CategoryBandWatch, ClassifyInput{RSI: 40, DistanceToLower: -0.5}, model.SignalBrokeSupport},
		{"band overheated", model.CategoryBandWatch, ClassifyInput{RSI: 75, DistanceToLower: 8}, model.SignalOverheated},
		{"band watch", model.CategoryBandWatch, ClassifyInput{RSI: 50, DistanceToLower: 0}, model.SignalWatch},
		{"undefined rsi", model.CategoryBrokerage, ClassifyInput{RSI: nan}, model.SignalNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Classify(tt.category, tt.in, th)
			assert.Equal(t, tt.want, sig.Category)
			assert.NotEmpty(t, sig.Rationale)
			assert.NotEmpty(t, sig.ColorHint)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	in := ClassifyInput{Price: 1.23, RSI: 27.5, DistanceToLower: -1.1, IntradayMove: -2}
	a := Classify(model.CategoryBrokerage, in, DefaultThresholds())
	b := Classify(model.CategoryBrokerage, in, DefaultThresholds())
	assert.Equal(t, a, b)
	assert.Contains(t, a.Rationale, "27.5")
}

func TestClassify_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.USIndexRareRSI = 25
	sig := Classify(model.CategoryUSIndex, ClassifyInput{RSI: 26}, th)
	assert.Equal(t, model.SignalHoldLongTerm, sig.Category)
}

func TestDistanceToLower(t *testing.T) {
	assert.Equal(t, 0.0, DistanceToLower(1.2, math.NaN()))
	assert.Equal(t, 0.0, DistanceToLower(1.2, 0))
	assert.InDelta(t, 10.0, DistanceToLower(1.1, 1.0), 1e-9)
	assert.InDelta(t, -5.0, DistanceToLower(0.95, 1.0), 1e-9)
}

func TestClassifyFrame_Empty(t *testing.T) {
	sig := ClassifyFrame(model.CategoryDefault, model.IndicatorFrame{}, DefaultThresholds())
	assert.Equal(t, model.SignalNoData, sig.Category)
}

func TestInputFromFrame_IntradayMove(t *testing.T) {
	frame := model.IndicatorFrame{
		Values: []float64{1.0, 0.98},
		RSI:    []float64{math.NaN(), 40},
		SMA:    []float64{math.NaN(), math.NaN()},
		Std:    []float64{math.NaN(), math.NaN()},
		Upper:  []float64{math.NaN(), math.NaN()},
		Lower:  []float64{math.NaN(), math.NaN()},
		Dates:  make([]time.Time, 2),
	}
	in, ok := InputFromFrame(frame)
	assert.True(t, ok)
	assert.InDelta(t, -2.0, in.IntradayMove, 1e-9)
	assert.Equal(t, 0.0, in.DistanceToLower)
	assert.Equal(t, 40.0, in.RSI)
}
