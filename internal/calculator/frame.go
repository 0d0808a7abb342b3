package calculator

import (
	"time"

	"FundSentinel/internal/model"
)

const (
	DefaultRSIWindow       = 14
	DefaultBollingerWindow = 20
)

// ComputeIndicators derives the indicator frame for a price series.
// It never fails: short series yield NaN for undefined values, an empty series
// yields an empty frame, and non-positive windows fall back to the defaults.
func ComputeIndicators(series model.PriceSeries, rsiWindow, bollingerWindow int) model.IndicatorFrame {
	if rsiWindow <= 0 {
		rsiWindow = DefaultRSIWindow
	}
	if bollingerWindow <= 0 {
		bollingerWindow = DefaultBollingerWindow
	}
	n := series.Len()
	frame := model.IndicatorFrame{
		Dates:  make([]time.Time, n),
		Values: series.Values(),
	}
	for i, p := range series.Points {
		frame.Dates[i] = p.Date
	}
	if n == 0 {
		return frame
	}

	// windows are positive here, errors cannot occur
	frame.RSI, _ = CalculateRSI(frame.Values, rsiWindow)
	bands, _ := CalculateBollinger(frame.Values, bollingerWindow, DefaultBandWidth)
	frame.SMA = bands.SMA
	frame.Std = bands.Std
	frame.Upper = bands.Upper
	frame.Lower = bands.Lower
	return frame
}
