package model

import "time"

// IndicatorFrame is aligned one-to-one with the PriceSeries it was computed from.
// Undefined values (warm-up) are NaN.
type IndicatorFrame struct {
	Dates  []time.Time
	Values []float64
	RSI    []float64
	SMA    []float64
	Std    []float64
	Upper  []float64
	Lower  []float64
}

// Len returns the number of rows in the frame.
func (f IndicatorFrame) Len() int { return len(f.Values) }

// IndicatorRow is a single row of an IndicatorFrame.
type IndicatorRow struct {
	Date  time.Time
	Value float64
	RSI   float64
	SMA   float64
	Std   float64
	Upper float64
	Lower float64
}

// Row returns row i.
func (f IndicatorFrame) Row(i int) IndicatorRow {
	return IndicatorRow{
		Date:  f.Dates[i],
		Value: f.Values[i],
		RSI:   f.RSI[i],
		SMA:   f.SMA[i],
		Std:   f.Std[i],
		Upper: f.Upper[i],
		Lower: f.Lower[i],
	}
}

// Latest returns the last row. ok is false for an empty frame.
func (f IndicatorFrame) Latest() (IndicatorRow, bool) {
	if f.Len() == 0 {
		return IndicatorRow{}, false
	}
	return f.Row(f.Len() - 1), true
}
