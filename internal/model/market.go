package model

import "time"

// PricePoint is one net-asset-value observation. Date carries no time-of-day.
type PricePoint struct {
	Date  time.Time
	Value float64
}

// PriceSeries is an ascending, duplicate-free sequence of NAV observations for one fund.
type PriceSeries struct {
	Code   string
	Points []PricePoint
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// Empty reports whether the series carries no data.
func (s PriceSeries) Empty() bool { return len(s.Points) == 0 }

// Values returns the NAV values in date order.
func (s PriceSeries) Values() []float64 {
	vals := make([]float64, len(s.Points))
	for i, p := range s.Points {
		vals[i] = p.Value
	}
	return vals
}

// Last returns the most recent observation. ok is false for an empty series.
func (s PriceSeries) Last() (p PricePoint, ok bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Tail returns a series holding at most the last n observations.
func (s PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 || n >= len(s.Points) {
		return s
	}
	return PriceSeries{Code: s.Code, Points: s.Points[len(s.Points)-n:]}
}

// Append returns a copy of the series with p added at the end. The receiver is not modified.
func (s PriceSeries) Append(p PricePoint) PriceSeries {
	pts := make([]PricePoint, len(s.Points), len(s.Points)+1)
	copy(pts, s.Points)
	return PriceSeries{Code: s.Code, Points: append(pts, p)}
}

// Estimate is an intraday NAV estimate published before the official close.
type Estimate struct {
	Code      string
	Name      string
	GrowthPct float64 // estimated change vs last official NAV, in percent
	Value     float64
	At        time.Time
}

// Day truncates t to a calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
