package strategy

import (
	"math"

	"FundSentinel/internal/calculator"
	"FundSentinel/internal/model"
)

// rsiTolerance absorbs rounding when a candidate lands exactly on the target.
const rsiTolerance = 1e-9

// SolveOptions bounds the reverse search.
type SolveOptions struct {
	MaxUpPct   float64 // first candidate, e.g. +5.0
	MaxDownPct float64 // last candidate, e.g. -10.0
	StepPct    float64 // decrement between candidates, e.g. 0.1
	RSIWindow  int
	// Lookback limits the history used to seed the RSI averages.
	// Zero uses the whole series.
	Lookback int
}

// DefaultSolveOptions searches +5% .. -10% in 0.1% steps with RSI(14).
func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		MaxUpPct:   5.0,
		MaxDownPct: -10.0,
		StepPct:    0.1,
		RSIWindow:  calculator.DefaultRSIWindow,
	}
}

// SolveResult is the smallest decline found by the solver.
type SolveResult struct {
	TargetRSI         float64 `json:"target_rsi"`
	MovePct           float64 `json:"move_pct"`
	HypotheticalPrice float64 `json:"hypothetical_price"`
	RSI               float64 `json:"rsi"`
	// InsufficientData marks a NOT_FOUND caused by an undefined RSI rather than
	// by exhausting the search range.
	InsufficientData bool `json:"insufficient_data,omitempty"`
}

// SolveNextMoveForRSI searches for the first next-period move, from the most
// favourable to the most bearish, that brings RSI to or below targetRSI.
// ok is false when no candidate in the range qualifies or the series is too
// short for an RSI; the latter sets InsufficientData.
func SolveNextMoveForRSI(series model.PriceSeries, targetRSI float64, opts SolveOptions) (SolveResult, bool) {
	last, ok := series.Last()
	if !ok {
		return SolveResult{TargetRSI: targetRSI, InsufficientData: true}, false
	}
	if opts.StepPct <= 0 {
		d := DefaultSolveOptions()
		opts.StepPct = d.StepPct
	}
	if opts.RSIWindow <= 0 {
		opts.RSIWindow = calculator.DefaultRSIWindow
	}

	state, err := calculator.NewRSIState(opts.RSIWindow)
	if err != nil {
		return SolveResult{}, false
	}
	for _, v := range series.Tail(opts.Lookback).Values() {
		state.Push(v)
	}
	if math.IsNaN(state.Peek(last.Value)) {
		return SolveResult{TargetRSI: targetRSI, InsufficientData: true}, false
	}

	hi := int(math.Round(opts.MaxUpPct / opts.StepPct))
	lo := int(math.Round(opts.MaxDownPct / opts.StepPct))
	for k := hi; k >= lo; k-- {
		move := math.Round(float64(k)*opts.StepPct*1e6) / 1e6
		price := last.Value * (1 + move/100)
		rsi := state.Peek(price)
		if !math.IsNaN(rsi) && rsi <= targetRSI+rsiTolerance {
			return SolveResult{
				TargetRSI:         targetRSI,
				MovePct:           move,
				HypotheticalPrice: price,
				RSI:               rsi,
			}, true
		}
	}
	return SolveResult{TargetRSI: targetRSI}, false
}
