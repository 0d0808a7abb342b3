package model

import "time"

// Side is the direction of a simulated trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is one simulated fill.
type Trade struct {
	Date  time.Time `json:"date"`
	Side  Side      `json:"side"`
	Price float64   `json:"price"`
	RSI   float64   `json:"rsi"`
}

// Position is the cash/share state of a single backtest run.
type Position struct {
	Cash   float64
	Shares float64
}

// Value marks the position to market at price.
func (p Position) Value(price float64) float64 {
	return p.Cash + p.Shares*price
}

// Invested reports whether the position currently holds shares.
func (p Position) Invested() bool { return p.Shares > 0 }

// ValuePoint is one entry of the portfolio value curve.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// BacktestResult is the output of one simulator run.
type BacktestResult struct {
	RunID            string       `json:"run_id"`
	Code             string       `json:"code"`
	InitialCash      float64      `json:"initial_cash"`
	FinalValue       float64      `json:"final_value"`
	StrategyReturn   float64      `json:"strategy_return"`    // fraction, 0.12 = +12%
	BuyAndHoldReturn float64      `json:"buy_and_hold_return"` // fraction
	MaxDrawdown      float64      `json:"max_drawdown"`        // fraction, >= 0
	Values           []ValuePoint `json:"values"`
	Trades           []Trade      `json:"trades"`
	Final            Position     `json:"-"`
}

// Degenerate reports whether the run had too little data to simulate.
func (r BacktestResult) Degenerate() bool { return len(r.Values) < 2 }

// BeatBenchmark reports whether the strategy outperformed buy-and-hold.
func (r BacktestResult) BeatBenchmark() bool { return r.StrategyReturn > r.BuyAndHoldReturn }
