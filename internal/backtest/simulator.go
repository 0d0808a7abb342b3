package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"FundSentinel/internal/calculator"
	"FundSentinel/internal/model"
)

// Config holds the parameters of the RSI threshold strategy.
type Config struct {
	InitialCash float64 `yaml:"initial_cash"`
	BuyRSI      float64 `yaml:"buy_rsi"`
	SellRSI     float64 `yaml:"sell_rsi"`
	RSIWindow   int     `yaml:"rsi_window"`
}

// DefaultConfig buys below RSI 30 and sells above RSI 70 with 1000 of cash.
func DefaultConfig() Config {
	return Config{
		InitialCash: 1000,
		BuyRSI:      30,
		SellRSI:     70,
		RSIWindow:   calculator.DefaultRSIWindow,
	}
}

// Validate checks the assumptions the simulator relies on. Run and Simulate
// do not call it; callers are expected to validate before invoking them.
func (c Config) Validate() error {
	if c.InitialCash <= 0 {
		return errors.New("initial_cash must be positive")
	}
	if c.BuyRSI >= c.SellRSI {
		return fmt.Errorf("buy_rsi (%.1f) must be below sell_rsi (%.1f)", c.BuyRSI, c.SellRSI)
	}
	if c.BuyRSI < 0 || c.SellRSI > 100 {
		return errors.New("rsi thresholds must lie within [0, 100]")
	}
	return nil
}

// Run computes the indicator frame for series and replays the strategy over it.
func Run(series model.PriceSeries, cfg Config) model.BacktestResult {
	frame := calculator.ComputeIndicators(series, cfg.RSIWindow, calculator.DefaultBollingerWindow)
	res := Simulate(frame, cfg)
	res.Code = series.Code
	return res
}

// Simulate replays an all-in/all-out RSI strategy over a precomputed frame.
// Leading rows without a defined RSI are skipped. With fewer than two usable
// rows the result is degenerate: no trades and FinalValue equal to the initial cash.
func Simulate(frame model.IndicatorFrame, cfg Config) model.BacktestResult {
	res := model.BacktestResult{
		RunID:       uuid.NewString(),
		InitialCash: cfg.InitialCash,
		FinalValue:  cfg.InitialCash,
		Final:       model.Position{Cash: cfg.InitialCash},
	}

	start := 0
	for start < frame.Len() && math.IsNaN(frame.RSI[start]) {
		start++
	}
	if frame.Len()-start < 2 {
		return res
	}

	pos := model.Position{Cash: cfg.InitialCash}
	res.Values = make([]model.ValuePoint, 0, frame.Len()-start)
	for i := start; i < frame.Len(); i++ {
		price := frame.Values[i]
		rsi := frame.RSI[i]
		date := frame.Dates[i]

		switch {
		case !pos.Invested() && rsi < cfg.BuyRSI:
			pos.Shares = pos.Cash / price
			pos.Cash = 0
			res.Trades = append(res.Trades, model.Trade{Date: date, Side: model.SideBuy, Price: price, RSI: rsi})
		case pos.Invested() && rsi > cfg.SellRSI:
			pos.Cash = pos.Shares * price
			pos.Shares = 0
			res.Trades = append(res.Trades, model.Trade{Date: date, Side: model.SideSell, Price: price, RSI: rsi})
		}
		res.Values = append(res.Values, model.ValuePoint{Date: date, Value: pos.Value(price)})
	}

	first := frame.Values[start]
	last := frame.Values[frame.Len()-1]
	res.Final = pos
	res.FinalValue = res.Values[len(res.Values)-1].Value
	res.StrategyReturn = (res.FinalValue - cfg.InitialCash) / cfg.InitialCash
	res.BuyAndHoldReturn = (last - first) / first
	res.MaxDrawdown = maxDrawdown(res.Values)
	return res
}

func maxDrawdown(values []model.ValuePoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range values {
		if v.Value > peak {
			peak = v.Value
		}
		if peak > 0 {
			if dd := (peak - v.Value) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
