package notifier

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/analysis"
	"FundSentinel/internal/model"
	"FundSentinel/internal/strategy"
)

var asOf = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func sampleReport() *analysis.FundReport {
	return &analysis.FundReport{
		Fund: model.Fund{Code: "012363", Name: "国泰证券", Category: model.CategoryBrokerage},
		AsOf: asOf,
		Latest: model.IndicatorRow{
			Date: asOf, Value: 1.2345, RSI: 27.5, SMA: 1.3, Upper: 1.4, Lower: 1.2,
		},
		Signal: model.Signal{Category: model.SignalStrongBuy, Rationale: "RSI=27.5 低于 30", ColorHint: "green"},
		Solve:  strategy.SolveResult{TargetRSI: 30, MovePct: -1.2, HypotheticalPrice: 1.2197, RSI: 29.8},
		Backtest: model.BacktestResult{
			StrategyReturn: 0.1234, BuyAndHoldReturn: 0.05,
			Values: []model.ValuePoint{{Date: asOf, Value: 1000}, {Date: asOf, Value: 1123}},
		},
		SolveFound: true,
	}
}

func TestFormatFundBlock(t *testing.T) {
	out := FormatFundBlock(sampleReport(), -10)
	assert.Contains(t, out, "<b>国泰证券</b> (012363)")
	assert.Contains(t, out, "2025-03-14")
	assert.Contains(t, out, "RSI: 27.5")
	assert.Contains(t, out, "🟢 <b>STRONG_BUY</b>")
	assert.Contains(t, out, "策略 +12.34% vs 持有 +5.00% ✅")
	assert.Contains(t, out, "再跌 1.2% 至 1.2197")
}

func TestFormatFundBlock_NotFoundAndNoData(t *testing.T) {
	r := sampleReport()
	r.SolveFound = false
	out := FormatFundBlock(r, -10)
	assert.Contains(t, out, "即使明日 -10.0%")
	assert.Contains(t, out, "暂时安全")

	// too short for an RSI: the solver never searched, so nothing is "safe"
	short := model.PriceSeries{Code: "012363"}
	for i, v := range []float64{1, 1.01, 0.99, 1.02, 1.0} {
		short.Points = append(short.Points, model.PricePoint{Date: asOf.AddDate(0, 0, i), Value: v})
	}
	r = analysis.NewAnalyzer(nil, analysis.DefaultOptions()).Evaluate(r.Fund, short)
	require.False(t, r.SolveFound)
	out = FormatFundBlock(r, -10)
	assert.Contains(t, out, "NO_DATA")
	assert.Contains(t, out, "历史数据不足，暂无法推算")
	assert.NotContains(t, out, "暂时安全")

	r = &analysis.FundReport{Fund: model.Fund{Code: "1", Name: "A&B"}, NoData: true}
	out = FormatFundBlock(r, -10)
	assert.Contains(t, out, "A&amp;B")
	assert.Contains(t, out, "暂无历史净值")

	r.Err = errors.New("timeout")
	assert.Contains(t, FormatFundBlock(r, -10), "数据获取失败: timeout")
}

func TestFormatDailyReport(t *testing.T) {
	sell := sampleReport()
	sell.Signal = model.Signal{Category: model.SignalTakeProfit, ColorHint: "red"}
	ranks := []analysis.MomentumRank{{Fund: model.Fund{Name: "国泰证券"}, Mom5: 1, Mom20: 2, Score: 3}}

	out := FormatDailyReport([]*analysis.FundReport{sampleReport(), sell}, ranks, -10, asOf)
	assert.Contains(t, out, "FundSentinel 日报</b> | 2025-03-14")
	assert.Contains(t, out, "共 2 只 | 买入信号 1 | 减仓信号 1")
	assert.Contains(t, out, "1. 国泰证券 3.00%")
}

func TestFormatIntradayReport(t *testing.T) {
	reports := []*analysis.IntradayReport{
		{
			Fund:     model.Fund{Code: "013275", Name: "富国煤炭"},
			Estimate: model.Estimate{GrowthPct: -3.25},
			RSI:      41.23,
			Signal:   model.Signal{Category: model.SignalHold, ColorHint: "black"},
		},
		{Fund: model.Fund{Code: "x", Name: "坏"}, RSI: math.NaN(), Err: errors.New("down")},
	}
	out := FormatIntradayReport(reports, asOf.Add(14*time.Hour+50*time.Minute))
	assert.Contains(t, out, "2025-03-14 14:50")
	assert.Contains(t, out, "富国煤炭</b> 估算 -3.25% | RSI 41.2")
	assert.Contains(t, out, "坏 (x): 估值获取失败")
}

func TestFormatBacktest(t *testing.T) {
	res := model.BacktestResult{
		InitialCash: 1000, FinalValue: 1100, StrategyReturn: 0.1, BuyAndHoldReturn: -0.02, MaxDrawdown: 0.0512,
		Values: []model.ValuePoint{{Date: asOf, Value: 1000}, {Date: asOf.AddDate(0, 0, 1), Value: 1100}},
		Trades: []model.Trade{
			{Date: asOf, Side: model.SideBuy, Price: 1, RSI: 25},
			{Date: asOf.AddDate(0, 0, 1), Side: model.SideSell, Price: 1.1, RSI: 75},
		},
	}
	out := FormatBacktest(model.Fund{Code: "012363", Name: "国泰证券"}, res, 1)
	assert.Contains(t, out, "策略收益: +10.00%")
	assert.Contains(t, out, "持有收益: -2.00%")
	assert.Contains(t, out, "最大回撤: 5.12%")
	assert.Contains(t, out, "交易次数: 2")
	assert.Contains(t, out, "卖出 @ 1.1000")
	assert.NotContains(t, out, "买入 @")

	assert.Contains(t, FormatBacktest(model.Fund{}, model.BacktestResult{}, 5), "数据不足")
}
