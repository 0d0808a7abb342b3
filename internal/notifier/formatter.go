package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"FundSentinel/internal/analysis"
	"FundSentinel/internal/model"
	"FundSentinel/internal/strategy"
)

const dateLayout = "2006-01-02"

var signalIcons = map[string]string{
	"green": "🟢",
	"red":   "🔴",
	"blue":  "🔵",
	"black": "⚪",
}

func signalIcon(s model.Signal) string {
	if icon, ok := signalIcons[s.ColorHint]; ok {
		return icon
	}
	return "⚪"
}

// num formats v with prec decimals, or "--" when undefined.
func num(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "--"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

func pct(fraction float64) string {
	if math.IsNaN(fraction) {
		return "--"
	}
	return fmt.Sprintf("%+.2f%%", fraction*100)
}

// FormatFundBlock renders the daily section of one fund. floorPct is the most
// bearish move the solver tried, used when no move reaches the target.
func FormatFundBlock(r *analysis.FundReport, floorPct float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b> (%s)\n", html.EscapeString(r.Fund.Name), r.Fund.Code))

	if r.Err != nil {
		b.WriteString(fmt.Sprintf("⚠️ 数据获取失败: %s\n", html.EscapeString(r.Err.Error())))
		return b.String()
	}
	if r.NoData {
		b.WriteString("⚠️ 暂无历史净值\n")
		return b.String()
	}

	l := r.Latest
	b.WriteString(fmt.Sprintf("📅 %s | 净值 %s\n", r.AsOf.Format(dateLayout), num(l.Value, 4)))
	b.WriteString(fmt.Sprintf("RSI: %s | 布林 %s / %s / %s\n", num(l.RSI, 1), num(l.Lower, 4), num(l.SMA, 4), num(l.Upper, 4)))
	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", signalIcon(r.Signal), r.Signal.Category, html.EscapeString(r.Signal.Rationale)))

	if !r.Backtest.Degenerate() {
		mark := ""
		if r.Backtest.BeatBenchmark() {
			mark = " ✅"
		}
		b.WriteString(fmt.Sprintf("回测: 策略 %s vs 持有 %s%s\n", pct(r.Backtest.StrategyReturn), pct(r.Backtest.BuyAndHoldReturn), mark))
	}
	b.WriteString(formatSolveLine(r.Solve, r.SolveFound, floorPct))
	return b.String()
}

func formatSolveLine(res strategy.SolveResult, found bool, floorPct float64) string {
	if !found && res.InsufficientData {
		return "⏳ 历史数据不足，暂无法推算 RSI 触发价\n"
	}
	if !found {
		return fmt.Sprintf("🛡 即使明日 %.1f%%，RSI 仍高于 %.0f，暂时安全\n", floorPct, res.TargetRSI)
	}
	if res.MovePct >= 0 {
		return fmt.Sprintf("🎯 明日 %+.1f%% 即触及 RSI %.0f (价格 %s)\n", res.MovePct, res.TargetRSI, num(res.HypotheticalPrice, 4))
	}
	return fmt.Sprintf("🎯 明日再跌 %.1f%% 至 %s，RSI 将降至 %.0f 以下\n", -res.MovePct, num(res.HypotheticalPrice, 4), res.TargetRSI)
}

// FormatDailyReport renders the after-close report of all funds plus the
// momentum ranking.
func FormatDailyReport(reports []*analysis.FundReport, ranks []analysis.MomentumRank, floorPct float64, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>FundSentinel 日报</b> | %s\n\n", now.Format(dateLayout)))

	buys, sells := 0, 0
	for _, r := range reports {
		switch {
		case r.Signal.Category.IsBuy():
			buys++
		case r.Signal.Category.IsSell():
			sells++
		}
	}
	b.WriteString(fmt.Sprintf("共 %d 只 | 买入信号 %d | 减仓信号 %d\n\n", len(reports), buys, sells))

	for _, r := range reports {
		b.WriteString(FormatFundBlock(r, floorPct))
		b.WriteString("\n")
	}

	if len(ranks) > 0 {
		b.WriteString("🚀 <b>动量排行 (5日+20日)</b>\n")
		for i, rk := range ranks {
			b.WriteString(fmt.Sprintf("%d. %s %s%% (5日 %s%% | 20日 %s%%)\n",
				i+1, html.EscapeString(rk.Fund.Name), num(rk.Score, 2), num(rk.Mom5, 2), num(rk.Mom20, 2)))
		}
	}
	return b.String()
}

// FormatIntradayReport renders the pre-close estimate tactics.
func FormatIntradayReport(reports []*analysis.IntradayReport, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏰ <b>盘中估值</b> | %s\n\n", now.Format("2006-01-02 15:04")))
	for _, r := range reports {
		name := r.Fund.Name
		if name == "" {
			name = r.Estimate.Name
		}
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("⚠️ %s (%s): 估值获取失败\n", html.EscapeString(name), r.Fund.Code))
			continue
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> 估算 %+.2f%% | RSI %s\n", signalIcon(r.Signal), html.EscapeString(name), r.Estimate.GrowthPct, num(r.RSI, 1)))
		b.WriteString(fmt.Sprintf("   %s %s\n", r.Signal.Category, html.EscapeString(r.Signal.Rationale)))
	}
	return b.String()
}

// FormatBacktest renders a single backtest result. At most maxTrades recent trades are listed.
func FormatBacktest(f model.Fund, res model.BacktestResult, maxTrades int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>回测 %s</b> (%s)\n\n", html.EscapeString(f.Name), f.Code))
	if res.Degenerate() {
		b.WriteString("数据不足，无法回测\n")
		return b.String()
	}
	first, last := res.Values[0], res.Values[len(res.Values)-1]
	b.WriteString(fmt.Sprintf("区间: %s ~ %s (%d 天)\n", first.Date.Format(dateLayout), last.Date.Format(dateLayout), len(res.Values)))
	b.WriteString(fmt.Sprintf("本金: %.2f → %.2f\n", res.InitialCash, res.FinalValue))
	b.WriteString(fmt.Sprintf("策略收益: %s\n", pct(res.StrategyReturn)))
	b.WriteString(fmt.Sprintf("持有收益: %s\n", pct(res.BuyAndHoldReturn)))
	b.WriteString(fmt.Sprintf("最大回撤: %.2f%%\n", res.MaxDrawdown*100))
	b.WriteString(fmt.Sprintf("交易次数: %d\n", len(res.Trades)))

	trades := res.Trades
	if maxTrades > 0 && len(trades) > maxTrades {
		trades = trades[len(trades)-maxTrades:]
	}
	if len(trades) > 0 {
		b.WriteString("\n")
	}
	for _, t := range trades {
		side := "买入"
		if t.Side == model.SideSell {
			side = "卖出"
		}
		b.WriteString(fmt.Sprintf("%s %s @ %s (RSI %s)\n", t.Date.Format(dateLayout), side, num(t.Price, 4), num(t.RSI, 1)))
	}
	return b.String()
}

// FormatSolve renders the reply of the /solve command.
func FormatSolve(f model.Fund, res strategy.SolveResult, found bool, floorPct float64) string {
	return fmt.Sprintf("🎯 <b>%s</b> (%s)\n%s", html.EscapeString(f.Name), f.Code, formatSolveLine(res, found, floorPct))
}
