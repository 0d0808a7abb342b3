package strategy

import (
	"fmt"

	"FundSentinel/internal/model"
)

const (
	colorBuy     = "green"
	colorSell    = "red"
	colorHold    = "black"
	colorLongRun = "blue"
)

// Thresholds holds the per-category trigger levels of the rule tables.
type Thresholds struct {
	BrokerageLowRSI  float64 `yaml:"brokerage_low_rsi"`
	BrokerageHighRSI float64 `yaml:"brokerage_high_rsi"`
	BrokerageDipPct  float64 `yaml:"brokerage_dip_pct"`

	CommodityOversoldRSI float64 `yaml:"commodity_oversold_rsi"`

	USIndexRareRSI float64 `yaml:"us_index_rare_rsi"`

	TechOversoldRSI float64 `yaml:"tech_oversold_rsi"`
	TechOverheatRSI float64 `yaml:"tech_overheat_rsi"`

	DefaultLowRSI float64 `yaml:"default_low_rsi"`

	BandOversoldRSI float64 `yaml:"band_oversold_rsi"`
	BandOverheatRSI float64 `yaml:"band_overheat_rsi"`
}

// DefaultThresholds returns the stock rule table levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BrokerageLowRSI:      30,
		BrokerageHighRSI:     70,
		BrokerageDipPct:      -1.2,
		CommodityOversoldRSI: 30,
		USIndexRareRSI:       28,
		TechOversoldRSI:      35,
		TechOverheatRSI:      70,
		DefaultLowRSI:        30,
		BandOversoldRSI:      30,
		BandOverheatRSI:      70,
	}
}

// rule is one row of a category's decision table.
type rule struct {
	signal model.SignalCategory
	color  string
	when   func(in ClassifyInput) bool
	why    func(in ClassifyInput) string
}

func always(ClassifyInput) bool { return true }

func rsiBelow(th float64) func(ClassifyInput) bool {
	return func(in ClassifyInput) bool { return in.RSI < th }
}

func rsiAbove(th float64) func(ClassifyInput) bool {
	return func(in ClassifyInput) bool { return in.RSI > th }
}

// rulesFor returns the ordered decision table for a category; the last row always matches.
func rulesFor(category model.AssetCategory, th Thresholds) []rule {
	switch category {
	case model.CategoryBrokerage:
		return []rule{
			{model.SignalStrongBuy, colorBuy, rsiBelow(th.BrokerageLowRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 低于 %.0f，高弹性品种超卖，黄金坑", in.RSI, th.BrokerageLowRSI)
			}},
			{model.SignalTakeProfit, colorSell, rsiAbove(th.BrokerageHighRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 高于 %.0f，情绪过热，分批止盈", in.RSI, th.BrokerageHighRSI)
			}},
			{model.SignalSpeculativeBuy, colorBuy, func(in ClassifyInput) bool {
				return in.IntradayMove < th.BrokerageDipPct
			}, func(in ClassifyInput) string {
				return fmt.Sprintf("当日跌幅 %+.2f%% 超过 %.1f%%，小仓位博反弹", in.IntradayMove, th.BrokerageDipPct)
			}},
			{model.SignalHold, colorHold, always, func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 处于震荡区，持有观望", in.RSI)
			}},
		}
	case model.CategoryDefensiveCommodity:
		return []rule{
			{model.SignalOversoldBuy, colorBuy, rsiBelow(th.CommodityOversoldRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 低于 %.0f，防守品种超跌，可以补仓", in.RSI, th.CommodityOversoldRSI)
			}},
			{model.SignalHold, colorHold, always, func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f，防守仓位保持不动", in.RSI)
			}},
		}
	case model.CategoryUSIndex:
		return []rule{
			{model.SignalRareOpportunity, colorBuy, rsiBelow(th.USIndexRareRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 低于 %.0f，美股指数罕见超卖，加仓机会", in.RSI, th.USIndexRareRSI)
			}},
			{model.SignalHoldLongTerm, colorLongRun, always, func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f，长期持有，少看少动", in.RSI)
			}},
		}
	case model.CategoryHighVolTech:
		return []rule{
			{model.SignalOversoldBuy, colorBuy, rsiBelow(th.TechOversoldRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 低于 %.0f，科技赛道超卖，分批买入", in.RSI, th.TechOversoldRSI)
			}},
			{model.SignalHighRiskReduce, colorSell, rsiAbove(th.TechOverheatRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 高于 %.0f，高波动品种过热，降低仓位", in.RSI, th.TechOverheatRSI)
			}},
			{model.SignalNeutralWatch, colorHold, always, func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f，中性观察", in.RSI)
			}},
		}
	case model.CategoryBandWatch:
		return []rule{
			{model.SignalExtremeOversold, colorBuy, rsiBelow(th.BandOversoldRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 极度超卖", in.RSI)
			}},
			{model.SignalBrokeSupport, colorBuy, func(in ClassifyInput) bool {
				return in.DistanceToLower < 0
			}, func(in ClassifyInput) string {
				return fmt.Sprintf("跌破布林下轨 %.2f%%，分批抄底", in.DistanceToLower)
			}},
			{model.SignalOverheated, colorSell, rsiAbove(th.BandOverheatRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 过热，考虑止盈", in.RSI)
			}},
			{model.SignalWatch, colorHold, always, func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f，距下轨 %.2f%%，震荡区多看少动", in.RSI, in.DistanceToLower)
			}},
		}
	default:
		return []rule{
			{model.SignalLowRSIBuy, colorBuy, rsiBelow(th.DefaultLowRSI), func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f 低于 %.0f，低位可买", in.RSI, th.DefaultLowRSI)
			}},
			{model.SignalHold, colorHold, always, func(in ClassifyInput) string {
				return fmt.Sprintf("RSI=%.1f，持有", in.RSI)
			}},
		}
	}
}
