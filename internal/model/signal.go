package model

// SignalCategory is the discrete recommendation produced by the classifier.
type SignalCategory string

const (
	SignalStrongBuy       SignalCategory = "STRONG_BUY"
	SignalTakeProfit      SignalCategory = "TAKE_PROFIT"
	SignalSpeculativeBuy  SignalCategory = "SPECULATIVE_BUY"
	SignalOversoldBuy     SignalCategory = "OVERSOLD_BUY"
	SignalRareOpportunity SignalCategory = "RARE_OPPORTUNITY"
	SignalHoldLongTerm    SignalCategory = "HOLD_LONG_TERM"
	SignalHighRiskReduce  SignalCategory = "HIGH_RISK_REDUCE"
	SignalNeutralWatch    SignalCategory = "NEUTRAL_WATCH"
	SignalLowRSIBuy       SignalCategory = "LOW_RSI_BUY"
	SignalExtremeOversold SignalCategory = "EXTREME_OVERSOLD"
	SignalBrokeSupport    SignalCategory = "BROKE_SUPPORT"
	SignalOverheated      SignalCategory = "OVERHEATED"
	SignalWatch           SignalCategory = "WATCH"
	SignalHold            SignalCategory = "HOLD"
	SignalNoData          SignalCategory = "NO_DATA"
)

// IsBuy reports whether the category recommends adding to the position.
func (c SignalCategory) IsBuy() bool {
	switch c {
	case SignalStrongBuy, SignalSpeculativeBuy, SignalOversoldBuy,
		SignalRareOpportunity, SignalLowRSIBuy, SignalExtremeOversold, SignalBrokeSupport:
		return true
	}
	return false
}

// IsSell reports whether the category recommends reducing the position.
func (c SignalCategory) IsSell() bool {
	switch c {
	case SignalTakeProfit, SignalHighRiskReduce, SignalOverheated:
		return true
	}
	return false
}

// Signal is the classifier output for one fund.
type Signal struct {
	Category  SignalCategory `json:"category"`
	Rationale string         `json:"rationale"`
	ColorHint string         `json:"color_hint,omitempty"`
}
