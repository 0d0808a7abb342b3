package strategy

import (
	"math"

	"FundSentinel/internal/model"
)

// ClassifyInput is the indicator state the classifier looks at.
type ClassifyInput struct {
	Price           float64
	RSI             float64
	DistanceToLower float64 // percent above (+) or below (-) the lower Bollinger band
	IntradayMove    float64 // percent change of the latest point; NaN when unknown
}

// DistanceToLower returns (price-lower)/lower*100. When the band is undefined
// the distance is 0, which never counts as a break of support.
func DistanceToLower(price, lower float64) float64 {
	if math.IsNaN(lower) || lower == 0 {
		return 0
	}
	return (price - lower) / lower * 100
}

// InputFromFrame builds the classifier input from the last row of a frame.
// ok is false for an empty frame.
func InputFromFrame(frame model.IndicatorFrame) (ClassifyInput, bool) {
	last, ok := frame.Latest()
	if !ok {
		return ClassifyInput{}, false
	}
	in := ClassifyInput{
		Price:           last.Value,
		RSI:             last.RSI,
		DistanceToLower: DistanceToLower(last.Value, last.Lower),
		IntradayMove:    math.NaN(),
	}
	if n := frame.Len(); n >= 2 && frame.Values[n-2] != 0 {
		prev := frame.Values[n-2]
		in.IntradayMove = (last.Value - prev) / prev * 100
	}
	return in, true
}

// Classify maps the indicator state of one fund to a recommendation using the
// category's ordered rule table. The first matching rule wins.
func Classify(category model.AssetCategory, in ClassifyInput, th Thresholds) model.Signal {
	if math.IsNaN(in.RSI) {
		return model.Signal{
			Category:  model.SignalNoData,
			Rationale: "历史数据不足，RSI 尚未形成",
			ColorHint: colorHold,
		}
	}
	for _, r := range rulesFor(category, th) {
		if r.when(in) {
			return model.Signal{Category: r.signal, Rationale: r.why(in), ColorHint: r.color}
		}
	}
	// unreachable: every table ends with an always-matching row
	return model.Signal{Category: model.SignalHold, ColorHint: colorHold}
}

// ClassifyFrame classifies the latest row of a frame. An empty frame yields NO_DATA.
func ClassifyFrame(category model.AssetCategory, frame model.IndicatorFrame, th Thresholds) model.Signal {
	in, ok := InputFromFrame(frame)
	if !ok {
		in.RSI = math.NaN()
	}
	return Classify(category, in, th)
}
