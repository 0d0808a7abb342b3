package analysis

import (
	"math"
	"sort"

	"FundSentinel/internal/calculator"
	"FundSentinel/internal/model"
)

// MomentumRank scores a fund by its short and medium term momentum.
type MomentumRank struct {
	Fund  model.Fund `json:"fund"`
	Mom5  float64    `json:"mom_5d"`
	Mom20 float64    `json:"mom_20d"`
	Score float64    `json:"score"`
}

// RankMomentum orders reports by 5-day plus 20-day percentage momentum,
// strongest first. Funds too short to score sort last.
func RankMomentum(reports []*FundReport) []MomentumRank {
	ranks := make([]MomentumRank, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		m5 := calculator.Momentum(r.Frame.Values, 5)
		m20 := calculator.Momentum(r.Frame.Values, 20)
		ranks = append(ranks, MomentumRank{Fund: r.Fund, Mom5: m5, Mom20: m20, Score: m5 + m20})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		a, b := ranks[i].Score, ranks[j].Score
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a > b
	})
	return ranks
}
