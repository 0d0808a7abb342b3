package recorder

import (
	"context"
	"time"

	"FundSentinel/internal/model"
)

// AnalysisRecord is one per-fund row of an analysis run.
type AnalysisRecord struct {
	FundCode       string
	FundName       string
	Category       model.AssetCategory
	AsOf           time.Time
	Price          float64
	RSI            float64
	SMA            float64
	Upper          float64
	Lower          float64
	Signal         model.SignalCategory
	Rationale      string
	SolveFound     bool
	SolveMovePct   float64
	StrategyReturn float64
	BuyAndHold     float64
}

// Recorder is the persistence store: NAV history plus analysis and backtest history.
type Recorder interface {
	ReplaceHistory(ctx context.Context, f model.Fund, series model.PriceSeries) error
	LoadSeries(ctx context.Context, code string, limit int) (model.PriceSeries, error)
	RecordAnalysis(ctx context.Context, rec *AnalysisRecord) error
	RecordBacktest(ctx context.Context, res *model.BacktestResult) error
	Close() error
}
