package recorder

import (
	"context"

	"FundSentinel/internal/model"
)

// NoopRecorder is used when SQLite is not configured. It stores nothing and
// reports every fund as having no history.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) ReplaceHistory(context.Context, model.Fund, model.PriceSeries) error {
	return nil
}
func (n *NoopRecorder) LoadSeries(_ context.Context, code string, _ int) (model.PriceSeries, error) {
	return model.PriceSeries{Code: code}, nil
}
func (n *NoopRecorder) RecordAnalysis(context.Context, *AnalysisRecord) error       { return nil }
func (n *NoopRecorder) RecordBacktest(context.Context, *model.BacktestResult) error { return nil }
func (n *NoopRecorder) Close() error                                                { return nil }
