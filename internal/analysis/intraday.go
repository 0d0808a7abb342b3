package analysis

import (
	"context"
	"fmt"
	"log"
	"math"

	"golang.org/x/sync/errgroup"

	"FundSentinel/internal/calculator"
	"FundSentinel/internal/collector"
	"FundSentinel/internal/model"
	"FundSentinel/internal/strategy"
)

// IntradayReport classifies a fund against its live estimate before the close.
type IntradayReport struct {
	Fund     model.Fund     `json:"fund"`
	Estimate model.Estimate `json:"estimate"`
	RSI      float64        `json:"rsi"`
	Signal   model.Signal   `json:"signal"`
	Err      error          `json:"-"`
}

// AnalyzeIntraday extends the stored history by the estimated price and
// classifies the result, using the estimated growth as the intraday move.
// An estimate dated on the last stored day replaces that day; an undated
// estimate is appended after it.
func (a *Analyzer) AnalyzeIntraday(ctx context.Context, f model.Fund, est model.Estimate) (*IntradayReport, error) {
	series, err := a.source.LoadSeries(ctx, f.Code, a.opts.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.Code, err)
	}
	last, ok := series.Last()
	if !ok {
		return nil, fmt.Errorf("%s: %w", f.Code, ErrNoData)
	}

	price := est.Value
	if price <= 0 {
		price = last.Value * (1 + est.GrowthPct/100)
	}
	// An estimate without a timestamp is taken as the next session.
	day := last.Date.AddDate(0, 0, 1)
	if !est.At.IsZero() {
		day = model.Day(est.At)
	}
	if !day.After(last.Date) {
		series = model.PriceSeries{Code: series.Code, Points: series.Points[:series.Len()-1]}
		day = last.Date
	}
	series = series.Append(model.PricePoint{Date: day, Value: price})

	frame := calculator.ComputeIndicators(series, a.opts.RSIWindow, a.opts.BollingerWindow)
	in, _ := strategy.InputFromFrame(frame)
	in.IntradayMove = est.GrowthPct

	return &IntradayReport{
		Fund:     f,
		Estimate: est,
		RSI:      in.RSI,
		Signal:   strategy.Classify(f.Category, in, a.opts.Thresholds),
	}, nil
}

// EstimateAll fetches live estimates and classifies every fund concurrently.
func (a *Analyzer) EstimateAll(ctx context.Context, funds []model.Fund, est collector.EstimateFetcher) []*IntradayReport {
	reports := make([]*IntradayReport, len(funds))

	g, gctx := errgroup.WithContext(ctx)
	if a.opts.Concurrency > 0 {
		g.SetLimit(a.opts.Concurrency)
	}
	for i, f := range funds {
		g.Go(func() error {
			e, err := est.FetchEstimate(gctx, f.Code)
			var rep *IntradayReport
			if err == nil {
				rep, err = a.AnalyzeIntraday(gctx, f, e)
			}
			if err != nil {
				log.Printf("[WARN] intraday %s (%s): %v", f.Name, f.Code, err)
				rep = &IntradayReport{Fund: f, RSI: math.NaN(), Err: err}
			}
			reports[i] = rep
			return nil
		})
	}
	_ = g.Wait()
	return reports
}
