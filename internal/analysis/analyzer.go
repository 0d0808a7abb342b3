package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"FundSentinel/internal/backtest"
	"FundSentinel/internal/calculator"
	"FundSentinel/internal/collector"
	"FundSentinel/internal/model"
	"FundSentinel/internal/recorder"
	"FundSentinel/internal/strategy"
)

// ErrNoData is returned when an operation needs history that the store does not have.
var ErrNoData = errors.New("no price history")

// SeriesSource supplies the price history of a fund.
type SeriesSource interface {
	LoadSeries(ctx context.Context, code string, limit int) (model.PriceSeries, error)
}

// FetcherSource reads history straight from a network fetcher instead of the store.
type FetcherSource struct {
	Fetcher collector.Fetcher
}

func (s FetcherSource) LoadSeries(ctx context.Context, code string, limit int) (model.PriceSeries, error) {
	series, err := s.Fetcher.FetchHistory(ctx, code)
	if err != nil {
		return model.PriceSeries{}, err
	}
	return series.Tail(limit), nil
}

// Options configures one analysis pass.
type Options struct {
	RSIWindow       int
	BollingerWindow int
	HistoryLimit    int // rows loaded per fund, 0 = all
	TargetRSI       float64
	Solve           strategy.SolveOptions
	Thresholds      strategy.Thresholds
	Backtest        backtest.Config
	Concurrency     int
}

// DefaultOptions mirrors the daily report: RSI(14), Bollinger(20), target RSI 30.
func DefaultOptions() Options {
	return Options{
		RSIWindow:       calculator.DefaultRSIWindow,
		BollingerWindow: calculator.DefaultBollingerWindow,
		TargetRSI:       30,
		Solve:           strategy.DefaultSolveOptions(),
		Thresholds:      strategy.DefaultThresholds(),
		Backtest:        backtest.DefaultConfig(),
		Concurrency:     4,
	}
}

// FundReport is the outcome of analysing one fund.
type FundReport struct {
	Fund       model.Fund           `json:"fund"`
	AsOf       time.Time            `json:"as_of"`
	Latest     model.IndicatorRow   `json:"latest"`
	Signal     model.Signal         `json:"signal"`
	Solve      strategy.SolveResult `json:"solve"`
	SolveFound bool                 `json:"solve_found"`
	Backtest   model.BacktestResult `json:"-"`
	NoData     bool                 `json:"no_data"`
	Err        error                `json:"-"`

	Series model.PriceSeries    `json:"-"`
	Frame  model.IndicatorFrame `json:"-"`
}

// Record converts the report into a persistence row.
func (r *FundReport) Record() *recorder.AnalysisRecord {
	return &recorder.AnalysisRecord{
		FundCode:       r.Fund.Code,
		FundName:       r.Fund.Name,
		Category:       r.Fund.Category,
		AsOf:           r.AsOf,
		Price:          r.Latest.Value,
		RSI:            r.Latest.RSI,
		SMA:            r.Latest.SMA,
		Upper:          r.Latest.Upper,
		Lower:          r.Latest.Lower,
		Signal:         r.Signal.Category,
		Rationale:      r.Signal.Rationale,
		SolveFound:     r.SolveFound,
		SolveMovePct:   r.Solve.MovePct,
		StrategyReturn: r.Backtest.StrategyReturn,
		BuyAndHold:     r.Backtest.BuyAndHoldReturn,
	}
}

// Analyzer runs the indicator, classifier, solver and backtest steps per fund.
type Analyzer struct {
	source SeriesSource
	opts   Options
}

func NewAnalyzer(source SeriesSource, opts Options) *Analyzer {
	return &Analyzer{source: source, opts: opts}
}

func (a *Analyzer) Options() Options { return a.opts }

// AnalyzeFund loads the history of f and evaluates it. A fund without history
// yields a report with NoData set, not an error.
func (a *Analyzer) AnalyzeFund(ctx context.Context, f model.Fund) (*FundReport, error) {
	series, err := a.source.LoadSeries(ctx, f.Code, a.opts.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.Code, err)
	}
	return a.Evaluate(f, series), nil
}

// Evaluate runs the pure part of the pipeline on an already loaded series.
func (a *Analyzer) Evaluate(f model.Fund, series model.PriceSeries) *FundReport {
	rep := &FundReport{Fund: f, Series: series}
	frame := calculator.ComputeIndicators(series, a.opts.RSIWindow, a.opts.BollingerWindow)
	rep.Frame = frame

	latest, ok := frame.Latest()
	if !ok {
		rep.NoData = true
		rep.Signal = strategy.ClassifyFrame(f.Category, frame, a.opts.Thresholds)
		return rep
	}
	rep.AsOf = latest.Date
	rep.Latest = latest
	rep.Signal = strategy.ClassifyFrame(f.Category, frame, a.opts.Thresholds)

	solve := a.opts.Solve
	solve.RSIWindow = a.opts.RSIWindow
	rep.Solve, rep.SolveFound = strategy.SolveNextMoveForRSI(series, a.opts.TargetRSI, solve)

	bt := a.opts.Backtest
	bt.RSIWindow = a.opts.RSIWindow
	rep.Backtest = backtest.Simulate(frame, bt)
	rep.Backtest.Code = f.Code
	return rep
}

// AnalyzeAll analyses every fund concurrently. The returned slice keeps the
// order of funds; a failing fund carries its error in Err and does not stop the batch.
func (a *Analyzer) AnalyzeAll(ctx context.Context, funds []model.Fund) []*FundReport {
	reports := make([]*FundReport, len(funds))

	g, gctx := errgroup.WithContext(ctx)
	if a.opts.Concurrency > 0 {
		g.SetLimit(a.opts.Concurrency)
	}
	for i, f := range funds {
		g.Go(func() error {
			rep, err := a.AnalyzeFund(gctx, f)
			if err != nil {
				log.Printf("[ERROR] analyse %s (%s): %v", f.Name, f.Code, err)
				rep = &FundReport{Fund: f, NoData: true, Err: err}
			}
			reports[i] = rep
			return nil
		})
	}
	_ = g.Wait()
	return reports
}
