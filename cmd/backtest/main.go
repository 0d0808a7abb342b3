package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"FundSentinel/internal/analysis"
	"FundSentinel/internal/collector"
	"FundSentinel/internal/config"
	"FundSentinel/internal/dashboard"
	"FundSentinel/internal/fund"
	"FundSentinel/internal/model"
	"FundSentinel/internal/recorder"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		cfgPath = flag.String("config", "configs/config.yaml", "config file")
		code    = flag.String("code", "012363", "fund code")
		source  = flag.String("source", "network", "price source: network, store or mock")
		buy     = flag.Float64("buy", 0, "buy below this RSI (0 = config)")
		sell    = flag.Float64("sell", 0, "sell above this RSI (0 = config)")
		cash    = flag.Float64("cash", 0, "initial cash (0 = config)")
		target  = flag.Float64("target", 0, "target RSI for the solver (0 = config)")
		days    = flag.Int("days", 0, "use only the last N observations (0 = all)")
		asJSON  = flag.Bool("json", false, "print the result as JSON")
		chart   = flag.String("chart", "", "write an HTML chart to this file")
		record  = flag.Bool("record", false, "store the run in the sqlite database")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	opts := cfg.AnalysisOptions()
	opts.HistoryLimit = *days
	if *buy > 0 {
		opts.Backtest.BuyRSI = *buy
	}
	if *sell > 0 {
		opts.Backtest.SellRSI = *sell
	}
	if *cash > 0 {
		opts.Backtest.InitialCash = *cash
	}
	if *target > 0 {
		opts.TargetRSI = *target
	}
	if err := opts.Backtest.Validate(); err != nil {
		log.Fatalf("[FATAL] invalid backtest parameters: %v", err)
	}

	f := model.Fund{Code: *code, Name: *code, Category: model.CategoryDefault}
	if reg, err := fund.NewRegistry(cfg.Funds, cfg.KeywordRules); err == nil {
		if known, err := reg.Get(*code); err == nil {
			f = known
		}
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if *source == "store" || *record {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("[FATAL] open sqlite: %v", err)
		}
		defer sr.Close()
		rec = sr
	}

	var src analysis.SeriesSource
	switch *source {
	case "store":
		src = rec
	case "mock":
		src = analysis.FetcherSource{Fetcher: &collector.MockFetcher{Days: 250, Base: 1.0}}
	case "network":
		src = analysis.FetcherSource{Fetcher: collector.NewEastmoneyFetcher(cfg.DataSource.EastmoneyURL, cfg.Proxy)}
	default:
		log.Fatalf("[FATAL] unknown source %q", *source)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rep, err := analysis.NewAnalyzer(src, opts).AnalyzeFund(ctx, f)
	if err != nil {
		log.Fatalf("[FATAL] analyse %s: %v", f.Code, err)
	}
	if rep.NoData {
		log.Fatalf("[FATAL] %s: %v", f.Code, analysis.ErrNoData)
	}

	if *record {
		if err := rec.RecordBacktest(ctx, &rep.Backtest); err != nil {
			log.Printf("[ERROR] record backtest: %v", err)
		}
	}
	if *chart != "" {
		if err := writeChart(*chart, rep, opts.Backtest.BuyRSI, opts.Backtest.SellRSI); err != nil {
			log.Printf("[ERROR] write chart: %v", err)
		} else {
			log.Printf("[INFO] chart written to %s", *chart)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{
			"fund":        rep.Fund,
			"signal":      rep.Signal,
			"solve":       rep.Solve,
			"solve_found": rep.SolveFound,
			"backtest":    rep.Backtest,
		}); err != nil {
			log.Fatalf("[FATAL] encode: %v", err)
		}
		return
	}
	printReport(rep, opts)
}

func writeChart(path string, rep *analysis.FundReport, buy, sell float64) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return dashboard.RenderChart(out, rep.Fund, rep.Frame, buy, sell)
}

func printReport(rep *analysis.FundReport, opts analysis.Options) {
	bt := rep.Backtest
	l := rep.Latest
	fmt.Printf("%s (%s)  as of %s\n", rep.Fund.Name, rep.Fund.Code, rep.AsOf.Format("2006-01-02"))
	fmt.Printf("NAV %.4f  RSI %.2f  bands %.4f / %.4f / %.4f\n", l.Value, l.RSI, l.Lower, l.SMA, l.Upper)
	fmt.Printf("signal   %s  %s\n", rep.Signal.Category, rep.Signal.Rationale)
	if rep.SolveFound {
		fmt.Printf("solver   next move %+.1f%% -> %.4f brings RSI to %.2f (target %.0f)\n",
			rep.Solve.MovePct, rep.Solve.HypotheticalPrice, rep.Solve.RSI, opts.TargetRSI)
	} else {
		fmt.Printf("solver   RSI stays above %.0f even at %.1f%%\n", opts.TargetRSI, opts.Solve.MaxDownPct)
	}
	if bt.Degenerate() {
		fmt.Println("backtest not enough data")
		return
	}
	fmt.Printf("backtest buy<%.0f sell>%.0f  %.2f -> %.2f\n", opts.Backtest.BuyRSI, opts.Backtest.SellRSI, bt.InitialCash, bt.FinalValue)
	fmt.Printf("         strategy %+.2f%%  buy&hold %+.2f%%  max drawdown %.2f%%  trades %d\n",
		bt.StrategyReturn*100, bt.BuyAndHoldReturn*100, bt.MaxDrawdown*100, len(bt.Trades))
	for _, t := range bt.Trades {
		fmt.Printf("         %s %-4s %.4f  RSI %.1f\n", t.Date.Format("2006-01-02"), t.Side, t.Price, t.RSI)
	}
}
