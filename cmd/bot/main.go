package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"FundSentinel/internal/analysis"
	"FundSentinel/internal/collector"
	"FundSentinel/internal/config"
	"FundSentinel/internal/dashboard"
	"FundSentinel/internal/fund"
	"FundSentinel/internal/notifier"
	"FundSentinel/internal/recorder"
	"FundSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] FundSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	funds, err := fund.NewRegistry(cfg.Funds, cfg.KeywordRules)
	if err != nil {
		log.Fatalf("[FATAL] build watchlist: %v", err)
	}
	log.Printf("[INFO] watching %d funds", len(funds.All()))

	// Init fetchers
	var (
		fetcher   collector.Fetcher
		estimator collector.EstimateFetcher
	)
	if cfg.DataSource.Mock {
		mock := &collector.MockFetcher{Days: 250, Base: 1.0}
		fetcher, estimator = mock, mock
	} else {
		fetcher = collector.NewEastmoneyFetcher(cfg.DataSource.EastmoneyURL, cfg.Proxy)
		estimator = collector.NewFundGzFetcher(cfg.DataSource.FundGzURL, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init recorder
	var rec recorder.Recorder
	var history dashboard.SignalHistory
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Printf("[WARN] create data dir: %v", err)
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			history = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	col := collector.NewCollector(fetcher, rec, time.Duration(cfg.DataSource.PauseMillis)*time.Millisecond)

	// Without a database the analyzer reads straight from the network.
	var source analysis.SeriesSource = rec
	if _, noop := rec.(*recorder.NoopRecorder); noop {
		source = analysis.FetcherSource{Fetcher: fetcher}
		col = nil
	}
	an := analysis.NewAnalyzer(source, cfg.AnalysisOptions())

	// Init sinks
	var (
		sinks    notifier.MultiSink
		telegram *notifier.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" {
		telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sinks = append(sinks, telegram)
	}
	if cfg.PushPlus.Token != "" {
		sinks = append(sinks, notifier.NewPushPlusNotifier(cfg.PushPlus.Token))
	}
	var sink notifier.Sink = sinks
	if len(sinks) == 0 {
		log.Println("[WARN] no notification sink configured, reports go to the log")
		sink = notifier.LogSink{}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, estimator, an, funds, sink, rec)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.IntradayCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if telegram != nil {
		go telegram.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Dashboard
	if cfg.Dashboard.Addr != "" {
		dash, err := dashboard.NewServer(dashboard.Config{Addr: cfg.Dashboard.Addr, Funds: funds, Analyzer: an, History: history})
		if err != nil {
			log.Fatalf("[FATAL] init dashboard: %v", err)
		}
		go func() {
			if err := dash.Run(ctx); err != nil {
				log.Printf("[ERROR] dashboard: %v", err)
			}
		}()
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing daily task now")
		go sched.RunDailyNow()
	}

	log.Println("[INFO] FundSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] FundSentinel stopped")
}
