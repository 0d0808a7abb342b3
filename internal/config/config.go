package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FundSentinel/internal/analysis"
	"FundSentinel/internal/backtest"
	"FundSentinel/internal/fund"
	"FundSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	PushPlus struct {
		Token string `yaml:"token"`
	} `yaml:"pushplus"`
	DataSource struct {
		EastmoneyURL string `yaml:"eastmoney_url"`
		FundGzURL    string `yaml:"fundgz_url"`
		PauseMillis  int    `yaml:"pause_ms"`
		Mock         bool   `yaml:"mock"`
	} `yaml:"data_source"`
	Funds        []fund.Entry        `yaml:"funds"`
	KeywordRules []fund.KeywordRule  `yaml:"keyword_rules"`
	Thresholds   strategy.Thresholds `yaml:"thresholds"`
	Backtest     backtest.Config     `yaml:"backtest"`
	Analysis     struct {
		RSIWindow       int     `yaml:"rsi_window"`
		BollingerWindow int     `yaml:"bollinger_window"`
		HistoryDays     int     `yaml:"history_days"`
		TargetRSI       float64 `yaml:"target_rsi"`
		Concurrency     int     `yaml:"concurrency"`
		SolveMaxUpPct   float64 `yaml:"solve_max_up_pct"`
		SolveMaxDownPct float64 `yaml:"solve_max_down_pct"`
		SolveStepPct    float64 `yaml:"solve_step_pct"`
		SolveLookback   int     `yaml:"solve_lookback"`
	} `yaml:"analysis"`
	Schedule struct {
		DailyCron    string `yaml:"daily_cron"`
		IntradayCron string `yaml:"intraday_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Dashboard struct {
		Addr string `yaml:"addr"`
	} `yaml:"dashboard"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present) and the YAML file, then applies environment
// variable overrides and defaults. Rule tables start from their stock values so
// a partial thresholds or backtest section only overrides what it names.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	cfg := &Config{
		Thresholds: strategy.DefaultThresholds(),
		Backtest:   backtest.DefaultConfig(),
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("PUSHPLUS_TOKEN"); v != "" {
		cfg.PushPlus.Token = v
	}
	if v := os.Getenv("EASTMONEY_URL"); v != "" {
		cfg.DataSource.EastmoneyURL = v
	}
	if v := os.Getenv("FUNDGZ_URL"); v != "" {
		cfg.DataSource.FundGzURL = v
	}
	if v := os.Getenv("USE_MOCK_DATA"); v != "" {
		cfg.DataSource.Mock = v == "true" || v == "1"
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TARGET_RSI"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.TargetRSI = f
		}
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("CRON_INTRADAY"); v != "" {
		cfg.Schedule.IntradayCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.Dashboard.Addr = v
	}

	// Defaults
	if cfg.DataSource.PauseMillis == 0 {
		cfg.DataSource.PauseMillis = 1000
	}
	if len(cfg.KeywordRules) == 0 {
		cfg.KeywordRules = fund.DefaultKeywordRules
	}
	d := analysis.DefaultOptions()
	if cfg.Analysis.RSIWindow == 0 {
		cfg.Analysis.RSIWindow = d.RSIWindow
	}
	if cfg.Analysis.BollingerWindow == 0 {
		cfg.Analysis.BollingerWindow = d.BollingerWindow
	}
	if cfg.Analysis.TargetRSI == 0 {
		cfg.Analysis.TargetRSI = d.TargetRSI
	}
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = d.Concurrency
	}
	if cfg.Analysis.SolveMaxUpPct == 0 {
		cfg.Analysis.SolveMaxUpPct = d.Solve.MaxUpPct
	}
	if cfg.Analysis.SolveMaxDownPct == 0 {
		cfg.Analysis.SolveMaxDownPct = d.Solve.MaxDownPct
	}
	if cfg.Analysis.SolveStepPct == 0 {
		cfg.Analysis.SolveStepPct = d.Solve.StepPct
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 21 * * 1-5"
	}
	if cfg.Schedule.IntradayCron == "" {
		cfg.Schedule.IntradayCron = "0 50 14 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/fund_sentinel.db"
	}

	return cfg, nil
}

// AnalysisOptions assembles the analyzer settings.
func (c *Config) AnalysisOptions() analysis.Options {
	bt := c.Backtest
	bt.RSIWindow = c.Analysis.RSIWindow
	return analysis.Options{
		RSIWindow:       c.Analysis.RSIWindow,
		BollingerWindow: c.Analysis.BollingerWindow,
		HistoryLimit:    c.Analysis.HistoryDays,
		TargetRSI:       c.Analysis.TargetRSI,
		Solve: strategy.SolveOptions{
			MaxUpPct:   c.Analysis.SolveMaxUpPct,
			MaxDownPct: c.Analysis.SolveMaxDownPct,
			StepPct:    c.Analysis.SolveStepPct,
			RSIWindow:  c.Analysis.RSIWindow,
			Lookback:   c.Analysis.SolveLookback,
		},
		Thresholds:  c.Thresholds,
		Backtest:    bt,
		Concurrency: c.Analysis.Concurrency,
	}
}

// Validate checks that all required fields are set and the thresholds are consistent.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if len(c.Funds) == 0 {
		return fmt.Errorf("at least one entry in funds is required")
	}
	for i, f := range c.Funds {
		if f.Code == "" {
			return fmt.Errorf("funds[%d].code is required", i)
		}
	}
	if err := c.Backtest.Validate(); err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	th := c.Thresholds
	if th.BrokerageLowRSI >= th.BrokerageHighRSI {
		return fmt.Errorf("thresholds: brokerage_low_rsi must be below brokerage_high_rsi")
	}
	if th.TechOversoldRSI >= th.TechOverheatRSI {
		return fmt.Errorf("thresholds: tech_oversold_rsi must be below tech_overheat_rsi")
	}
	if th.BandOversoldRSI >= th.BandOverheatRSI {
		return fmt.Errorf("thresholds: band_oversold_rsi must be below band_overheat_rsi")
	}
	if c.Analysis.RSIWindow < 1 || c.Analysis.BollingerWindow < 2 {
		return fmt.Errorf("analysis: rsi_window must be >= 1 and bollinger_window >= 2")
	}
	if c.Analysis.TargetRSI <= 0 || c.Analysis.TargetRSI >= 100 {
		return fmt.Errorf("analysis.target_rsi must lie in (0, 100)")
	}
	if c.Analysis.SolveMaxDownPct >= c.Analysis.SolveMaxUpPct || c.Analysis.SolveStepPct <= 0 {
		return fmt.Errorf("analysis: solve range must satisfy max_down < max_up with a positive step")
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be positive")
	}
	return nil
}
