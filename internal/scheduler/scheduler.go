package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"FundSentinel/internal/analysis"
	"FundSentinel/internal/collector"
	"FundSentinel/internal/fund"
	"FundSentinel/internal/model"
	"FundSentinel/internal/notifier"
	"FundSentinel/internal/recorder"
	"FundSentinel/internal/strategy"

	"github.com/robfig/cron/v3"
)

const (
	dailyTitle    = "FundSentinel 日报"
	intradayTitle = "FundSentinel 盘中估值"
	maxTrades     = 10
)

// Scheduler manages the cron jobs and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector // nil skips the sync step
	Estimator collector.EstimateFetcher
	Analyzer  *analysis.Analyzer
	Funds     *fund.Registry
	Sink      notifier.Sink
	Recorder  recorder.Recorder
	Ctx       context.Context

	Retries   int
	RetryBase time.Duration
	Now       func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, est collector.EstimateFetcher,
	an *analysis.Analyzer, funds *fund.Registry, sink notifier.Sink, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Estimator: est,
		Analyzer:  an,
		Funds:     funds,
		Sink:      sink,
		Recorder:  rec,
		Ctx:       ctx,
		Retries:   3,
		RetryBase: time.Second,
		Now:       time.Now,
	}
}

// RegisterAll registers the after-close daily job and the pre-close intraday job.
// An empty intraday expression disables that job.
func (s *Scheduler) RegisterAll(dailyCron, intradayCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if intradayCron != "" && s.Estimator != nil {
		if _, err := s.Cron.AddFunc(intradayCron, s.intradayTask); err != nil {
			return fmt.Errorf("register intraday task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyNow executes the daily job immediately (for RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

// RunIntradayNow executes the intraday job immediately.
func (s *Scheduler) RunIntradayNow() {
	s.intradayTask()
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily task")
	funds := s.Funds.All()

	if s.Collector != nil {
		synced, errs := s.Collector.SyncAll(s.Ctx, funds)
		log.Printf("[INFO] synced %d/%d funds", synced, len(funds))
		if synced == 0 && len(errs) > 0 {
			s.trySend("❌ 数据同步失败", fmt.Sprintf("全部 %d 只基金同步失败: %v", len(funds), errors.Join(errs...)))
			return
		}
	}

	reports := s.Analyzer.AnalyzeAll(s.Ctx, funds)
	s.trySend(dailyTitle, s.dailyReport(reports))

	for _, r := range reports {
		if r.NoData {
			continue
		}
		if err := s.Recorder.RecordAnalysis(s.Ctx, r.Record()); err != nil {
			log.Printf("[ERROR] record analysis %s: %v", r.Fund.Code, err)
		}
		if !r.Backtest.Degenerate() {
			if err := s.Recorder.RecordBacktest(s.Ctx, &r.Backtest); err != nil {
				log.Printf("[ERROR] record backtest %s: %v", r.Fund.Code, err)
			}
		}
	}
}

func (s *Scheduler) dailyReport(reports []*analysis.FundReport) string {
	ranks := analysis.RankMomentum(reports)
	return notifier.FormatDailyReport(reports, ranks, s.Analyzer.Options().Solve.MaxDownPct, s.Now())
}

func (s *Scheduler) intradayTask() {
	log.Println("[INFO] running intraday task")
	reports := s.Analyzer.EstimateAll(s.Ctx, s.Funds.All(), s.Estimator)
	s.trySend(intradayTitle, notifier.FormatIntradayReport(reports, s.Now()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd, args := notifier.ParseCommand(command)
	switch cmd {
	case "/report", "日报":
		return s.dailyReport(s.Analyzer.AnalyzeAll(ctx, s.Funds.All()))
	case "/intraday", "估值":
		if s.Estimator == nil {
			return "未配置实时估值数据源"
		}
		return notifier.FormatIntradayReport(s.Analyzer.EstimateAll(ctx, s.Funds.All(), s.Estimator), s.Now())
	case "/funds", "基金":
		return s.fundList()
	case "/backtest", "回测":
		return s.backtestCommand(ctx, args)
	case "/solve", "预测":
		return s.solveCommand(ctx, args)
	default:
		return "可用命令:\n• /report 日报\n• /intraday 盘中估值\n• /funds 基金列表\n• /backtest &lt;代码&gt;\n• /solve &lt;代码&gt; [目标RSI]"
	}
}

func (s *Scheduler) fundList() string {
	var b strings.Builder
	b.WriteString("📋 <b>关注基金</b>\n")
	groups := s.Funds.ByCategory()
	cats := make([]model.AssetCategory, 0, len(groups))
	for c := range groups {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		b.WriteString(fmt.Sprintf("\n<b>[%s]</b>\n", c))
		for _, f := range groups[c] {
			b.WriteString(fmt.Sprintf("%s %s\n", f.Code, html.EscapeString(f.Name)))
		}
	}
	return b.String()
}

func (s *Scheduler) lookup(args []string) (model.Fund, string) {
	if len(args) == 0 {
		return model.Fund{}, "请提供基金代码，例如 /backtest 012363"
	}
	f, err := s.Funds.Get(args[0])
	if err != nil {
		return model.Fund{}, fmt.Sprintf("未知基金: %s", args[0])
	}
	return f, ""
}

func (s *Scheduler) backtestCommand(ctx context.Context, args []string) string {
	f, msg := s.lookup(args)
	if msg != "" {
		return msg
	}
	rep, err := s.Analyzer.AnalyzeFund(ctx, f)
	if err != nil {
		return fmt.Sprintf("❌ 回测失败: %v", err)
	}
	if !rep.Backtest.Degenerate() {
		if err := s.Recorder.RecordBacktest(ctx, &rep.Backtest); err != nil {
			log.Printf("[ERROR] record backtest %s: %v", f.Code, err)
		}
	}
	return notifier.FormatBacktest(f, rep.Backtest, maxTrades)
}

func (s *Scheduler) solveCommand(ctx context.Context, args []string) string {
	f, msg := s.lookup(args)
	if msg != "" {
		return msg
	}
	opts := s.Analyzer.Options()
	target := opts.TargetRSI
	if len(args) > 1 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil || v <= 0 || v >= 100 {
			return fmt.Sprintf("目标 RSI 无效: %s", args[1])
		}
		target = v
	}
	rep, err := s.Analyzer.AnalyzeFund(ctx, f)
	if err != nil {
		return fmt.Sprintf("❌ 计算失败: %v", err)
	}
	if rep.NoData {
		return fmt.Sprintf("%s (%s): 暂无历史净值", f.Name, f.Code)
	}
	res, found := rep.Solve, rep.SolveFound
	if target != opts.TargetRSI {
		solve := opts.Solve
		solve.RSIWindow = opts.RSIWindow
		res, found = strategy.SolveNextMoveForRSI(rep.Series, target, solve)
	}
	return notifier.FormatSolve(f, res, found, opts.Solve.MaxDownPct)
}

func (s *Scheduler) trySend(title, text string) {
	if err := notifier.SendWithRetry(s.Ctx, s.Sink, title, text, s.Retries, s.RetryBase); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
