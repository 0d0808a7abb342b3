package dashboard

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"FundSentinel/internal/analysis"
	"FundSentinel/internal/calculator"
	"FundSentinel/internal/fund"
	"FundSentinel/internal/model"
	"FundSentinel/internal/strategy"
)

const kpiRangeDays = 60

// Server exposes the indicator frames, backtests and charts over HTTP.
type Server struct {
	addr     string
	funds    *fund.Registry
	analyzer *analysis.Analyzer
	history  SignalHistory
	router   *gin.Engine
}

// SignalHistory reports the last signal stored for a fund, or "" when none is.
type SignalHistory interface {
	LatestSignal(ctx context.Context, code string) (model.SignalCategory, error)
}

type Config struct {
	Addr     string
	Funds    *fund.Registry
	Analyzer *analysis.Analyzer
	// History is optional.
	History SignalHistory
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Funds == nil || cfg.Analyzer == nil {
		return nil, errors.New("dashboard: funds and analyzer are required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8501"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:     cfg.Addr,
		funds:    cfg.Funds,
		analyzer: cfg.Analyzer,
		history:  cfg.History,
		router:   router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	api.GET("/funds", s.handleFunds)
	api.GET("/funds/:code/indicators", s.handleIndicators)
	api.GET("/funds/:code/backtest", s.handleBacktest)
	api.GET("/ranking", s.handleRanking)
	api.GET("/compare", s.handleCompare)
	s.router.GET("/chart/:code", s.handleChart)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] dashboard listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// opt maps undefined values to JSON null.
func opt(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type fundSummary struct {
	Code       string               `json:"code"`
	Name       string               `json:"name"`
	Category   model.AssetCategory  `json:"category"`
	AsOf       string               `json:"as_of,omitempty"`
	NAV        *float64             `json:"nav"`
	RSI        *float64             `json:"rsi"`
	DistLower  *float64             `json:"dist_to_lower_pct"`
	RangeHigh  *float64             `json:"range_high"`
	RangeLow   *float64             `json:"range_low"`
	RangePos   *float64             `json:"range_position"`
	Signal     model.SignalCategory `json:"signal"`
	LastSignal model.SignalCategory `json:"last_recorded_signal,omitempty"`
	Rationale  string               `json:"rationale"`
	SolveFound bool                 `json:"solve_found"`
	SolveMove  *float64             `json:"solve_move_pct"`
	Error      string               `json:"error,omitempty"`
}

func summarize(r *analysis.FundReport) fundSummary {
	out := fundSummary{
		Code:       r.Fund.Code,
		Name:       r.Fund.Name,
		Category:   r.Fund.Category,
		Signal:     r.Signal.Category,
		Rationale:  r.Signal.Rationale,
		SolveFound: r.SolveFound,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	if r.NoData {
		return out
	}
	l := r.Latest
	out.AsOf = r.AsOf.Format("2006-01-02")
	out.NAV = opt(l.Value)
	out.RSI = opt(l.RSI)
	if !math.IsNaN(l.Lower) {
		out.DistLower = opt(strategy.DistanceToLower(l.Value, l.Lower))
	}
	if hi, lo, err := calculator.RangeHighLow(r.Frame.Values, kpiRangeDays); err == nil {
		out.RangeHigh, out.RangeLow = opt(hi), opt(lo)
		if pos, err := calculator.RangePosition(l.Value, hi, lo); err == nil {
			out.RangePos = opt(pos)
		}
	}
	if r.SolveFound {
		out.SolveMove = opt(r.Solve.MovePct)
	}
	return out
}

// withHistory fills in the previously recorded signal so a caller can spot a change.
func (s *Server) withHistory(ctx context.Context, out fundSummary) fundSummary {
	if s.history == nil {
		return out
	}
	sig, err := s.history.LatestSignal(ctx, out.Code)
	if err != nil {
		log.Printf("[WARN] dashboard: latest signal %s: %v", out.Code, err)
		return out
	}
	out.LastSignal = sig
	return out
}

func (s *Server) handleFunds(c *gin.Context) {
	reports := s.analyzer.AnalyzeAll(c.Request.Context(), s.funds.All())
	out := make([]fundSummary, 0, len(reports))
	for _, r := range reports {
		out = append(out, s.withHistory(c.Request.Context(), summarize(r)))
	}
	c.JSON(http.StatusOK, gin.H{"funds": out})
}

// report resolves :code and analyses the fund, writing the error response itself.
func (s *Server) report(c *gin.Context) (*analysis.FundReport, bool) {
	f, err := s.funds.Get(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	rep, err := s.analyzer.AnalyzeFund(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return nil, false
	}
	if rep.NoData {
		c.JSON(http.StatusNotFound, gin.H{"error": analysis.ErrNoData.Error(), "code": f.Code})
		return nil, false
	}
	return rep, true
}

type indicatorRow struct {
	Date  string   `json:"date"`
	NAV   float64  `json:"nav"`
	RSI   *float64 `json:"rsi"`
	SMA   *float64 `json:"sma"`
	Upper *float64 `json:"upper"`
	Lower *float64 `json:"lower"`
}

func (s *Server) handleIndicators(c *gin.Context) {
	days := 0
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
			return
		}
		days = n
	}
	rep, ok := s.report(c)
	if !ok {
		return
	}
	frame := rep.Frame
	start := 0
	if days > 0 && days < frame.Len() {
		start = frame.Len() - days
	}
	rows := make([]indicatorRow, 0, frame.Len()-start)
	for i := start; i < frame.Len(); i++ {
		r := frame.Row(i)
		rows = append(rows, indicatorRow{
			Date:  r.Date.Format("2006-01-02"),
			NAV:   r.Value,
			RSI:   opt(r.RSI),
			SMA:   opt(r.SMA),
			Upper: opt(r.Upper),
			Lower: opt(r.Lower),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"fund":    rep.Fund,
		"signal":  rep.Signal,
		"summary": s.withHistory(c.Request.Context(), summarize(rep)),
		"rows":    rows,
	})
}

func (s *Server) handleBacktest(c *gin.Context) {
	rep, ok := s.report(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fund":           rep.Fund,
		"result":         rep.Backtest,
		"beat_benchmark": rep.Backtest.BeatBenchmark(),
	})
}

type rankRow struct {
	Code  string   `json:"code"`
	Name  string   `json:"name"`
	Mom5  *float64 `json:"mom_5d"`
	Mom20 *float64 `json:"mom_20d"`
	Score *float64 `json:"score"`
}

func (s *Server) handleRanking(c *gin.Context) {
	ranks := analysis.RankMomentum(s.analyzer.AnalyzeAll(c.Request.Context(), s.funds.All()))
	out := make([]rankRow, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, rankRow{Code: r.Fund.Code, Name: r.Fund.Name, Mom5: opt(r.Mom5), Mom20: opt(r.Mom20), Score: opt(r.Score)})
	}
	c.JSON(http.StatusOK, gin.H{"ranking": out})
}

type comparePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// handleCompare rebases the last days observations of each fund to 1.0.
func (s *Server) handleCompare(c *gin.Context) {
	codes := strings.Split(c.Query("codes"), ",")
	days, err := strconv.Atoi(c.DefaultQuery("days", "120"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}
	out := make(map[string][]comparePoint)
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		f, err := s.funds.Get(code)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		rep, err := s.analyzer.AnalyzeFund(c.Request.Context(), f)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		tail := rep.Series.Tail(days)
		rebased := calculator.Rebase(tail.Values())
		pts := make([]comparePoint, len(rebased))
		for i, v := range rebased {
			pts[i] = comparePoint{Date: tail.Points[i].Date.Format("2006-01-02"), Value: v}
		}
		out[f.Code] = pts
	}
	if len(out) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "codes is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": out})
}

func (s *Server) handleChart(c *gin.Context) {
	rep, ok := s.report(c)
	if !ok {
		return
	}
	bt := s.analyzer.Options().Backtest
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := RenderChart(c.Writer, rep.Fund, rep.Frame, bt.BuyRSI, bt.SellRSI); err != nil {
		log.Printf("[ERROR] render chart %s: %v", rep.Fund.Code, err)
	}
}

