package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"FundSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists NAV history and run records to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read while the daily job writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fund_nav_history (
			fund_code    TEXT NOT NULL,
			fund_name    TEXT,
			nav_date     TEXT NOT NULL,
			nav_value    REAL NOT NULL,
			daily_growth REAL,
			PRIMARY KEY (fund_code, nav_date)
		)`,

		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			fund_code       TEXT NOT NULL,
			fund_name       TEXT,
			category        TEXT,
			as_of           TEXT,
			price           REAL,
			rsi             REAL,
			sma20           REAL,
			upper_band      REAL,
			lower_band      REAL,
			signal          TEXT,
			rationale       TEXT,
			solve_found     INTEGER,
			solve_move_pct  REAL,
			strategy_return REAL,
			buy_and_hold    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_fund_ts ON analysis_runs(fund_code, timestamp)`,

		`CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id          TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			fund_code       TEXT NOT NULL,
			initial_cash    REAL,
			final_value     REAL,
			strategy_return REAL,
			buy_and_hold    REAL,
			max_drawdown    REAL,
			trade_count     INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL,
			trade_date TEXT,
			side       TEXT,
			price      REAL,
			rsi        REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON backtest_trades(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// ReplaceHistory deletes the stored rows of a fund and writes series in one transaction.
func (r *SQLiteRecorder) ReplaceHistory(ctx context.Context, f model.Fund, series model.PriceSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fund_nav_history WHERE fund_code = ?`, f.Code); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fund_nav_history
		(fund_code, fund_name, nav_date, nav_value, daily_growth) VALUES (?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	prev := 0.0
	for i, p := range series.Points {
		growth := 0.0
		if i > 0 && prev != 0 {
			growth = (p.Value - prev) / prev * 100
		}
		if _, err := stmt.ExecContext(ctx, f.Code, f.Name, p.Date.Format(dateLayout), p.Value, growth); err != nil {
			return fmt.Errorf("insert %s %s: %w", f.Code, p.Date.Format(dateLayout), err)
		}
		prev = p.Value
	}
	return tx.Commit()
}

// LoadSeries returns the last limit observations of a fund in ascending date order.
// limit <= 0 loads the whole history. A fund without rows yields an empty series.
func (r *SQLiteRecorder) LoadSeries(ctx context.Context, code string, limit int) (model.PriceSeries, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `SELECT nav_date, nav_value FROM (
			SELECT nav_date, nav_value FROM fund_nav_history
			WHERE fund_code = ? ORDER BY nav_date DESC LIMIT ?
		) ORDER BY nav_date ASC`, code, limit)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	series := model.PriceSeries{Code: code}
	for rows.Next() {
		var (
			dateStr string
			value   float64
		)
		if err := rows.Scan(&dateStr, &value); err != nil {
			return model.PriceSeries{}, err
		}
		d, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return model.PriceSeries{}, fmt.Errorf("parse nav_date %q: %w", dateStr, err)
		}
		series.Points = append(series.Points, model.PricePoint{Date: d, Value: value})
	}
	return series, rows.Err()
}

func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO analysis_runs
		(timestamp, fund_code, fund_name, category, as_of, price, rsi, sma20, upper_band, lower_band,
		 signal, rationale, solve_found, solve_move_pct, strategy_return, buy_and_hold)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.FundCode, rec.FundName, string(rec.Category), rec.AsOf.Format(dateLayout),
		nullFloat(rec.Price), nullFloat(rec.RSI), nullFloat(rec.SMA), nullFloat(rec.Upper), nullFloat(rec.Lower),
		string(rec.Signal), rec.Rationale, rec.SolveFound, nullFloat(rec.SolveMovePct),
		nullFloat(rec.StrategyReturn), nullFloat(rec.BuyAndHold),
	)
	return err
}

func (r *SQLiteRecorder) RecordBacktest(ctx context.Context, res *model.BacktestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO backtest_runs
		(run_id, timestamp, fund_code, initial_cash, final_value, strategy_return, buy_and_hold, max_drawdown, trade_count)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		res.RunID, time.Now().Unix(), res.Code, res.InitialCash, res.FinalValue,
		res.StrategyReturn, res.BuyAndHoldReturn, res.MaxDrawdown, len(res.Trades),
	); err != nil {
		return fmt.Errorf("insert backtest run: %w", err)
	}
	for _, t := range res.Trades {
		if _, err := tx.ExecContext(ctx, `INSERT INTO backtest_trades (run_id, trade_date, side, price, rsi) VALUES (?,?,?,?,?)`,
			res.RunID, t.Date.Format(dateLayout), string(t.Side), t.Price, nullFloat(t.RSI)); err != nil {
			return fmt.Errorf("insert backtest trade: %w", err)
		}
	}
	return tx.Commit()
}

// countBacktestTrades returns how many trades were stored for a run.
func (r *SQLiteRecorder) countBacktestTrades(ctx context.Context, runID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM backtest_trades WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// LatestSignal returns the most recently recorded signal of a fund.
func (r *SQLiteRecorder) LatestSignal(ctx context.Context, code string) (model.SignalCategory, error) {
	var s string
	err := r.db.QueryRowContext(ctx, `SELECT signal FROM analysis_runs WHERE fund_code = ?
		ORDER BY timestamp DESC, id DESC LIMIT 1`, code).Scan(&s)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return model.SignalCategory(s), err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

// nullFloat maps NaN and infinities to NULL.
func nullFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
