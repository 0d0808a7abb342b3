package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/analysis"
	"FundSentinel/internal/calculator"
	"FundSentinel/internal/collector"
	"FundSentinel/internal/fund"
	"FundSentinel/internal/model"
)

type memSource map[string]model.PriceSeries

func (m memSource) LoadSeries(_ context.Context, code string, limit int) (model.PriceSeries, error) {
	return m[code].Tail(limit), nil
}

var end = time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg, err := fund.NewRegistry([]fund.Entry{
		{Code: "012363", Name: "国泰证券"},
		{Code: "013275", Name: "富国煤炭"},
		{Code: "000000", Name: "空基金"},
	}, fund.DefaultKeywordRules)
	require.NoError(t, err)

	src := memSource{
		"012363": collector.GenerateMockSeries("012363", 1.2, 100, end),
		"013275": collector.GenerateMockSeries("013275", 2.0, 100, end),
	}
	srv, err := NewServer(Config{Funds: reg, Analyzer: analysis.NewAnalyzer(src, analysis.DefaultOptions())})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestFunds(t *testing.T) {
	w := get(t, newTestServer(t), "/api/funds")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Funds []map[string]any `json:"funds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Funds, 3)
	assert.Equal(t, "012363", body.Funds[0]["code"])
	assert.Equal(t, "2025-05-30", body.Funds[0]["as_of"])
	assert.NotNil(t, body.Funds[0]["rsi"])
	assert.Equal(t, "NO_DATA", body.Funds[2]["signal"])
	assert.Nil(t, body.Funds[2]["nav"])
}

type memHistory map[string]model.SignalCategory

func (m memHistory) LatestSignal(_ context.Context, code string) (model.SignalCategory, error) {
	if code == "013275" {
		return "", errors.New("db closed")
	}
	return m[code], nil
}

func TestFunds_LastRecordedSignal(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/api/funds")
	assert.NotContains(t, w.Body.String(), "last_recorded_signal")

	s.history = memHistory{"012363": model.SignalStrongBuy}
	w = get(t, s, "/api/funds")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Funds []map[string]any `json:"funds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Funds, 3)
	assert.Equal(t, string(model.SignalStrongBuy), body.Funds[0]["last_recorded_signal"])
	assert.NotContains(t, body.Funds[1], "last_recorded_signal")
	assert.NotContains(t, body.Funds[2], "last_recorded_signal")

	w = get(t, s, "/api/funds/012363/indicators")
	assert.Contains(t, w.Body.String(), `"last_recorded_signal":"`+string(model.SignalStrongBuy)+`"`)
}

func TestIndicators(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/api/funds/012363/indicators?days=30")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rows []struct {
			Date  string   `json:"date"`
			RSI   *float64 `json:"rsi"`
			Upper *float64 `json:"upper"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rows, 30)
	assert.Equal(t, "2025-05-30", body.Rows[29].Date)
	require.NotNil(t, body.Rows[29].RSI)

	series := collector.GenerateMockSeries("012363", 1.2, 100, end)
	want, err := calculator.LatestRSI(series.Values(), calculator.DefaultRSIWindow)
	require.NoError(t, err)
	assert.InDelta(t, want, *body.Rows[29].RSI, 1e-9)

	// warm-up rows serialise as null
	w = get(t, s, "/api/funds/012363/indicators")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"upper":null`)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/funds/012363/indicators?days=x").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/funds/999999/indicators").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/funds/000000/indicators").Code)
}

func TestBacktest(t *testing.T) {
	w := get(t, newTestServer(t), "/api/funds/013275/backtest")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Result model.BacktestResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "013275", body.Result.Code)
	assert.Equal(t, 1000.0, body.Result.InitialCash)
	assert.NotEmpty(t, body.Result.Values)
}

func TestRankingAndCompare(t *testing.T) {
	s := newTestServer(t)
	w := get(t, s, "/api/ranking")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ranking"`)

	w = get(t, s, "/api/compare?codes=012363,013275&days=10")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Series map[string][]struct {
			Value float64 `json:"value"`
		} `json:"series"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Series["013275"], 10)
	assert.Equal(t, 1.0, body.Series["013275"][0].Value)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/compare").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/compare?codes=nope").Code)
}

func TestChart(t *testing.T) {
	w := get(t, newTestServer(t), "/chart/012363")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "echarts")
	assert.Contains(t, w.Body.String(), "012363")
}

func TestRenderChart_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderChart(&buf, model.Fund{Code: "x"}, model.IndicatorFrame{}, 30, 70))
}
