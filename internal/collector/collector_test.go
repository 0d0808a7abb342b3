package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/model"
)

const pingzhongScript = `var fS_name = "国泰中证全指证券公司ETF联接C";var fS_code = "012363";
/*单位净值走势 equityReturn-净值回报 unitMoney-每份派送金*/var Data_netWorthTrend = [{"x":1733673600000,"y":1.1021,"equityReturn":0.5,"unitMoney":""},{"x":1733587200000,"y":1.0966,"equityReturn":-0.2,"unitMoney":""},{"x":1733760000000,"y":"1.1100","equityReturn":0.7,"unitMoney":""},{"x":1733760000000,"y":1.1105,"equityReturn":0.7,"unitMoney":""},{"x":1733846400000,"y":0,"equityReturn":0,"unitMoney":""}];/*累计净值走势*/var Data_ACWorthTrend = [[1733673600000,1.1021]];`

func TestParseNetWorthTrend(t *testing.T) {
	s, err := ParseNetWorthTrend("012363", []byte(pingzhongScript))
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, "012363", s.Code)
	assert.Equal(t, 1.0966, s.Points[0].Value)
	assert.Equal(t, 1.1021, s.Points[1].Value)
	// duplicate date collapses to the last published value
	assert.Equal(t, 1.1105, s.Points[2].Value)
	for i := 1; i < s.Len(); i++ {
		assert.True(t, s.Points[i-1].Date.Before(s.Points[i].Date))
	}
	assert.Equal(t, time.Date(2024, 12, 8, 0, 0, 0, 0, time.UTC), s.Points[0].Date)
}

func TestParseNetWorthTrend_Missing(t *testing.T) {
	_, err := ParseNetWorthTrend("1", []byte(`var x = 1;`))
	assert.Error(t, err)
}

func TestEastmoneyFetcher_FetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/012363.js" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(pingzhongScript))
	}))
	defer srv.Close()

	f := NewEastmoneyFetcher(srv.URL, "")
	s, err := f.FetchHistory(context.Background(), "012363")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	_, err = f.FetchHistory(context.Background(), "000000")
	assert.Error(t, err)
}

func TestParseEstimate(t *testing.T) {
	payload := `jsonpgz({"fundcode":"012363","name":"国泰中证全指证券公司ETF联接C","jzrq":"2024-12-09","dwjz":"1.1105","gsz":"1.0950","gszzl":"-1.40","gztime":"2024-12-10 14:50"});`
	est, err := ParseEstimate([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "012363", est.Code)
	assert.Equal(t, -1.4, est.GrowthPct)
	assert.Equal(t, 1.095, est.Value)
	assert.Equal(t, 14, est.At.Hour())

	_, err = ParseEstimate([]byte(`jsonpgz();`))
	assert.Error(t, err)
}

func TestFundGzFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`jsonpgz({"fundcode":"013275","name":"富国中证煤炭指数C","gsz":"1.50","gszzl":"0.35","gztime":"2024-12-10 14:50"});`))
	}))
	defer srv.Close()

	est, err := NewFundGzFetcher(srv.URL, "").FetchEstimate(context.Background(), "013275")
	require.NoError(t, err)
	assert.Equal(t, 0.35, est.GrowthPct)
}

type memStore struct {
	saved map[string]int
	err   error
}

func (m *memStore) ReplaceHistory(_ context.Context, f model.Fund, s model.PriceSeries) error {
	if m.err != nil {
		return m.err
	}
	m.saved[f.Code] = s.Len()
	return nil
}

func TestCollector_SyncAll(t *testing.T) {
	mock := &MockFetcher{
		Days: 30,
		Series: map[string]model.PriceSeries{
			"empty": {Code: "empty"},
		},
	}
	store := &memStore{saved: map[string]int{}}
	col := NewCollector(mock, store, 0)

	n, errs := col.SyncAll(context.Background(), []model.Fund{
		{Code: "012363", Name: "国泰证券"},
		{Code: "empty", Name: "空基金"},
	})
	assert.Equal(t, 2, n)
	assert.Empty(t, errs)
	assert.Equal(t, 30, store.saved["012363"])
	_, wrote := store.saved["empty"]
	assert.False(t, wrote)
}

func TestCollector_SyncErrors(t *testing.T) {
	col := NewCollector(&MockFetcher{Err: errors.New("boom")}, &memStore{saved: map[string]int{}}, 0)
	n, errs := col.SyncAll(context.Background(), []model.Fund{{Code: "a"}, {Code: "b"}})
	assert.Equal(t, 0, n)
	assert.Len(t, errs, 2)
}

func TestGenerateMockSeries(t *testing.T) {
	end := time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC)
	s := GenerateMockSeries("x", 2, 10, end)
	require.Equal(t, 10, s.Len())
	last, _ := s.Last()
	assert.Equal(t, model.Day(end), last.Date)
}
