package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"FundSentinel/internal/model"
)

const defaultEastmoneyURL = "https://fund.eastmoney.com/pingzhongdata"

var netWorthTrendRe = regexp.MustCompile(`(?s)Data_netWorthTrend\s*=\s*(\[.*?\])\s*;`)

// EastmoneyFetcher implements Fetcher using the eastmoney pingzhongdata script.
type EastmoneyFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewEastmoneyFetcher creates a fetcher with optional proxy support.
func NewEastmoneyFetcher(baseURL, proxyURL string) *EastmoneyFetcher {
	if baseURL == "" {
		baseURL = defaultEastmoneyURL
	}
	return &EastmoneyFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (f *EastmoneyFetcher) Name() string { return "eastmoney" }

// FetchHistory downloads the unit NAV trend of a fund.
func (f *EastmoneyFetcher) FetchHistory(ctx context.Context, code string) (model.PriceSeries, error) {
	u := fmt.Sprintf("%s/%s.js", f.BaseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.PriceSeries{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://fund.eastmoney.com/")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("eastmoney fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("eastmoney read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, fmt.Errorf("eastmoney: status %d", resp.StatusCode)
	}
	return ParseNetWorthTrend(code, body)
}

// ParseNetWorthTrend extracts the Data_netWorthTrend array from a pingzhongdata script.
// Points with a non-positive or unparsable value are skipped; the result is sorted
// by date with duplicate dates collapsed to the last published value.
func ParseNetWorthTrend(code string, script []byte) (model.PriceSeries, error) {
	m := netWorthTrendRe.FindSubmatch(script)
	if m == nil {
		return model.PriceSeries{}, fmt.Errorf("eastmoney: Data_netWorthTrend not found for %s", code)
	}
	raw := string(m[1])
	if !gjson.Valid(raw) {
		return model.PriceSeries{}, fmt.Errorf("eastmoney: malformed trend array for %s", code)
	}

	byDate := make(map[time.Time]float64)
	gjson.Parse(raw).ForEach(func(_, item gjson.Result) bool {
		ms := item.Get("x").Int()
		y := item.Get("y")
		if ms == 0 || !y.Exists() {
			return true
		}
		d, err := decimal.NewFromString(y.String())
		if err != nil || !d.IsPositive() {
			return true
		}
		date := model.Day(time.UnixMilli(ms).In(chinaTZ))
		byDate[date] = d.InexactFloat64()
		return true
	})

	series := model.PriceSeries{Code: code, Points: make([]model.PricePoint, 0, len(byDate))}
	for date, v := range byDate {
		series.Points = append(series.Points, model.PricePoint{Date: date, Value: v})
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Date.Before(series.Points[j].Date)
	})
	return series, nil
}
