package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"FundSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series   map[string]model.PriceSeries
	Estimate map[string]model.Estimate
	Err      error
	Days     int
	Base     float64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, code string) (model.PriceSeries, error) {
	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	if s, ok := m.Series[code]; ok {
		return s, nil
	}
	return GenerateMockSeries(code, m.Base, m.Days, time.Now()), nil
}

func (m *MockFetcher) FetchEstimate(_ context.Context, code string) (model.Estimate, error) {
	if m.Err != nil {
		return model.Estimate{}, m.Err
	}
	if e, ok := m.Estimate[code]; ok {
		return e, nil
	}
	return model.Estimate{Code: code, At: time.Now()}, nil
}

// GenerateMockSeries builds a deterministic oscillating NAV series ending at end.
func GenerateMockSeries(code string, base float64, days int, end time.Time) model.PriceSeries {
	if base <= 0 {
		base = 1.0
	}
	last := model.Day(end)
	pts := make([]model.PricePoint, days)
	for i := 0; i < days; i++ {
		v := base * (1 + 0.08*math.Sin(float64(i)/5) + 0.0005*float64(i))
		pts[i] = model.PricePoint{Date: last.AddDate(0, 0, i-days+1), Value: v}
	}
	return model.PriceSeries{Code: code, Points: pts}
}

// HistoryStore receives the refreshed history of a fund.
type HistoryStore interface {
	ReplaceHistory(ctx context.Context, f model.Fund, series model.PriceSeries) error
}

// Collector runs the fetch-and-store cycle for the watchlist.
type Collector struct {
	Fetcher Fetcher
	Store   HistoryStore
	Pause   time.Duration // delay between funds to stay under the provider's rate limit
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, store HistoryStore, pause time.Duration) *Collector {
	return &Collector{Fetcher: fetcher, Store: store, Pause: pause}
}

// Sync refreshes one fund: fetch, then replace its stored history.
// An empty series is logged and not written.
func (c *Collector) Sync(ctx context.Context, f model.Fund) (model.PriceSeries, error) {
	series, err := c.Fetcher.FetchHistory(ctx, f.Code)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("fetch %s: %w", f.Code, err)
	}
	if series.Empty() {
		log.Printf("[WARN] %s (%s): no data returned by %s", f.Name, f.Code, c.Fetcher.Name())
		return series, nil
	}
	if c.Store != nil {
		if err := c.Store.ReplaceHistory(ctx, f, series); err != nil {
			return series, fmt.Errorf("store %s: %w", f.Code, err)
		}
	}
	last, _ := series.Last()
	log.Printf("[INFO] %s (%s) synced, %d rows, latest %s", f.Name, f.Code, series.Len(), last.Date.Format("2006-01-02"))
	return series, nil
}

// SyncAll refreshes every fund sequentially. One failing fund does not stop the batch.
func (c *Collector) SyncAll(ctx context.Context, funds []model.Fund) (synced int, errs []error) {
	for i, f := range funds {
		if i > 0 && c.Pause > 0 {
			select {
			case <-ctx.Done():
				return synced, append(errs, ctx.Err())
			case <-time.After(c.Pause):
			}
		}
		if _, err := c.Sync(ctx, f); err != nil {
			log.Printf("[ERROR] sync %s: %v", f.Code, err)
			errs = append(errs, err)
			continue
		}
		synced++
	}
	return synced, errs
}
