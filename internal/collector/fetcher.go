package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"FundSentinel/internal/model"
)

// Fetcher supplies the NAV history of a fund, ascending by date.
// An empty series means "no data" and is not an error.
type Fetcher interface {
	FetchHistory(ctx context.Context, code string) (model.PriceSeries, error)
	Name() string
}

// EstimateFetcher supplies the intraday NAV estimate of a fund.
type EstimateFetcher interface {
	FetchEstimate(ctx context.Context, code string) (model.Estimate, error)
}

// chinaTZ is the timezone NAV dates and estimate times are published in.
var chinaTZ = time.FixedZone("CST", 8*3600)

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
