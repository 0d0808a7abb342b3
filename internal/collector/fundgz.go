package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"FundSentinel/internal/model"
)

const defaultFundGzURL = "http://fundgz.1234567.com.cn/js"

var jsonpRe = regexp.MustCompile(`(?s)jsonpgz\((.*?)\);?\s*$`)

// FundGzFetcher implements EstimateFetcher using the fundgz JSONP endpoint.
type FundGzFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewFundGzFetcher creates a fetcher with a short timeout; estimates are best-effort.
func NewFundGzFetcher(baseURL, proxyURL string) *FundGzFetcher {
	if baseURL == "" {
		baseURL = defaultFundGzURL
	}
	return &FundGzFetcher{
		BaseURL: baseURL,
		Client:  newHTTPClient(proxyURL, 5*time.Second),
	}
}

func (f *FundGzFetcher) Name() string { return "fundgz" }

// FetchEstimate returns the latest intraday estimate for code.
func (f *FundGzFetcher) FetchEstimate(ctx context.Context, code string) (model.Estimate, error) {
	u := fmt.Sprintf("%s/%s.js", f.BaseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Estimate{}, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Estimate{}, fmt.Errorf("fundgz fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Estimate{}, fmt.Errorf("fundgz read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Estimate{}, fmt.Errorf("fundgz: status %d", resp.StatusCode)
	}
	return ParseEstimate(body)
}

// ParseEstimate decodes a jsonpgz({...}); payload.
func ParseEstimate(payload []byte) (model.Estimate, error) {
	m := jsonpRe.FindSubmatch(payload)
	if m == nil || len(m[1]) == 0 {
		return model.Estimate{}, fmt.Errorf("fundgz: unexpected payload %q", truncate(payload, 64))
	}
	raw := string(m[1])
	if !gjson.Valid(raw) {
		return model.Estimate{}, fmt.Errorf("fundgz: malformed json")
	}
	doc := gjson.Parse(raw)

	growth, err := decimal.NewFromString(doc.Get("gszzl").String())
	if err != nil {
		return model.Estimate{}, fmt.Errorf("fundgz: parse gszzl: %w", err)
	}
	est := model.Estimate{
		Code:      doc.Get("fundcode").String(),
		Name:      doc.Get("name").String(),
		GrowthPct: growth.InexactFloat64(),
	}
	if v, err := decimal.NewFromString(doc.Get("gsz").String()); err == nil {
		est.Value = v.InexactFloat64()
	}
	if ts, err := time.ParseInLocation("2006-01-02 15:04", doc.Get("gztime").String(), chinaTZ); err == nil {
		est.At = ts
	}
	return est, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
