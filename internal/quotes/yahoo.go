package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	yahooBaseURL       = "https://query1.finance.yahoo.com/v8/finance/chart"
	yahooMaxConcurrent = 5
	yahooUA            = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

	DefaultRateLimit = 5 // requests per second
	DefaultTimeout   = 10 * time.Second
)

// yahooChartResponse is the v8 chart API response. Only the meta block is read.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches prices from the Yahoo Finance chart API, one request
// per symbol, bounded by a rate limiter.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string
	suffix     string
	limiter    *rate.Limiter
	now        func() time.Time
}

// YahooOption configures a YahooProvider.
type YahooOption func(*YahooProvider)

// WithBaseURL overrides the chart endpoint.
func WithBaseURL(baseURL string) YahooOption {
	return func(p *YahooProvider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(p *YahooProvider) {
		p.httpClient = c
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(requestsPerSecond int) YahooOption {
	return func(p *YahooProvider) {
		if requestsPerSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithSymbolSuffix appends an exchange suffix (e.g. ".NS") to symbols that
// do not already carry one.
func WithSymbolSuffix(suffix string) YahooOption {
	return func(p *YahooProvider) {
		p.suffix = suffix
	}
}

// NewYahooProvider creates a Yahoo Finance provider.
func NewYahooProvider(opts ...YahooOption) *YahooProvider {
	p := &YahooProvider{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    yahooBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo Finance" }

// ticker maps a journal symbol to a Yahoo ticker.
func (p *YahooProvider) ticker(symbol string) string {
	if p.suffix == "" || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + p.suffix
}

// FetchQuotes fetches quotes concurrently, at most yahooMaxConcurrent in flight.
func (p *YahooProvider) FetchQuotes(ctx context.Context, symbols []string) ([]Quote, []FetchError) {
	if len(symbols) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []Quote
		errs    []FetchError
		sem     = make(chan struct{}, yahooMaxConcurrent)
	)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			q, err := p.fetchOne(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, FetchError{Symbol: symbol, Err: err})
				return
			}
			results = append(results, q)
		}(symbol)
	}
	wg.Wait()

	return results, errs
}

func (p *YahooProvider) fetchOne(ctx context.Context, symbol string) (Quote, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Quote{}, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?interval=1d&range=1d", p.baseURL, url.PathEscape(p.ticker(symbol)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return Quote{}, fmt.Errorf("decoding response: %w", err)
	}
	if chart.Chart.Error != nil {
		return Quote{}, fmt.Errorf("%s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no chart data for %s", p.ticker(symbol))
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return Quote{}, fmt.Errorf("zero price for %s", p.ticker(symbol))
	}

	return Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(meta.RegularMarketPrice).Round(6),
		Currency:  meta.Currency,
		FetchedAt: p.now(),
	}, nil
}
