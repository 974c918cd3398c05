package quotes

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradebook/internal/logger"
)

// OpenBook is the position side of a refresh.
type OpenBook interface {
	OpenSymbols(ctx context.Context) ([]string, error)
	ApplyQuotes(ctx context.Context, prices map[string]decimal.Decimal) (int64, error)
}

// Watchlist is the focus-stock side of a refresh.
type Watchlist interface {
	WatchedSymbols(ctx context.Context) ([]string, error)
	ApplyQuotes(ctx context.Context, prices map[string]decimal.Decimal) (int64, error)
}

// RefreshResult contains the outcome of one refresh.
type RefreshResult struct {
	Symbols          int           `json:"symbols"`
	Quoted           int           `json:"quoted"`
	PositionsUpdated int64         `json:"positions_updated"`
	StocksUpdated    int64         `json:"stocks_updated"`
	Errors           []FetchError  `json:"errors,omitempty"`
	Duration         time.Duration `json:"duration_ns" swaggertype:"integer"`
}

// Refresher pulls quotes for every symbol held open or watched and marks
// them to market. Symbols that fail to quote keep their last price.
type Refresher struct {
	positions OpenBook
	watchlist Watchlist
	provider  Provider
	timeout   time.Duration
}

// NewRefresher creates a Refresher. watchlist may be nil.
func NewRefresher(positions OpenBook, watchlist Watchlist, provider Provider, timeout time.Duration) *Refresher {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Refresher{positions: positions, watchlist: watchlist, provider: provider, timeout: timeout}
}

// Name identifies the job in scheduler logs.
func (r *Refresher) Name() string { return "quote-refresh" }

// Run performs one refresh under the configured timeout.
func (r *Refresher) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_, err := r.Refresh(ctx)
	return err
}

// Refresh executes a single cycle: collect symbols, fetch quotes, apply them.
func (r *Refresher) Refresh(ctx context.Context) (*RefreshResult, error) {
	start := time.Now()
	log := logger.Named("quotes")
	result := &RefreshResult{}

	symbols, err := r.symbols(ctx)
	if err != nil {
		return nil, err
	}
	result.Symbols = len(symbols)
	if len(symbols) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	quotes, fetchErrors := r.provider.FetchQuotes(ctx, symbols)
	result.Errors = fetchErrors
	for _, fe := range fetchErrors {
		log.Warnw("quote fetch failed", "provider", r.provider.Name(), "symbol", fe.Symbol, "error", fe.Err)
	}

	prices := make(map[string]decimal.Decimal, len(quotes))
	for _, q := range quotes {
		prices[q.Symbol] = q.Price
	}
	result.Quoted = len(prices)
	if len(prices) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	if result.PositionsUpdated, err = r.positions.ApplyQuotes(ctx, prices); err != nil {
		return nil, err
	}
	if r.watchlist != nil {
		if result.StocksUpdated, err = r.watchlist.ApplyQuotes(ctx, prices); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(start)
	log.Infow("quote refresh completed",
		"symbols", result.Symbols,
		"quoted", result.Quoted,
		"positions_updated", result.PositionsUpdated,
		"stocks_updated", result.StocksUpdated,
		"errors", len(result.Errors),
		"duration", result.Duration.String(),
	)
	return result, nil
}

func (r *Refresher) symbols(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	open, err := r.positions.OpenSymbols(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range open {
		seen[s] = struct{}{}
	}
	if r.watchlist != nil {
		watched, err := r.watchlist.WatchedSymbols(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range watched {
			seen[s] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols, nil
}
