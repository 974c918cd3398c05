// Package quotes fetches market prices for journal symbols and feeds them
// back into open positions and the watchlist.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the last traded price of one symbol.
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	Currency  string
	FetchedAt time.Time
}

// FetchError is a failed fetch for one symbol.
type FetchError struct {
	Symbol string
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch quote for %s: %v", e.Symbol, e.Err)
}

// MarshalJSON reports the failure with its cause as text.
func (e FetchError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Symbol string `json:"symbol"`
		Error  string `json:"error"`
	}{e.Symbol, msg})
}

// Provider fetches current market prices.
type Provider interface {
	// Name returns the provider's display name (e.g., "Yahoo Finance").
	Name() string

	// FetchQuotes returns as many quotes as it can, plus one FetchError per
	// symbol it could not price.
	FetchQuotes(ctx context.Context, symbols []string) ([]Quote, []FetchError)
}
