// Package ledger holds the position lifecycle rules shared by every write path:
// the price/return calculator and the status-conditioned validator.
//
// Everything here is pure. Callers pass "now" explicitly and persist the results.
package ledger

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Derived holds the fields recomputed on every position write.
type Derived struct {
	TotalInvestment decimal.Decimal
	PnL             decimal.Decimal
	PnLPercentage   decimal.Decimal
}

// Investment returns entryPrice × quantity.
func Investment(entryPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return entryPrice.Mul(decimal.NewFromInt(quantity))
}

// EffectivePrice is the exit price for a closed lifecycle and the mark price
// otherwise. ok is false when an open position has no mark price yet.
func EffectivePrice(lc Lifecycle, currentPrice *decimal.Decimal) (price decimal.Decimal, ok bool) {
	if closed, isClosed := lc.(Closed); isClosed {
		return closed.ExitPrice, true
	}
	if currentPrice == nil {
		return decimal.Zero, false
	}
	return *currentPrice, true
}

// PnL returns (effective − entry) × quantity.
func PnL(effective, entryPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return effective.Sub(entryPrice).Mul(decimal.NewFromInt(quantity))
}

// PnLPercentage returns (effective − entry) / entry × 100, or zero for a zero entry price.
func PnLPercentage(effective, entryPrice decimal.Decimal) decimal.Decimal {
	if entryPrice.IsZero() {
		return decimal.Zero
	}
	return effective.Sub(entryPrice).Div(entryPrice).Mul(hundred)
}

// Derive computes every derived position field. An open position without a
// mark price reports zero P&L until a quote arrives.
func Derive(entryPrice decimal.Decimal, quantity int64, lc Lifecycle, currentPrice *decimal.Decimal) Derived {
	d := Derived{
		TotalInvestment: Investment(entryPrice, quantity),
		PnL:             decimal.Zero,
		PnLPercentage:   decimal.Zero,
	}
	effective, ok := EffectivePrice(lc, currentPrice)
	if !ok {
		return d
	}
	d.PnL = PnL(effective, entryPrice, quantity)
	d.PnLPercentage = PnLPercentage(effective, entryPrice)
	return d
}

// WeightedAverage returns the quantity-weighted mean price of two lots.
func WeightedAverage(oldQty int64, oldPrice decimal.Decimal, newQty int64, newPrice decimal.Decimal) decimal.Decimal {
	total := decimal.NewFromInt(oldQty).Add(decimal.NewFromInt(newQty))
	if total.IsZero() {
		return decimal.Zero
	}
	cost := Investment(oldPrice, oldQty).Add(Investment(newPrice, newQty))
	return cost.Div(total)
}

// PotentialReturn returns target − entry.
func PotentialReturn(entryPrice, targetPrice decimal.Decimal) decimal.Decimal {
	return targetPrice.Sub(entryPrice)
}

// PotentialReturnPercentage returns (target − entry) / entry × 100.
func PotentialReturnPercentage(entryPrice, targetPrice decimal.Decimal) decimal.Decimal {
	if entryPrice.IsZero() {
		return decimal.Zero
	}
	return PotentialReturn(entryPrice, targetPrice).Div(entryPrice).Mul(hundred)
}

// RiskRewardRatio returns (target − entry) / (entry − stop), or zero when the
// stop is at or above the entry.
func RiskRewardRatio(entryPrice, targetPrice, stopLossPrice decimal.Decimal) decimal.Decimal {
	risk := entryPrice.Sub(stopLossPrice)
	if !risk.IsPositive() {
		return decimal.Zero
	}
	return targetPrice.Sub(entryPrice).Div(risk)
}

// FocusStatus is the watchlist colour derived from a price versus target and stop-loss.
type FocusStatus string

const (
	FocusStatusGreen   FocusStatus = "green"
	FocusStatusRed     FocusStatus = "red"
	FocusStatusNeutral FocusStatus = "neutral"
)

// StatusFor compares price against the target and the stop-loss. A zero stop
// means no stop was set.
func StatusFor(price, targetPrice, stopLossPrice decimal.Decimal) FocusStatus {
	switch {
	case price.IsZero():
		return FocusStatusNeutral
	case targetPrice.IsPositive() && price.GreaterThanOrEqual(targetPrice):
		return FocusStatusGreen
	case stopLossPrice.IsPositive() && price.LessThanOrEqual(stopLossPrice):
		return FocusStatusRed
	default:
		return FocusStatusNeutral
	}
}
