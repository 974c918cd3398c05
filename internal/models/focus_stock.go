package models

import (
	"time"

	"github.com/shopspring/decimal"

	"tradebook/internal/ledger"
)

// FocusTag classifies a watchlist entry.
type FocusTag string

const (
	FocusTagMonitor FocusTag = "monitor"
	FocusTagWatch   FocusTag = "watch"
	FocusTagWorked  FocusTag = "worked"
	FocusTagFailed  FocusTag = "failed"
	FocusTagMissed  FocusTag = "missed"
)

// FocusStock is a watchlist candidate that can be converted into a position.
type FocusStock struct {
	Base
	UserID        string           `gorm:"type:uuid;not null;index:idx_focus_stocks_user_period,priority:1" json:"user_id"`
	Symbol        string           `gorm:"size:20;not null" json:"symbol"`
	EntryPrice    decimal.Decimal  `gorm:"type:numeric(20,6);not null" json:"entry_price"`
	TargetPrice   decimal.Decimal  `gorm:"type:numeric(20,6);not null" json:"target_price"`
	StopLossPrice decimal.Decimal  `gorm:"type:numeric(20,6);not null;default:0" json:"stop_loss_price"`
	CurrentPrice  *decimal.Decimal `gorm:"type:numeric(20,6)" json:"current_price,omitempty"`
	Reason        string           `gorm:"type:text" json:"reason,omitempty"`
	Notes         string           `gorm:"type:text" json:"notes,omitempty"`
	Tag           FocusTag         `gorm:"size:10" json:"tag,omitempty"`
	DateAdded     time.Time        `gorm:"not null" json:"date_added"`

	TradeTaken       bool             `gorm:"not null;default:false" json:"trade_taken"`
	TradeDate        *time.Time       `gorm:"type:date" json:"trade_date,omitempty"`
	TradedQuantity   int64            `gorm:"not null;default:0" json:"traded_quantity"`
	TradedEntryPrice *decimal.Decimal `gorm:"type:numeric(20,6)" json:"traded_entry_price,omitempty"`
	TradedPositionID *string          `gorm:"type:uuid" json:"traded_position_id,omitempty"`

	PotentialReturn           decimal.Decimal    `gorm:"type:numeric;not null;default:0" json:"potential_return"`
	PotentialReturnPercentage decimal.Decimal    `gorm:"type:numeric;not null;default:0" json:"potential_return_percentage"`
	RiskRewardRatio           decimal.Decimal    `gorm:"type:numeric;not null;default:0" json:"risk_reward_ratio"`
	Status                    ledger.FocusStatus `gorm:"size:10;not null;default:'neutral'" json:"status"`

	Month int `gorm:"not null;index:idx_focus_stocks_user_period,priority:3" json:"month"`
	Year  int `gorm:"not null;index:idx_focus_stocks_user_period,priority:2" json:"year"`
}

// MarkPrice is the current price, falling back to the reference entry price.
func (f *FocusStock) MarkPrice() decimal.Decimal {
	if f.CurrentPrice != nil && f.CurrentPrice.IsPositive() {
		return *f.CurrentPrice
	}
	return f.EntryPrice
}

// Recompute refreshes the return metrics and the status colour.
func (f *FocusStock) Recompute() {
	f.PotentialReturn = ledger.PotentialReturn(f.EntryPrice, f.TargetPrice)
	f.PotentialReturnPercentage = ledger.PotentialReturnPercentage(f.EntryPrice, f.TargetPrice)
	f.RiskRewardRatio = ledger.RiskRewardRatio(f.EntryPrice, f.TargetPrice, f.StopLossPrice)
	f.Status = ledger.StatusFor(f.MarkPrice(), f.TargetPrice, f.StopLossPrice)
}

// ClearTrade resets the conversion snapshot.
func (f *FocusStock) ClearTrade() {
	f.TradeTaken = false
	f.TradeDate = nil
	f.TradedQuantity = 0
	f.TradedEntryPrice = nil
	f.TradedPositionID = nil
}
