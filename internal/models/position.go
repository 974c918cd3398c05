package models

import (
	"time"

	"github.com/shopspring/decimal"

	"tradebook/internal/ledger"
)

// OwnerType says whose book a position belongs to.
type OwnerType string

const (
	OwnerUser OwnerType = "user"
	OwnerTeam OwnerType = "team"
)

// Owner scopes every position read and write.
type Owner struct {
	Type OwnerType
	ID   string
}

// UserOwner is the personal book of userID.
func UserOwner(userID string) Owner { return Owner{Type: OwnerUser, ID: userID} }

// TeamOwner is the shared book of teamID.
func TeamOwner(teamID string) Owner { return Owner{Type: OwnerTeam, ID: teamID} }

// Position is a tracked stock holding, personal or team owned.
// TotalInvestment, PnL, PnLPercentage, Month and Year are derived on every write.
type Position struct {
	Base
	OwnerType OwnerType `gorm:"size:10;not null;index:idx_positions_owner_status,priority:1;index:idx_positions_owner_period,priority:1;index:idx_positions_owner_symbol,priority:1" json:"owner_type"`
	OwnerID   string    `gorm:"type:uuid;not null;index:idx_positions_owner_status,priority:2;index:idx_positions_owner_period,priority:2;index:idx_positions_owner_symbol,priority:2" json:"owner_id"`
	CreatedBy string    `gorm:"type:uuid;not null" json:"created_by"`

	Symbol    string           `gorm:"size:20;not null;index:idx_positions_owner_symbol,priority:3" json:"symbol"`
	Direction ledger.Direction `gorm:"size:4;not null;default:'BUY'" json:"direction"`
	Status    ledger.Status    `gorm:"size:6;not null;default:'OPEN';index:idx_positions_owner_status,priority:3" json:"status"`

	EntryPrice   decimal.Decimal  `gorm:"type:numeric(20,6);not null" json:"entry_price"`
	Quantity     int64            `gorm:"not null" json:"quantity"`
	EntryDate    time.Time        `gorm:"type:date;not null" json:"entry_date"`
	ExitPrice    *decimal.Decimal `gorm:"type:numeric(20,6)" json:"exit_price,omitempty"`
	ExitDate     *time.Time       `gorm:"type:date" json:"exit_date,omitempty"`
	CurrentPrice *decimal.Decimal `gorm:"type:numeric(20,6)" json:"current_price,omitempty"`

	TotalInvestment decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"total_investment"`
	PnL             decimal.Decimal `gorm:"column:pnl;type:numeric;not null;default:0" json:"pnl"`
	PnLPercentage   decimal.Decimal `gorm:"column:pnl_percentage;type:numeric;not null;default:0" json:"pnl_percentage"`

	Month int `gorm:"not null;index:idx_positions_owner_period,priority:4" json:"month"`
	Year  int `gorm:"not null;index:idx_positions_owner_period,priority:3" json:"year"`

	Notes    string `gorm:"type:text" json:"notes,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Setup    string `json:"setup,omitempty"`
}

// Owner returns the scope the position belongs to.
func (p *Position) Owner() Owner {
	return Owner{Type: p.OwnerType, ID: p.OwnerID}
}

// Lifecycle rebuilds the tagged lifecycle from the stored columns.
func (p *Position) Lifecycle() ledger.Lifecycle {
	if p.Status == ledger.StatusClosed && p.ExitPrice != nil && p.ExitDate != nil {
		return ledger.Closed{ExitPrice: *p.ExitPrice, ExitDate: *p.ExitDate}
	}
	return ledger.Open{}
}

// Input renders the stored state as a proposed state, the base an update patch is merged onto.
func (p *Position) Input() ledger.Input {
	in := ledger.Input{
		Symbol:     p.Symbol,
		Direction:  string(p.Direction),
		EntryPrice: ledger.NumberFrom(p.EntryPrice),
		Quantity:   ledger.NewNumber(decimal.NewFromInt(p.Quantity).String()),
		EntryDate:  p.EntryDate.Format(time.DateOnly),
		Status:     string(p.Status),
		Notes:      p.Notes,
		Strategy:   p.Strategy,
		Setup:      p.Setup,
	}
	if p.ExitPrice != nil {
		in.ExitPrice = ledger.NumberFrom(*p.ExitPrice)
	}
	if p.ExitDate != nil {
		in.ExitDate = p.ExitDate.Format(time.DateOnly)
	}
	if p.CurrentPrice != nil {
		in.CurrentPrice = ledger.NumberFrom(*p.CurrentPrice)
	}
	return in
}

// ApplyDraft copies a validated state onto the record and recomputes every derived field.
func (p *Position) ApplyDraft(d ledger.Draft) {
	p.Symbol = d.Symbol
	p.Direction = d.Direction
	p.EntryPrice = d.EntryPrice
	p.Quantity = d.Quantity
	p.EntryDate = d.EntryDate
	p.Status = d.Lifecycle.Status()
	p.Notes = d.Notes
	p.Strategy = d.Strategy
	p.Setup = d.Setup
	p.CurrentPrice = d.CurrentPrice

	switch lc := d.Lifecycle.(type) {
	case ledger.Closed:
		exitPrice, exitDate := lc.ExitPrice, lc.ExitDate
		p.ExitPrice = &exitPrice
		p.ExitDate = &exitDate
	default:
		p.ExitPrice = nil
		p.ExitDate = nil
	}

	p.Month, p.Year = ledger.MonthYear(d.EntryDate)
	p.Recompute()
}

// Recompute refreshes TotalInvestment, PnL and PnLPercentage from the stored prices.
func (p *Position) Recompute() {
	derived := ledger.Derive(p.EntryPrice, p.Quantity, p.Lifecycle(), p.CurrentPrice)
	p.TotalInvestment = derived.TotalInvestment
	p.PnL = derived.PnL
	p.PnLPercentage = derived.PnLPercentage
}

// IsOpen reports whether the position is still held.
func (p *Position) IsOpen() bool { return p.Status == ledger.StatusOpen }
