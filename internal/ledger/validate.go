package ledger

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxSymbolLength bounds a normalized ticker symbol.
const MaxSymbolLength = 20

// Status is the lifecycle state of a position as stored and exchanged.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Direction records the trade side. P&L does not branch on it.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Lifecycle is either Open or Closed. Exit fields only exist on Closed,
// so a closed position without an exit price cannot be represented.
type Lifecycle interface {
	Status() Status
	lifecycle()
}

// Open is a position still held.
type Open struct{}

// Closed is a position with a realized exit.
type Closed struct {
	ExitPrice decimal.Decimal
	ExitDate  time.Time
}

func (Open) Status() Status   { return StatusOpen }
func (Open) lifecycle()       {}
func (Closed) Status() Status { return StatusClosed }
func (Closed) lifecycle()     {}

// Input is a proposed position state in caller form.
type Input struct {
	Symbol       string `json:"symbol"`
	Direction    string `json:"direction"`
	EntryPrice   Number `json:"entry_price" swaggertype:"number"`
	Quantity     Number `json:"quantity" swaggertype:"integer"`
	EntryDate    string `json:"entry_date"`
	Status       string `json:"status"`
	ExitPrice    Number `json:"exit_price" swaggertype:"number"`
	ExitDate     string `json:"exit_date"`
	CurrentPrice Number `json:"current_price" swaggertype:"number"`
	Notes        string `json:"notes"`
	Strategy     string `json:"strategy"`
	Setup        string `json:"setup"`
}

// Patch is a partial update. Nil pointers and unset numbers keep the stored value.
type Patch struct {
	Symbol       *string `json:"symbol"`
	Direction    *string `json:"direction"`
	EntryPrice   Number  `json:"entry_price" swaggertype:"number"`
	Quantity     Number  `json:"quantity" swaggertype:"integer"`
	EntryDate    *string `json:"entry_date"`
	Status       *string `json:"status"`
	ExitPrice    Number  `json:"exit_price" swaggertype:"number"`
	ExitDate     *string `json:"exit_date"`
	CurrentPrice Number  `json:"current_price" swaggertype:"number"`
	Notes        *string `json:"notes"`
	Strategy     *string `json:"strategy"`
	Setup        *string `json:"setup"`
}

// Apply merges p onto in and returns the proposed state.
func (p Patch) Apply(in Input) Input {
	setString(&in.Symbol, p.Symbol)
	setString(&in.Direction, p.Direction)
	setNumber(&in.EntryPrice, p.EntryPrice)
	setNumber(&in.Quantity, p.Quantity)
	setString(&in.EntryDate, p.EntryDate)
	setString(&in.Status, p.Status)
	setNumber(&in.ExitPrice, p.ExitPrice)
	setString(&in.ExitDate, p.ExitDate)
	setNumber(&in.CurrentPrice, p.CurrentPrice)
	setString(&in.Notes, p.Notes)
	setString(&in.Strategy, p.Strategy)
	setString(&in.Setup, p.Setup)
	return in
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setNumber(dst *Number, v Number) {
	if v.IsSet() {
		*dst = v
	}
}

// Draft is a validated position state ready for persistence.
type Draft struct {
	Symbol       string
	Direction    Direction
	EntryPrice   decimal.Decimal
	Quantity     int64
	EntryDate    time.Time
	Lifecycle    Lifecycle
	CurrentPrice *decimal.Decimal
	Notes        string
	Strategy     string
	Setup        string
}

// Derived runs the calculator over the draft.
func (d Draft) Derived() Derived {
	return Derive(d.EntryPrice, d.Quantity, d.Lifecycle, d.CurrentPrice)
}

// Month and Year of the entry date.
func (d Draft) Month() int { return int(d.EntryDate.Month()) }
func (d Draft) Year() int  { return d.EntryDate.Year() }

// FieldError names the first field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func fieldErr(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// Validate checks a proposed position state against the lifecycle rules and
// returns the first failure. now bounds entry and exit dates.
func Validate(in Input, now time.Time) (Draft, *FieldError) {
	var d Draft

	d.Symbol = NormalizeSymbol(in.Symbol)
	if d.Symbol == "" {
		return Draft{}, fieldErr("symbol", "is required")
	}
	if len(d.Symbol) > MaxSymbolLength {
		return Draft{}, fieldErr("symbol", "must be at most 20 characters")
	}

	var fe *FieldError
	if d.EntryPrice, fe = positivePrice("entry_price", in.EntryPrice, true); fe != nil {
		return Draft{}, fe
	}
	if d.Quantity, fe = wholeQuantity("quantity", in.Quantity); fe != nil {
		return Draft{}, fe
	}

	today := DateOf(now)
	if d.EntryDate, fe = pastDate("entry_date", in.EntryDate, today); fe != nil {
		return Draft{}, fe
	}

	switch dir := Direction(strings.ToUpper(strings.TrimSpace(in.Direction))); dir {
	case "":
		d.Direction = DirectionBuy
	case DirectionBuy, DirectionSell:
		d.Direction = dir
	default:
		return Draft{}, fieldErr("direction", "must be BUY or SELL")
	}

	status := Status(strings.ToUpper(strings.TrimSpace(in.Status)))
	if status == "" {
		status = StatusOpen
	}
	if status != StatusOpen && status != StatusClosed {
		return Draft{}, fieldErr("status", "must be OPEN or CLOSED")
	}

	if in.CurrentPrice.IsSet() && in.CurrentPrice.Raw() != "" {
		cp, fe := positivePrice("current_price", in.CurrentPrice, false)
		if fe != nil {
			return Draft{}, fe
		}
		d.CurrentPrice = &cp
	}

	if status == StatusClosed {
		exitPrice, fe := positivePrice("exit_price", in.ExitPrice, true)
		if fe != nil {
			return Draft{}, fe
		}
		exitDate, fe := pastDate("exit_date", in.ExitDate, today)
		if fe != nil {
			return Draft{}, fe
		}
		if exitDate.Before(d.EntryDate) {
			return Draft{}, fieldErr("exit_date", "must be on or after the entry date")
		}
		d.Lifecycle = Closed{ExitPrice: exitPrice, ExitDate: exitDate}
		mark := exitPrice
		d.CurrentPrice = &mark
	} else {
		d.Lifecycle = Open{}
	}

	d.Notes = strings.TrimSpace(in.Notes)
	d.Strategy = strings.TrimSpace(in.Strategy)
	d.Setup = strings.TrimSpace(in.Setup)
	return d, nil
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthYear returns the reporting bucket of t.
func MonthYear(t time.Time) (month, year int) {
	return int(t.Month()), t.Year()
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), true
	}
	return time.Time{}, false
}

func positivePrice(field string, n Number, required bool) (decimal.Decimal, *FieldError) {
	if !n.IsSet() || n.Raw() == "" {
		if required {
			return decimal.Zero, fieldErr(field, "is required")
		}
		return decimal.Zero, nil
	}
	v, err := n.Decimal()
	if err != nil {
		return decimal.Zero, fieldErr(field, "must be a number")
	}
	if !v.IsPositive() {
		return decimal.Zero, fieldErr(field, "must be greater than 0")
	}
	return v, nil
}

func wholeQuantity(field string, n Number) (int64, *FieldError) {
	if !n.IsSet() || n.Raw() == "" {
		return 0, fieldErr(field, "is required")
	}
	v, err := n.Decimal()
	if err != nil {
		return 0, fieldErr(field, "must be a number")
	}
	if !v.Equal(v.Truncate(0)) {
		return 0, fieldErr(field, "must be a whole number")
	}
	if v.LessThan(decimal.NewFromInt(1)) {
		return 0, fieldErr(field, "must be at least 1")
	}
	if v.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fieldErr(field, "is too large")
	}
	return v.IntPart(), nil
}

func pastDate(field, raw string, today time.Time) (time.Time, *FieldError) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, fieldErr(field, "is required")
	}
	t, ok := ParseDate(raw)
	if !ok {
		return time.Time{}, fieldErr(field, "must be a date (YYYY-MM-DD)")
	}
	if t.After(today) {
		return time.Time{}, fieldErr(field, "cannot be in the future")
	}
	return t, nil
}
