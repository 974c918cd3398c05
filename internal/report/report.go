// Package report aggregates a set of positions into P&L summaries.
// The functions are pure and order-independent; callers load the full position set.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"tradebook/internal/ledger"
	"tradebook/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Summary is the aggregate view of one owner's book.
type Summary struct {
	TotalTrades     int             `json:"total_trades"`
	OpenTrades      int             `json:"open_trades"`
	ClosedTrades    int             `json:"closed_trades"`
	WinningTrades   int             `json:"winning_trades"`
	LosingTrades    int             `json:"losing_trades"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	RealizedPnL     decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL   decimal.Decimal `json:"unrealized_pnl"`
	WinRate         decimal.Decimal `json:"win_rate"`
	AverageReturn   decimal.Decimal `json:"average_return"`
}

// MonthBucket is the realized P&L of closed positions entered in one month.
type MonthBucket struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	PnL    decimal.Decimal `json:"pnl"`
	Trades int             `json:"trades"`
}

// Summarize counts and sums positions. WinRate and AverageReturn are percentages
// over closed positions and are zero when nothing is closed.
func Summarize(positions []models.Position) Summary {
	s := Summary{
		TotalInvestment: decimal.Zero,
		RealizedPnL:     decimal.Zero,
		UnrealizedPnL:   decimal.Zero,
		WinRate:         decimal.Zero,
		AverageReturn:   decimal.Zero,
	}
	var returns []float64

	for i := range positions {
		p := &positions[i]
		s.TotalTrades++
		s.TotalInvestment = s.TotalInvestment.Add(p.TotalInvestment)

		if p.Status != ledger.StatusClosed {
			s.OpenTrades++
			s.UnrealizedPnL = s.UnrealizedPnL.Add(p.PnL)
			continue
		}

		s.ClosedTrades++
		s.RealizedPnL = s.RealizedPnL.Add(p.PnL)
		switch {
		case p.PnL.IsPositive():
			s.WinningTrades++
		case p.PnL.IsNegative():
			s.LosingTrades++
		}
		returns = append(returns, p.PnLPercentage.InexactFloat64())
	}

	if s.ClosedTrades > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.WinningTrades)).
			Div(decimal.NewFromInt(int64(s.ClosedTrades))).
			Mul(hundred).
			Round(2)
	}
	if len(returns) > 0 {
		s.AverageReturn = decimal.NewFromFloat(stat.Mean(returns, nil)).Round(4)
	}
	return s
}

// Monthly groups closed positions by entry (year, month), oldest first.
func Monthly(positions []models.Position) []MonthBucket {
	type key struct{ year, month int }
	buckets := make(map[key]*MonthBucket)

	for i := range positions {
		p := &positions[i]
		if p.Status != ledger.StatusClosed {
			continue
		}
		k := key{p.Year, p.Month}
		b, ok := buckets[k]
		if !ok {
			b = &MonthBucket{Year: p.Year, Month: p.Month, PnL: decimal.Zero}
			buckets[k] = b
		}
		b.PnL = b.PnL.Add(p.PnL)
		b.Trades++
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// TeamStats converts a summary into the cached team stats columns.
func TeamStats(s Summary, at time.Time) models.TeamStats {
	return models.TeamStats{
		TotalTrades:    s.TotalTrades,
		OpenTrades:     s.OpenTrades,
		ClosedTrades:   s.ClosedTrades,
		WinningTrades:  s.WinningTrades,
		RealizedPnL:    s.RealizedPnL,
		WinRate:        s.WinRate,
		StatsUpdatedAt: &at,
	}
}
