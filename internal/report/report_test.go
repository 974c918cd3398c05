package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebook/internal/ledger"
	"tradebook/internal/models"
)

var now = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

func position(t *testing.T, in ledger.Input) models.Position {
	t.Helper()
	d, fe := ledger.Validate(in, now)
	require.Nil(t, fe)
	var p models.Position
	p.ApplyDraft(d)
	return p
}

func closed(t *testing.T, symbol, entry, exit, entryDate string, qty string) models.Position {
	return position(t, ledger.Input{
		Symbol:     symbol,
		EntryPrice: ledger.NewNumber(entry),
		Quantity:   ledger.NewNumber(qty),
		EntryDate:  entryDate,
		Status:     "CLOSED",
		ExitPrice:  ledger.NewNumber(exit),
		ExitDate:   entryDate,
	})
}

func open(t *testing.T, symbol, entry, current string) models.Position {
	return position(t, ledger.Input{
		Symbol:       symbol,
		EntryPrice:   ledger.NewNumber(entry),
		Quantity:     ledger.NewNumber("10"),
		EntryDate:    "2024-05-01",
		CurrentPrice: ledger.NewNumber(current),
	})
}

// book holds three closed trades (+100 at 10%, -100 at -10%, +100 at 20%)
// and one open trade 200 in the money.
func book(t *testing.T) []models.Position {
	return []models.Position{
		closed(t, "TCS", "100", "110", "2024-02-10", "10"),
		closed(t, "INFY", "200", "180", "2024-02-20", "5"),
		closed(t, "HDFC", "50", "60", "2024-01-05", "10"),
		open(t, "WIPRO", "400", "420"),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(book(t))

	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 1, s.OpenTrades)
	assert.Equal(t, 3, s.ClosedTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.True(t, s.TotalInvestment.Equal(decimal.NewFromInt(1000+1000+500+4000)), s.TotalInvestment.String())
	assert.True(t, s.RealizedPnL.Equal(decimal.NewFromInt(100)), s.RealizedPnL.String())
	assert.True(t, s.UnrealizedPnL.Equal(decimal.NewFromInt(200)), s.UnrealizedPnL.String())
	assert.Equal(t, "66.67", s.WinRate.StringFixed(2))
	assert.Equal(t, "6.6667", s.AverageReturn.StringFixed(4))
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalTrades)
	assert.True(t, s.WinRate.IsZero())
	assert.True(t, s.AverageReturn.IsZero())
}

func TestSummarizeIsOrderIndependent(t *testing.T) {
	positions := book(t)
	reversed := make([]models.Position, len(positions))
	for i := range positions {
		reversed[len(positions)-1-i] = positions[i]
	}
	first := Summarize(positions)
	assert.Equal(t, first, Summarize(positions))
	assert.True(t, first.RealizedPnL.Equal(Summarize(reversed).RealizedPnL))
	assert.True(t, first.AverageReturn.Equal(Summarize(reversed).AverageReturn))
}

func TestMonthly(t *testing.T) {
	buckets := Monthly(book(t))

	require.Len(t, buckets, 2)
	assert.Equal(t, 2024, buckets[0].Year)
	assert.Equal(t, 1, buckets[0].Month)
	assert.True(t, buckets[0].PnL.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, buckets[0].Trades)

	assert.Equal(t, 2, buckets[1].Month)
	assert.True(t, buckets[1].PnL.IsZero())
	assert.Equal(t, 2, buckets[1].Trades)
}

func TestTeamStats(t *testing.T) {
	stats := TeamStats(Summarize(book(t)), now)
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	require.NotNil(t, stats.StatsUpdatedAt)
	assert.Equal(t, now, *stats.StatsUpdatedAt)
}
