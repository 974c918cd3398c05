package ledger

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDerive(t *testing.T) {
	t.Run("open without mark price reports zero pnl", func(t *testing.T) {
		d := Derive(dec("3800"), 10, Open{}, nil)
		assert.True(t, d.TotalInvestment.Equal(dec("38000")))
		assert.True(t, d.PnL.IsZero())
		assert.True(t, d.PnLPercentage.IsZero())
	})

	t.Run("open uses mark price", func(t *testing.T) {
		cp := dec("3850")
		d := Derive(dec("3800"), 10, Open{}, &cp)
		assert.True(t, d.PnL.Equal(dec("500")), d.PnL.String())
	})

	t.Run("closed uses exit price and ignores mark", func(t *testing.T) {
		cp := dec("1")
		d := Derive(dec("3800"), 10, Closed{ExitPrice: dec("3900")}, &cp)
		assert.True(t, d.PnL.Equal(dec("1000")))
		assert.Equal(t, "2.63", d.PnLPercentage.Round(2).String())
	})

	t.Run("loss is negative", func(t *testing.T) {
		d := Derive(dec("100"), 3, Closed{ExitPrice: dec("90")}, nil)
		assert.True(t, d.PnL.Equal(dec("-30")))
		assert.True(t, d.PnLPercentage.Equal(dec("-10")))
	})
}

func TestPnLPercentageZeroEntry(t *testing.T) {
	assert.True(t, PnLPercentage(dec("10"), decimal.Zero).IsZero())
	assert.True(t, PotentialReturnPercentage(decimal.Zero, dec("10")).IsZero())
}

func TestWeightedAverage(t *testing.T) {
	assert.True(t, WeightedAverage(5, dec("1510"), 5, dec("1530")).Equal(dec("1520")))
	assert.True(t, WeightedAverage(1, dec("100"), 3, dec("200")).Equal(dec("175")))
	assert.True(t, WeightedAverage(0, decimal.Zero, 0, decimal.Zero).IsZero())
	assert.True(t, WeightedAverage(math.MaxInt64, dec("1"), 1, dec("1")).Equal(dec("1")))
}

func TestFocusMetrics(t *testing.T) {
	assert.True(t, PotentialReturn(dec("1500"), dec("1600")).Equal(dec("100")))
	assert.Equal(t, "6.67", PotentialReturnPercentage(dec("1500"), dec("1600")).Round(2).String())
	assert.True(t, RiskRewardRatio(dec("100"), dec("130"), dec("90")).Equal(dec("3")))
	assert.True(t, RiskRewardRatio(dec("100"), dec("130"), dec("100")).IsZero())
	assert.True(t, RiskRewardRatio(dec("100"), dec("130"), dec("110")).IsZero())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name  string
		price string
		stop  string
		want  FocusStatus
	}{
		{"at target", "1600", "0", FocusStatusGreen},
		{"above target", "1700", "1400", FocusStatusGreen},
		{"at stop", "1400", "1400", FocusStatusRed},
		{"below stop", "1300", "1400", FocusStatusRed},
		{"between", "1500", "1400", FocusStatusNeutral},
		{"no stop set", "1000", "0", FocusStatusNeutral},
		{"no price", "0", "1400", FocusStatusNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(dec(tt.price), dec("1600"), dec(tt.stop)))
		})
	}
}
