package costs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dkarag/finboard/internal/domain"
)

var refNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func profile(rate, min float64) domain.BrokerProfile {
	return domain.BrokerProfile{Broker: "alpha", CommissionRate: rate, MinCommission: min}
}

func TestEstimateCommission(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		rate     float64
		min      float64
		expected float64
	}{
		{"rate applies above minimum", 10000, 0.003, 5, 30},
		{"minimum floors small trades", 100, 0.003, 5, 5},
		{"zero amount still pays minimum", 0, 0.003, 5, 5},
		{"exactly at the floor", 5000, 0.001, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateCommission(tt.amount, profile(tt.rate, tt.min))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsLongTermExempt(t *testing.T) {
	params := DefaultTaxParams()

	tests := []struct {
		name     string
		purchase time.Time
		expected bool
	}{
		{"held four years", refNow.AddDate(-4, 0, 0), true},
		{"held eighteen months", refNow.AddDate(-1, -6, 0), false},
		{"held just over three years", refNow.AddDate(-3, 0, -2), true},
		{"zero purchase date", time.Time{}, false},
		{"purchase in the future", refNow.AddDate(0, 1, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsLongTermExempt(tt.purchase, refNow, params.ExemptYears)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEstimateTax(t *testing.T) {
	params := DefaultTaxParams()
	pos := domain.Position{
		Ticker:       "GAZP",
		Broker:       "alpha",
		CostBasis:    10000,
		PurchaseDate: refNow.AddDate(-1, 0, 0),
	}

	t.Run("standard bracket", func(t *testing.T) {
		got := EstimateTax(pos, 15000, 0, refNow, params)
		assert.Equal(t, 650.0, got) // 5000 gain * 13%
	})

	t.Run("high bracket above income threshold", func(t *testing.T) {
		got := EstimateTax(pos, 15000, 6_000_000, refNow, params)
		assert.Equal(t, 750.0, got) // 5000 gain * 15%
	})

	t.Run("loss pays nothing", func(t *testing.T) {
		got := EstimateTax(pos, 8000, 6_000_000, refNow, params)
		assert.Equal(t, 0.0, got)
	})

	t.Run("long-term exempt pays nothing regardless of income", func(t *testing.T) {
		old := pos
		old.PurchaseDate = refNow.AddDate(-5, 0, 0)
		got := EstimateTax(old, 15000, 6_000_000, refNow, params)
		assert.Equal(t, 0.0, got)
	})
}

func TestIsCostEffective(t *testing.T) {
	assert.False(t, IsCostEffective(0, 0, DefaultMaxCostRatio))
	assert.False(t, IsCostEffective(-100, 1, DefaultMaxCostRatio))
	assert.True(t, IsCostEffective(10000, 499, 0.05))   // 4.99%
	assert.False(t, IsCostEffective(10000, 500, 0.05))  // exactly at the ratio
	assert.False(t, IsCostEffective(10000, 2000, 0.05)) // 20%
}

func TestCalculateImpact(t *testing.T) {
	params := DefaultTaxParams()
	positions := []domain.Position{
		{Ticker: "SBER", Broker: "alpha", CostBasis: 4000, PurchaseDate: refNow.AddDate(-1, 0, 0)},
	}
	profiles := []domain.BrokerProfile{profile(0.003, 5)}

	t.Run("commission plus tax on sells", func(t *testing.T) {
		actions := []domain.TradeAction{
			{Broker: "alpha", Ticker: "SBER", Direction: domain.DirectionSell, EstimatedAmount: 10000},
		}
		impact := CalculateImpact(actions, positions, profiles, "frees capital", 0, refNow, params)

		assert.Equal(t, 30.0, impact.EstimatedCommission)
		assert.Equal(t, 780.0, impact.EstimatedTax) // (10000-4000) * 13%
		assert.Equal(t, 810.0, impact.TotalCost)
		assert.Equal(t, "frees capital", impact.PortfolioImprovement)
	})

	t.Run("buys pay commission only", func(t *testing.T) {
		actions := []domain.TradeAction{
			{Broker: "alpha", Ticker: "SBER", Direction: domain.DirectionBuy, EstimatedAmount: 10000},
		}
		impact := CalculateImpact(actions, positions, profiles, "", 0, refNow, params)

		assert.Equal(t, 30.0, impact.EstimatedCommission)
		assert.Equal(t, 0.0, impact.EstimatedTax)
	})

	t.Run("unknown broker contributes zero", func(t *testing.T) {
		actions := []domain.TradeAction{
			{Broker: "ghost", Ticker: "SBER", Direction: domain.DirectionSell, EstimatedAmount: 10000},
		}
		impact := CalculateImpact(actions, positions, profiles, "", 0, refNow, params)

		assert.Equal(t, 0.0, impact.EstimatedCommission)
		assert.Equal(t, 0.0, impact.EstimatedTax) // position at alpha, sale at ghost: no match
	})

	t.Run("unmatched sell skips tax", func(t *testing.T) {
		actions := []domain.TradeAction{
			{Broker: "alpha", Ticker: "NOPE", Direction: domain.DirectionSell, EstimatedAmount: 10000},
		}
		impact := CalculateImpact(actions, positions, profiles, "", 0, refNow, params)

		assert.Equal(t, 30.0, impact.EstimatedCommission)
		assert.Equal(t, 0.0, impact.EstimatedTax)
	})

	t.Run("empty action set", func(t *testing.T) {
		impact := CalculateImpact(nil, positions, profiles, "", 0, refNow, params)
		assert.Equal(t, 0.0, impact.TotalCost)
	})
}
