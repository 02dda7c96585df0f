package costs

import (
	"time"

	"github.com/dkarag/finboard/internal/domain"
	"github.com/dkarag/finboard/pkg/money"
)

// DefaultMaxCostRatio is the maximum fraction of a trade's value that
// commission+tax may consume for the trade to still be worth recommending.
const DefaultMaxCostRatio = 0.05

// hoursPerYear uses a 365.25-day year so leap years don't shift the
// long-term exemption boundary.
const hoursPerYear = 365.25 * 24

// TaxParams describes the domestic capital-gains scheme: a flat standard
// rate, a higher rate above an annual-income threshold, and a long-term
// holding exemption after a fixed number of years.
type TaxParams struct {
	StandardRate    float64
	HighRate        float64
	IncomeThreshold float64
	ExemptYears     float64
}

// DefaultTaxParams returns the NDFL-style scheme used when callers don't
// override rates.
func DefaultTaxParams() TaxParams {
	return TaxParams{
		StandardRate:    0.13,
		HighRate:        0.15,
		IncomeThreshold: 5_000_000,
		ExemptYears:     3,
	}
}

// EstimateCommission returns the commission for a trade of the given amount
// under the broker's schedule: amount*rate floored at the minimum commission.
// A zero amount still pays the minimum.
func EstimateCommission(amount float64, profile domain.BrokerProfile) float64 {
	commission := amount * profile.CommissionRate
	if commission < profile.MinCommission {
		commission = profile.MinCommission
	}
	return money.Round2(commission)
}

// IsLongTermExempt reports whether a position bought at purchaseDate has
// been held long enough, as of now, to qualify for the long-term holding
// exemption.
func IsLongTermExempt(purchaseDate, now time.Time, exemptYears float64) bool {
	if purchaseDate.IsZero() || purchaseDate.After(now) {
		return false
	}
	years := now.Sub(purchaseDate).Hours() / hoursPerYear
	return years >= exemptYears
}

// EstimateTax returns the capital-gains tax due on selling sellAmount worth
// of the position as of now. Long-term-exempt holdings and losses pay
// nothing; gains pay the high rate when annual income exceeds the threshold.
func EstimateTax(pos domain.Position, sellAmount, annualIncome float64, now time.Time, params TaxParams) float64 {
	if IsLongTermExempt(pos.PurchaseDate, now, params.ExemptYears) {
		return 0
	}
	gain := sellAmount - pos.CostBasis
	if gain <= 0 {
		return 0
	}
	rate := params.StandardRate
	if annualIncome > params.IncomeThreshold {
		rate = params.HighRate
	}
	return money.Round2(gain * rate)
}

// ProfilesByBroker indexes broker profiles for lookup during impact math.
func ProfilesByBroker(profiles []domain.BrokerProfile) map[string]domain.BrokerProfile {
	out := make(map[string]domain.BrokerProfile, len(profiles))
	for _, p := range profiles {
		out[p.Broker] = p
	}
	return out
}

// CalculateImpact estimates the total execution cost of a set of proposed
// actions: commission over every action, tax over sells only. Actions whose
// broker has no profile, or sells that match no position, contribute zero
// rather than failing the whole estimate.
func CalculateImpact(
	actions []domain.TradeAction,
	positions []domain.Position,
	profiles []domain.BrokerProfile,
	improvement string,
	annualIncome float64,
	now time.Time,
	params TaxParams,
) domain.RecommendationImpact {
	byBroker := ProfilesByBroker(profiles)

	type posKey struct{ ticker, broker string }
	byPos := make(map[posKey]domain.Position, len(positions))
	for _, p := range positions {
		byPos[posKey{p.Ticker, p.Broker}] = p
	}

	var commission, tax float64
	for _, a := range actions {
		if profile, ok := byBroker[a.Broker]; ok {
			commission += EstimateCommission(a.EstimatedAmount, profile)
		}
		if a.Direction != domain.DirectionSell {
			continue
		}
		if pos, ok := byPos[posKey{a.Ticker, a.Broker}]; ok {
			tax += EstimateTax(pos, a.EstimatedAmount, annualIncome, now, params)
		}
	}

	commission = money.Round2(commission)
	tax = money.Round2(tax)

	return domain.RecommendationImpact{
		EstimatedCommission:  commission,
		EstimatedTax:         tax,
		TotalCost:            money.Round2(commission + tax),
		PortfolioImprovement: improvement,
	}
}

// IsCostEffective is the single gate that suppresses advice whose execution
// cost outweighs its benefit: the cost-to-trade ratio must stay below
// maxCostRatio. Non-positive trade amounts are never cost-effective.
func IsCostEffective(tradeAmount, totalCost, maxCostRatio float64) bool {
	if tradeAmount <= 0 {
		return false
	}
	return totalCost/tradeAmount < maxCostRatio
}
