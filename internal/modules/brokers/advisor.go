package brokers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkarag/finboard/internal/domain"
	"github.com/dkarag/finboard/pkg/formulas"
	"github.com/dkarag/finboard/pkg/money"
)

// annualTurnover approximates yearly traded volume as a fraction of the
// balance held at a broker, for estimating commission drag.
const annualTurnover = 0.5

const (
	consolidationMinPositions = 3
	consolidationMinPct       = 5.0
	highCostRateMultiple      = 2.0
)

// Summary describes one broker's share of the portfolio.
type Summary struct {
	Broker            string   `json:"broker"`
	TotalValue        float64  `json:"total_value"`
	PositionCount     int      `json:"position_count"`
	PctOfPortfolio    float64  `json:"pct_of_portfolio"`
	AvgCommissionRate float64  `json:"avg_commission_rate"`
	SuitableFor       []string `json:"suitable_for,omitempty"`
}

// Plan is the consolidation advice for one snapshot.
type Plan struct {
	CurrentDistribution []Summary               `json:"current_distribution"`
	Recommendations     []domain.Recommendation `json:"recommendations"`
	SavingsEstimate     float64                 `json:"savings_estimate"`
	WeightedAvgRate     float64                 `json:"weighted_avg_rate"`
}

// Advisor recommends migrating small or expensive broker accounts into the
// cheapest broker, with an annualized commission-savings estimate.
type Advisor struct {
	log zerolog.Logger
}

// NewAdvisor creates a broker consolidation advisor.
func NewAdvisor(log zerolog.Logger) *Advisor {
	return &Advisor{
		log: log.With().Str("service", "broker_advisor").Logger(),
	}
}

// Analyze summarizes per-broker exposure and produces transfer
// recommendations toward the lowest-commission broker.
func (a *Advisor) Analyze(portfolio domain.Portfolio, profiles []domain.BrokerProfile) Plan {
	summaries := a.summarize(portfolio, profiles)

	plan := Plan{
		CurrentDistribution: summaries,
		Recommendations:     []domain.Recommendation{},
	}
	if len(summaries) == 0 {
		return plan
	}

	values := make([]float64, len(summaries))
	rates := make([]float64, len(summaries))
	for i, s := range summaries {
		values[i] = s.TotalValue
		rates[i] = s.AvgCommissionRate
	}
	plan.WeightedAvgRate = formulas.WeightedMean(rates, values)

	if len(summaries) < 2 {
		return plan
	}

	byBroker := make(map[string]domain.BrokerProfile, len(profiles))
	for _, p := range profiles {
		byBroker[p.Broker] = p
	}

	// Cheapest broker among those with a known commission schedule.
	// Brokers with no profile carry no cost data and cannot be a target.
	cheapest, ok := a.cheapestBroker(summaries, byBroker)
	if !ok {
		return plan
	}

	covered := make(map[string]bool)
	for _, s := range summaries {
		if s.Broker == cheapest.Broker {
			continue
		}
		if _, known := byBroker[s.Broker]; !known {
			// No commission schedule, no savings math to offer.
			continue
		}
		if s.PositionCount >= consolidationMinPositions && s.PctOfPortfolio >= consolidationMinPct {
			continue
		}
		savings := s.TotalValue * annualTurnover * (s.AvgCommissionRate - cheapest.AvgCommissionRate)
		plan.Recommendations = append(plan.Recommendations, domain.Recommendation{
			ID:       uuid.New().String(),
			Type:     domain.TypeTransfer,
			Priority: domain.PriorityLow,
			Title:    fmt.Sprintf("Consolidate %s into %s", s.Broker, cheapest.Broker),
			Reason: fmt.Sprintf("%s holds only %d positions (%.1f%% of portfolio); moving the balance to %s saves roughly %.2f a year in commissions",
				s.Broker, s.PositionCount, s.PctOfPortfolio, cheapest.Broker, money.Round2(savings)),
			Impact: domain.RecommendationImpact{
				PortfolioImprovement: fmt.Sprintf("One fewer fragmented account, ~%.2f/year lower commission drag", money.Round2(savings)),
			},
			Status: domain.StatusPending,
		})
		covered[s.Broker] = true
	}

	for _, s := range summaries {
		if s.Broker == cheapest.Broker || covered[s.Broker] {
			continue
		}
		if _, known := byBroker[s.Broker]; !known {
			continue
		}
		if s.AvgCommissionRate <= cheapest.AvgCommissionRate*highCostRateMultiple {
			continue
		}
		plan.Recommendations = append(plan.Recommendations, domain.Recommendation{
			ID:       uuid.New().String(),
			Type:     domain.TypeTransfer,
			Priority: domain.PriorityMedium,
			Title:    fmt.Sprintf("High commissions at %s", s.Broker),
			Reason: fmt.Sprintf("%s charges %.3f%% per trade, more than double the %.3f%% at %s",
				s.Broker, s.AvgCommissionRate*100, cheapest.AvgCommissionRate*100, cheapest.Broker),
			Impact: domain.RecommendationImpact{
				PortfolioImprovement: fmt.Sprintf("Trading at %s instead cuts the per-trade rate by %.3f%%",
					cheapest.Broker, (s.AvgCommissionRate-cheapest.AvgCommissionRate)*100),
			},
			Status: domain.StatusPending,
		})
	}

	savings := 0.0
	for _, s := range summaries {
		if s.AvgCommissionRate > cheapest.AvgCommissionRate {
			savings += s.TotalValue * annualTurnover * (s.AvgCommissionRate - cheapest.AvgCommissionRate)
		}
	}
	plan.SavingsEstimate = money.Round2(savings)

	a.log.Debug().
		Int("brokers", len(summaries)).
		Int("recommendations", len(plan.Recommendations)).
		Float64("savings_estimate", plan.SavingsEstimate).
		Msg("Broker consolidation analysis completed")

	return plan
}

// summarize groups positions by broker, preserving first-seen order.
func (a *Advisor) summarize(portfolio domain.Portfolio, profiles []domain.BrokerProfile) []Summary {
	byBroker := make(map[string]domain.BrokerProfile, len(profiles))
	for _, p := range profiles {
		byBroker[p.Broker] = p
	}

	index := make(map[string]int)
	var summaries []Summary
	for _, pos := range portfolio.Positions {
		i, ok := index[pos.Broker]
		if !ok {
			i = len(summaries)
			index[pos.Broker] = i
			s := Summary{Broker: pos.Broker}
			if profile, known := byBroker[pos.Broker]; known {
				s.AvgCommissionRate = profile.CommissionRate
				s.SuitableFor = profile.SuitableFor
			}
			summaries = append(summaries, s)
		}
		summaries[i].TotalValue += pos.CurrentValue
		summaries[i].PositionCount++
	}

	values := make([]float64, len(summaries))
	for i, s := range summaries {
		values[i] = s.TotalValue
	}
	for i, pct := range formulas.Percentages(values) {
		summaries[i].PctOfPortfolio = money.Round2(pct)
		summaries[i].TotalValue = money.Round2(summaries[i].TotalValue)
	}

	return summaries
}

func (a *Advisor) cheapestBroker(summaries []Summary, profiles map[string]domain.BrokerProfile) (Summary, bool) {
	var cheapest Summary
	found := false
	for _, s := range summaries {
		if _, known := profiles[s.Broker]; !known {
			continue
		}
		if !found || s.AvgCommissionRate < cheapest.AvgCommissionRate {
			cheapest = s
			found = true
		}
	}
	return cheapest, found
}
