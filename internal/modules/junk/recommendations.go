package junk

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkarag/finboard/internal/domain"
	"github.com/dkarag/finboard/internal/modules/costs"
)

// Recommendations turns a junk report into close_position recommendations.
// Positions whose commission would eat more than the cost-effectiveness
// ratio of their own value are dropped; positions at a broker with no
// profile are kept, since no cost data means no gate to apply.
func (d *Detector) Recommendations(
	report Report,
	portfolio domain.Portfolio,
	profiles []domain.BrokerProfile,
	annualIncome float64,
	now time.Time,
	taxParams costs.TaxParams,
) []domain.Recommendation {
	byBroker := costs.ProfilesByBroker(profiles)

	positions := make(map[string]domain.Position, len(portfolio.Positions))
	for _, pos := range portfolio.Positions {
		positions[posKey(pos.Ticker, pos.Broker)] = pos
	}

	var recs []domain.Recommendation
	for _, j := range report.Positions {
		if profile, ok := byBroker[j.Broker]; ok {
			commission := costs.EstimateCommission(j.CurrentValue, profile)
			if !costs.IsCostEffective(j.CurrentValue, commission, costs.DefaultMaxCostRatio) {
				d.log.Debug().
					Str("ticker", j.Ticker).
					Str("broker", j.Broker).
					Float64("commission", commission).
					Msg("Closing not cost-effective, skipping")
				continue
			}
		}

		action := domain.TradeAction{
			Broker:          j.Broker,
			Ticker:          j.Ticker,
			Direction:       domain.DirectionSell,
			EstimatedAmount: j.CurrentValue,
		}
		if pos, ok := positions[posKey(j.Ticker, j.Broker)]; ok {
			action.Quantity = pos.Quantity
			action.EstimatedPrice = pos.CurrentPrice
		}

		impact := costs.CalculateImpact(
			[]domain.TradeAction{action},
			portfolio.Positions,
			profiles,
			fmt.Sprintf("Frees %.2f locked in a %s position", j.CurrentValue, j.Reason),
			annualIncome,
			now,
			taxParams,
		)

		recs = append(recs, domain.Recommendation{
			ID:       uuid.New().String(),
			Type:     domain.TypeClosePosition,
			Priority: priorityFor(j.Reason),
			Title:    fmt.Sprintf("Close %s at %s", j.Ticker, j.Broker),
			Reason:   j.Details,
			Impact:   impact,
			Actions:  []domain.TradeAction{action},
			Status:   domain.StatusPending,
		})
	}

	return recs
}

func priorityFor(reason domain.JunkReason) domain.RecommendationPriority {
	switch reason {
	case domain.JunkDelisted:
		return domain.PriorityHigh
	case domain.JunkDeepLoss:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
