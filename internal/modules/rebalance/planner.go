package rebalance

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkarag/finboard/internal/domain"
	"github.com/dkarag/finboard/internal/modules/costs"
	"github.com/dkarag/finboard/pkg/money"
)

// Input bundles everything the planner needs for one pass. Now is the
// reference time for all holding-age arithmetic.
type Input struct {
	Portfolio      domain.Portfolio
	Deviations     []domain.Deviation
	BrokerProfiles []domain.BrokerProfile
	AnnualIncome   float64
	Now            time.Time
}

// CategoryAllocation is one category's weight in a snapshot.
type CategoryAllocation struct {
	CurrentPct float64 `json:"current_pct"`
	TargetPct  float64 `json:"target_pct"`
}

// Snapshot maps category name to its allocation at a point in the plan.
type Snapshot map[string]CategoryAllocation

// Plan is the planner's output. Snapshots are returned even when the cost
// gate suppressed the recommendation, so callers can still show the
// projected allocation shift.
type Plan struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	TotalCost       float64                 `json:"total_cost"`
	Before          Snapshot                `json:"before"`
	After           Snapshot                `json:"after"`
}

// InstrumentSelector resolves a category-level buy into a concrete
// instrument. Without one the planner emits placeholder buys whose ticker
// is the category name.
type InstrumentSelector interface {
	SelectBuy(category string, dimension domain.DeviationDimension, budget float64) (ticker string, price float64, ok bool)
}

// Planner turns allocation deviations into a minimal, tax-aware set of
// sell/buy trades: harvest losses first, prefer long-term-exempt holdings,
// and fund underweight categories from the sale proceeds.
type Planner struct {
	selector     InstrumentSelector
	taxParams    costs.TaxParams
	maxCostRatio float64
	log          zerolog.Logger
}

// NewPlanner creates a rebalance planner with default tax parameters and
// cost gate.
func NewPlanner(log zerolog.Logger) *Planner {
	return &Planner{
		taxParams:    costs.DefaultTaxParams(),
		maxCostRatio: costs.DefaultMaxCostRatio,
		log:          log.With().Str("service", "rebalance_planner").Logger(),
	}
}

// SetInstrumentSelector installs a buy-side instrument selection strategy.
func (p *Planner) SetInstrumentSelector(s InstrumentSelector) {
	p.selector = s
}

// SetTaxParams overrides the default capital-gains scheme.
func (p *Planner) SetTaxParams(params costs.TaxParams) {
	p.taxParams = params
}

// Plan computes the rebalancing trades for one snapshot.
func (p *Planner) Plan(in Input) Plan {
	before := snapshotFrom(in.Deviations)

	active := activeDeviations(in.Deviations)
	if in.Portfolio.TotalValue <= 0 || len(in.Portfolio.Positions) == 0 || len(active) == 0 {
		return Plan{
			Recommendations: []domain.Recommendation{},
			Before:          before,
			After:           snapshotFrom(in.Deviations),
		}
	}

	var sells []domain.TradeAction
	sold := make(map[string]bool) // ticker|broker already committed to a sell
	soldByCategory := make(map[string]float64)

	for _, dev := range active {
		if dev.DeviationPct <= 0 {
			continue
		}
		excess := dev.DeviationPct / 100 * in.Portfolio.TotalValue
		actions := p.selectSells(in, dev, excess, sold)
		for _, a := range actions {
			soldByCategory[dev.Category] += a.EstimatedAmount
		}
		sells = append(sells, actions...)
	}

	budget := 0.0
	for _, a := range sells {
		budget += a.EstimatedAmount
	}

	buys, boughtByCategory := p.allocateBuys(in, active, budget)

	actions := append(append([]domain.TradeAction{}, sells...), buys...)
	after := projectAfter(in.Deviations, soldByCategory, boughtByCategory, in.Portfolio.TotalValue)

	if len(actions) == 0 {
		return Plan{Recommendations: []domain.Recommendation{}, Before: before, After: after}
	}

	totalVolume := 0.0
	for _, a := range actions {
		totalVolume += a.EstimatedAmount
	}

	impact := costs.CalculateImpact(
		actions,
		in.Portfolio.Positions,
		in.BrokerProfiles,
		improvementText(active),
		in.AnnualIncome,
		in.Now,
		p.taxParams,
	)

	plan := Plan{
		Recommendations: []domain.Recommendation{},
		TotalCost:       impact.TotalCost,
		Before:          before,
		After:           after,
	}

	if !costs.IsCostEffective(totalVolume, impact.TotalCost, p.maxCostRatio) {
		p.log.Info().
			Float64("total_volume", totalVolume).
			Float64("total_cost", impact.TotalCost).
			Msg("Rebalance plan not cost-effective, suppressing recommendation")
		return plan
	}

	plan.Recommendations = append(plan.Recommendations, domain.Recommendation{
		ID:       uuid.New().String(),
		Type:     domain.TypeRebalanceTrade,
		Priority: planPriority(active),
		Title:    fmt.Sprintf("Rebalance %d categories toward target", len(active)),
		Reason:   improvementText(active),
		Impact:   impact,
		Actions:  actions,
		Status:   domain.StatusPending,
	})

	p.log.Info().
		Int("sells", len(sells)).
		Int("buys", len(buys)).
		Float64("total_cost", impact.TotalCost).
		Msg("Rebalance plan created")

	return plan
}

// selectSells walks the category's positions in tax-efficient order and
// accumulates sell actions until the excess amount is covered. Positions
// already committed by an earlier deviation are skipped.
func (p *Planner) selectSells(in Input, dev domain.Deviation, excess float64, sold map[string]bool) []domain.TradeAction {
	var candidates []domain.Position
	for _, pos := range in.Portfolio.Positions {
		if !matchesCategory(pos, dev) {
			continue
		}
		if sold[posKey(pos)] {
			continue
		}
		candidates = append(candidates, pos)
	}

	// Tax-loss harvesting order: losers first, then long-term-exempt
	// holdings, then smallest gains.
	exempt := make(map[string]bool, len(candidates))
	for _, pos := range candidates {
		exempt[posKey(pos)] = costs.IsLongTermExempt(pos.PurchaseDate, in.Now, p.taxParams.ExemptYears)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].UnrealizedReturnPct(), candidates[j].UnrealizedReturnPct()
		li, lj := ri < 0, rj < 0
		if li != lj {
			return li
		}
		ei, ej := exempt[posKey(candidates[i])], exempt[posKey(candidates[j])]
		if ei != ej {
			return ei
		}
		return ri < rj
	})

	var actions []domain.TradeAction
	remaining := excess
	for _, pos := range candidates {
		if remaining <= 0 {
			break
		}
		if pos.CurrentPrice <= 0 {
			continue
		}
		sellValue := math.Min(remaining, pos.CurrentValue)
		qty := math.Floor(sellValue / pos.CurrentPrice)
		if qty <= 0 {
			continue
		}
		amount := qty * pos.CurrentPrice
		actions = append(actions, domain.TradeAction{
			Broker:          pos.Broker,
			Ticker:          pos.Ticker,
			Direction:       domain.DirectionSell,
			Quantity:        qty,
			EstimatedPrice:  pos.CurrentPrice,
			EstimatedAmount: amount,
		})
		sold[posKey(pos)] = true
		remaining -= amount
	}

	return actions
}

// allocateBuys spreads the sale proceeds across underweight categories in
// input order, capping each at its own deficit and the remaining budget.
func (p *Planner) allocateBuys(in Input, active []domain.Deviation, budget float64) ([]domain.TradeAction, map[string]float64) {
	bought := make(map[string]float64)
	var buys []domain.TradeAction

	for _, dev := range active {
		if dev.DeviationPct >= 0 || budget <= 0 {
			continue
		}
		deficit := -dev.DeviationPct / 100 * in.Portfolio.TotalValue
		amount := math.Min(deficit, budget)
		if amount <= 0 {
			continue
		}

		action := domain.TradeAction{
			Ticker:          dev.Category,
			Direction:       domain.DirectionBuy,
			EstimatedAmount: amount,
			Placeholder:     true,
		}
		if p.selector != nil {
			if ticker, price, ok := p.selector.SelectBuy(dev.Category, dev.Dimension, amount); ok && price > 0 {
				qty := math.Floor(amount / price)
				if qty > 0 {
					action = domain.TradeAction{
						Ticker:          ticker,
						Direction:       domain.DirectionBuy,
						Quantity:        qty,
						EstimatedPrice:  price,
						EstimatedAmount: qty * price,
					}
				}
			}
		}

		buys = append(buys, action)
		bought[dev.Category] += action.EstimatedAmount
		budget -= action.EstimatedAmount
	}

	return buys, bought
}

func activeDeviations(devs []domain.Deviation) []domain.Deviation {
	var out []domain.Deviation
	for _, d := range devs {
		if d.Severity == domain.SeverityOK {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matchesCategory(pos domain.Position, dev domain.Deviation) bool {
	switch dev.Dimension {
	case domain.DimensionAssetClass:
		return string(pos.AssetClass) == dev.Category
	case domain.DimensionSector:
		return pos.Sector == dev.Category
	case domain.DimensionIssuer:
		return pos.Ticker == dev.Category
	}
	return false
}

func snapshotFrom(devs []domain.Deviation) Snapshot {
	snap := make(Snapshot, len(devs))
	for _, d := range devs {
		snap[d.Category] = CategoryAllocation{
			CurrentPct: d.CurrentPct,
			TargetPct:  d.TargetPct,
		}
	}
	return snap
}

// projectAfter shifts each category's current weight by the planned sell
// and buy volume.
func projectAfter(devs []domain.Deviation, sold, bought map[string]float64, totalValue float64) Snapshot {
	snap := snapshotFrom(devs)
	if totalValue <= 0 {
		return snap
	}
	for category, alloc := range snap {
		delta := (bought[category] - sold[category]) / totalValue * 100
		alloc.CurrentPct = money.Round2(alloc.CurrentPct + delta)
		snap[category] = alloc
	}
	return snap
}

func planPriority(active []domain.Deviation) domain.RecommendationPriority {
	for _, d := range active {
		if d.Severity == domain.SeverityCritical {
			return domain.PriorityHigh
		}
	}
	return domain.PriorityMedium
}

func improvementText(active []domain.Deviation) string {
	worst := active[0]
	for _, d := range active[1:] {
		if math.Abs(d.DeviationPct) > math.Abs(worst.DeviationPct) {
			worst = d
		}
	}
	return fmt.Sprintf("Closes allocation gaps across %d categories, largest: %s off target by %.1f%%",
		len(active), worst.Category, math.Abs(worst.DeviationPct))
}

func posKey(pos domain.Position) string {
	return pos.Ticker + "|" + pos.Broker
}
