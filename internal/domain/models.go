package domain

import "time"

// AssetClass identifies the broad asset bucket a position belongs to.
type AssetClass string

const (
	AssetClassStocks AssetClass = "stocks"
	AssetClassBonds  AssetClass = "bonds"
	AssetClassETF    AssetClass = "etf"
	AssetClassCash   AssetClass = "cash"
	AssetClassOther  AssetClass = "other"
)

// Position represents a single holding at one broker.
// CurrentValue = Quantity * CurrentPrice is maintained by the portfolio
// aggregation service that produces the snapshot; the advisory engines
// treat positions as immutable input.
type Position struct {
	Ticker       string     `json:"ticker"`
	Broker       string     `json:"broker"`
	AssetClass   AssetClass `json:"asset_class"`
	Sector       string     `json:"sector,omitempty"`
	Quantity     float64    `json:"quantity"`
	CurrentPrice float64    `json:"current_price"`
	CurrentValue float64    `json:"current_value"`
	CostBasis    float64    `json:"cost_basis"`
	PurchaseDate time.Time  `json:"purchase_date"`
	DailyVolume  float64    `json:"daily_volume,omitempty"`
}

// UnrealizedReturnPct returns the unrealized return as a percentage of cost
// basis, or 0 when the cost basis is unknown.
func (p Position) UnrealizedReturnPct() float64 {
	if p.CostBasis <= 0 {
		return 0
	}
	return (p.CurrentValue - p.CostBasis) / p.CostBasis * 100
}

// Portfolio is a point-in-time snapshot of all holdings across brokers.
type Portfolio struct {
	UserID     string     `json:"user_id"`
	Positions  []Position `json:"positions"`
	TotalValue float64    `json:"total_value"`
}

// BrokerProfile describes a broker's commission schedule.
// Commission for a trade = max(MinCommission, amount * CommissionRate).
type BrokerProfile struct {
	Broker         string   `json:"broker"`
	CommissionRate float64  `json:"commission_rate"` // fraction, e.g. 0.003
	MinCommission  float64  `json:"min_commission"`
	SuitableFor    []string `json:"suitable_for,omitempty"`
}

// DeviationDimension identifies which grouping a deviation was computed over.
type DeviationDimension string

const (
	DimensionAssetClass DeviationDimension = "asset_class"
	DimensionSector     DeviationDimension = "sector"
	DimensionIssuer     DeviationDimension = "issuer"
)

// DeviationSeverity grades how far a category is from its target.
type DeviationSeverity string

const (
	SeverityOK       DeviationSeverity = "ok"
	SeverityWarning  DeviationSeverity = "warning"
	SeverityCritical DeviationSeverity = "critical"
)

// Deviation is the boundary type for allocation deviations computed by the
// target-allocation service. Positive DeviationPct means overweight (sell
// candidate), negative means underweight (buy candidate).
type Deviation struct {
	Category     string             `json:"category"`
	Dimension    DeviationDimension `json:"dimension"`
	TargetPct    float64            `json:"target_pct"`
	CurrentPct   float64            `json:"current_pct"`
	DeviationPct float64            `json:"deviation_pct"`
	Severity     DeviationSeverity  `json:"severity"`
}

// TradeDirection is the side of a proposed trade.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

// TradeAction is a proposed, not executed, trade.
// Placeholder marks category-level buys whose Ticker is an allocation
// category rather than a real instrument; an instrument selection strategy
// resolves them downstream.
type TradeAction struct {
	Broker          string         `json:"broker,omitempty"`
	Ticker          string         `json:"ticker"`
	Direction       TradeDirection `json:"direction"`
	Quantity        float64        `json:"quantity"`
	EstimatedPrice  float64        `json:"estimated_price"`
	EstimatedAmount float64        `json:"estimated_amount"`
	Placeholder     bool           `json:"placeholder,omitempty"`
}

// RecommendationImpact summarizes the execution cost of a recommendation.
type RecommendationImpact struct {
	EstimatedCommission  float64 `json:"estimated_commission"`
	EstimatedTax         float64 `json:"estimated_tax"`
	TotalCost            float64 `json:"total_cost"`
	PortfolioImprovement string  `json:"portfolio_improvement"`
}

// RecommendationType classifies what a recommendation asks the user to do.
type RecommendationType string

const (
	TypeClosePosition  RecommendationType = "close_position"
	TypeRebalanceTrade RecommendationType = "rebalance_trade"
	TypeTransfer       RecommendationType = "transfer"
	TypeCloseAccount   RecommendationType = "close_account"
)

// RecommendationPriority orders recommendations for display.
type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

// RecommendationStatus tracks the user-facing lifecycle of a recommendation.
type RecommendationStatus string

const (
	StatusPending   RecommendationStatus = "pending"
	StatusAccepted  RecommendationStatus = "accepted"
	StatusDismissed RecommendationStatus = "dismissed"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s RecommendationStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDismissed:
		return true
	}
	return false
}

// Recommendation is the unit of advice produced by the advisory engines.
// Engines create recommendations as pending; status changes only through
// the ledger.
type Recommendation struct {
	ID       string                 `json:"id"`
	Type     RecommendationType     `json:"type"`
	Priority RecommendationPriority `json:"priority"`
	Title    string                 `json:"title"`
	Reason   string                 `json:"reason"`
	Impact   RecommendationImpact   `json:"impact"`
	Actions  []TradeAction          `json:"actions"`
	Status   RecommendationStatus   `json:"status"`
}

// JunkReason explains why a position was flagged as worth closing.
type JunkReason string

const (
	JunkSmallPosition JunkReason = "small_position"
	JunkDeepLoss      JunkReason = "deep_loss"
	JunkIlliquid      JunkReason = "illiquid"
	JunkDelisted      JunkReason = "delisted"
	JunkDuplicate     JunkReason = "duplicate"
)

// JunkPosition is a single flagged holding.
type JunkPosition struct {
	Ticker         string     `json:"ticker"`
	Broker         string     `json:"broker"`
	Reason         JunkReason `json:"reason"`
	CurrentValue   float64    `json:"current_value"`
	PctOfPortfolio float64    `json:"pct_of_portfolio"`
	Details        string     `json:"details"`
}
