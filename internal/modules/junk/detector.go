package junk

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dkarag/finboard/internal/domain"
	"github.com/dkarag/finboard/pkg/money"
)

// Config holds the junk detection thresholds. MinPositionPct is a percent
// of portfolio value, MinPositionValue an absolute amount, and
// DeepLossThreshold a negative percent return.
type Config struct {
	MinPositionPct          float64 `json:"min_position_pct"`
	MinPositionValue        float64 `json:"min_position_value"`
	DeepLossThreshold       float64 `json:"deep_loss_threshold"`
	IlliquidVolumeThreshold float64 `json:"illiquid_volume_threshold"`
}

// DefaultConfig returns the standard detection thresholds.
func DefaultConfig() Config {
	return Config{
		MinPositionPct:          1.0,
		MinPositionValue:        5000,
		DeepLossThreshold:       -50,
		IlliquidVolumeThreshold: 10000,
	}
}

// Report lists the positions worth closing and their aggregate weight.
type Report struct {
	Positions      []domain.JunkPosition `json:"positions"`
	TotalJunkValue float64               `json:"total_junk_value"`
	PctOfPortfolio float64               `json:"pct_of_portfolio"`
}

// Detector scans a portfolio snapshot for positions that cost more to keep
// than they contribute: dust positions, deep unrealized losses, illiquid
// names, and the same ticker fragmented across brokers.
type Detector struct {
	log zerolog.Logger
}

// NewDetector creates a new junk position detector.
func NewDetector(log zerolog.Logger) *Detector {
	return &Detector{
		log: log.With().Str("service", "junk_detector").Logger(),
	}
}

// Detect runs the per-position rules and the cross-broker duplicate pass.
// A position is reported at most once per pass; rule precedence is
// small_position, then deep_loss, then illiquid.
func (d *Detector) Detect(portfolio domain.Portfolio, cfg Config) Report {
	if portfolio.TotalValue <= 0 || len(portfolio.Positions) == 0 {
		return Report{Positions: []domain.JunkPosition{}}
	}

	var flagged []domain.JunkPosition
	seen := make(map[string]bool) // ticker|broker pairs already flagged

	for _, pos := range portfolio.Positions {
		pct := pos.CurrentValue / portfolio.TotalValue * 100

		if junk, ok := d.checkPosition(pos, pct, cfg); ok {
			flagged = append(flagged, junk)
			seen[posKey(pos.Ticker, pos.Broker)] = true
		}
	}

	for _, dup := range d.findDuplicates(portfolio) {
		if seen[posKey(dup.Ticker, dup.Broker)] {
			continue
		}
		flagged = append(flagged, dup)
		seen[posKey(dup.Ticker, dup.Broker)] = true
	}

	totalJunk := 0.0
	for _, j := range flagged {
		totalJunk += j.CurrentValue
	}

	if flagged == nil {
		flagged = []domain.JunkPosition{}
	}

	d.log.Debug().
		Int("flagged", len(flagged)).
		Float64("total_junk_value", totalJunk).
		Msg("Junk detection completed")

	return Report{
		Positions:      flagged,
		TotalJunkValue: money.Round2(totalJunk),
		PctOfPortfolio: money.Round2(totalJunk / portfolio.TotalValue * 100),
	}
}

// checkPosition applies the single-position rules in precedence order.
func (d *Detector) checkPosition(pos domain.Position, pct float64, cfg Config) (domain.JunkPosition, bool) {
	// Dust: both the absolute value and the portfolio share must be small.
	// A tiny-value position that is still a large share of a tiny portfolio
	// is a concentration problem, not junk.
	if pos.CurrentValue < cfg.MinPositionValue && pct < cfg.MinPositionPct {
		return domain.JunkPosition{
			Ticker:         pos.Ticker,
			Broker:         pos.Broker,
			Reason:         domain.JunkSmallPosition,
			CurrentValue:   pos.CurrentValue,
			PctOfPortfolio: money.Round2(pct),
			Details: fmt.Sprintf("Position worth %.2f is below %.2f and only %.2f%% of the portfolio",
				pos.CurrentValue, cfg.MinPositionValue, pct),
		}, true
	}

	if pos.CostBasis > 0 {
		ret := pos.UnrealizedReturnPct()
		if ret <= cfg.DeepLossThreshold {
			return domain.JunkPosition{
				Ticker:         pos.Ticker,
				Broker:         pos.Broker,
				Reason:         domain.JunkDeepLoss,
				CurrentValue:   pos.CurrentValue,
				PctOfPortfolio: money.Round2(pct),
				Details: fmt.Sprintf("Unrealized return %.1f%% is at or below the %.1f%% loss threshold",
					ret, cfg.DeepLossThreshold),
			}, true
		}
	}

	if pos.DailyVolume > 0 && pos.DailyVolume < cfg.IlliquidVolumeThreshold {
		return domain.JunkPosition{
			Ticker:         pos.Ticker,
			Broker:         pos.Broker,
			Reason:         domain.JunkIlliquid,
			CurrentValue:   pos.CurrentValue,
			PctOfPortfolio: money.Round2(pct),
			Details: fmt.Sprintf("Daily volume %.0f is below the %.0f liquidity threshold",
				pos.DailyVolume, cfg.IlliquidVolumeThreshold),
		}, true
	}

	return domain.JunkPosition{}, false
}

// findDuplicates flags every instance of a ticker held at more than one
// broker except the single largest-value one. Ties keep the earlier
// position.
func (d *Detector) findDuplicates(portfolio domain.Portfolio) []domain.JunkPosition {
	byTicker := make(map[string][]domain.Position)
	var order []string
	for _, pos := range portfolio.Positions {
		if _, ok := byTicker[pos.Ticker]; !ok {
			order = append(order, pos.Ticker)
		}
		byTicker[pos.Ticker] = append(byTicker[pos.Ticker], pos)
	}

	var dups []domain.JunkPosition
	for _, ticker := range order {
		group := byTicker[ticker]
		brokers := make(map[string]bool)
		for _, pos := range group {
			brokers[pos.Broker] = true
		}
		if len(brokers) < 2 {
			continue
		}

		keep := 0
		for i, pos := range group {
			if pos.CurrentValue > group[keep].CurrentValue {
				keep = i
			}
		}

		for i, pos := range group {
			if i == keep {
				continue
			}
			pct := 0.0
			if portfolio.TotalValue > 0 {
				pct = pos.CurrentValue / portfolio.TotalValue * 100
			}
			dups = append(dups, domain.JunkPosition{
				Ticker:         pos.Ticker,
				Broker:         pos.Broker,
				Reason:         domain.JunkDuplicate,
				CurrentValue:   pos.CurrentValue,
				PctOfPortfolio: money.Round2(pct),
				Details: fmt.Sprintf("%s is also held at %s with a larger balance; consolidate to one broker",
					pos.Ticker, group[keep].Broker),
			})
		}
	}

	return dups
}

func posKey(ticker, broker string) string {
	return ticker + "|" + broker
}
