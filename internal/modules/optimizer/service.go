package optimizer

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkarag/finboard/internal/domain"
	"github.com/dkarag/finboard/internal/modules/brokers"
	"github.com/dkarag/finboard/internal/modules/costs"
	"github.com/dkarag/finboard/internal/modules/junk"
	"github.com/dkarag/finboard/internal/modules/ledger"
	"github.com/dkarag/finboard/internal/modules/rebalance"
)

// RunInput is one advisory pass over a portfolio snapshot. A zero Now means
// the wall clock; tests pass a fixed time. A nil JunkConfig uses defaults;
// an empty deviation list skips rebalancing.
type RunInput struct {
	Portfolio      domain.Portfolio       `json:"portfolio"`
	BrokerProfiles []domain.BrokerProfile `json:"broker_profiles"`
	Deviations     []domain.Deviation     `json:"deviations,omitempty"`
	JunkConfig     *junk.Config           `json:"junk_config,omitempty"`
	AnnualIncome   float64                `json:"annual_income,omitempty"`
	Now            time.Time              `json:"-"`
}

// RunResult bundles the three engines' outputs plus the merged
// recommendation list that was written to the ledger.
type RunResult struct {
	JunkReport      junk.Report             `json:"junk_report"`
	RebalancePlan   rebalance.Plan          `json:"rebalance_plan"`
	BrokerPlan      brokers.Plan            `json:"broker_plan"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// Service runs the advisory engines over one snapshot and repopulates the
// recommendation ledger with their merged output.
type Service struct {
	detector  *junk.Detector
	planner   *rebalance.Planner
	advisor   *brokers.Advisor
	ledger    *ledger.Ledger
	taxParams costs.TaxParams
	log       zerolog.Logger

	mu        sync.Mutex
	lastInput *RunInput
}

// NewService creates the optimization orchestrator.
func NewService(
	detector *junk.Detector,
	planner *rebalance.Planner,
	advisor *brokers.Advisor,
	led *ledger.Ledger,
	log zerolog.Logger,
) *Service {
	return &Service{
		detector:  detector,
		planner:   planner,
		advisor:   advisor,
		ledger:    led,
		taxParams: costs.DefaultTaxParams(),
		log:       log.With().Str("service", "optimizer").Logger(),
	}
}

// Run executes the three engines independently, merges their
// recommendations, and atomically replaces the ledger contents.
func (s *Service) Run(in RunInput) (RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(in)
}

func (s *Service) run(in RunInput) (RunResult, error) {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	junkCfg := junk.DefaultConfig()
	if in.JunkConfig != nil {
		junkCfg = *in.JunkConfig
	}

	junkReport := s.detector.Detect(in.Portfolio, junkCfg)
	junkRecs := s.detector.Recommendations(junkReport, in.Portfolio, in.BrokerProfiles, in.AnnualIncome, in.Now, s.taxParams)

	var plan rebalance.Plan
	if len(in.Deviations) > 0 {
		plan = s.planner.Plan(rebalance.Input{
			Portfolio:      in.Portfolio,
			Deviations:     in.Deviations,
			BrokerProfiles: in.BrokerProfiles,
			AnnualIncome:   in.AnnualIncome,
			Now:            in.Now,
		})
	} else {
		plan = rebalance.Plan{
			Recommendations: []domain.Recommendation{},
			Before:          rebalance.Snapshot{},
			After:           rebalance.Snapshot{},
		}
	}

	brokerPlan := s.advisor.Analyze(in.Portfolio, in.BrokerProfiles)

	all := []domain.Recommendation{}
	all = append(all, junkRecs...)
	all = append(all, plan.Recommendations...)
	all = append(all, brokerPlan.Recommendations...)

	if err := s.ledger.Replace(all); err != nil {
		return RunResult{}, fmt.Errorf("failed to update ledger: %w", err)
	}

	s.lastInput = &in

	s.log.Info().
		Int("junk", len(junkRecs)).
		Int("rebalance", len(plan.Recommendations)).
		Int("broker", len(brokerPlan.Recommendations)).
		Msg("Optimization run completed")

	return RunResult{
		JunkReport:      junkReport,
		RebalancePlan:   plan,
		BrokerPlan:      brokerPlan,
		Recommendations: all,
	}, nil
}

// Refresh re-runs the pipeline over the last submitted snapshot with the
// current wall clock. It is a no-op until the first Run.
func (s *Service) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastInput == nil {
		s.log.Debug().Msg("No snapshot submitted yet, skipping refresh")
		return nil
	}
	in := *s.lastInput
	in.Now = time.Now()
	_, err := s.run(in)
	return err
}

// Ledger exposes the recommendation ledger for query handlers.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}
