package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theoba/bp-invest/internal/domain"
	"github.com/theoba/bp-invest/internal/usecase/acquisition"
	"github.com/theoba/bp-invest/internal/usecase/metrics"
	"github.com/theoba/bp-invest/internal/usecase/projection"
)

// Range accepted for detention and loan-term overrides
const (
	MinOverrideYears = 1
	MaxOverrideYears = 30
)

// ScenarioResult is the outcome of one what-if run
type ScenarioResult struct {
	DetentionYears int
	LoanTermYears  int
	Projection     *domain.Projection
}

// SimulationService runs projections for explicit or stored assumption records
type SimulationService struct {
	AssumptionRepo domain.AssumptionRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewSimulationService creates a new SimulationService instance
func NewSimulationService(assumptionRepo domain.AssumptionRepository, logger *zap.Logger) *SimulationService {
	return &SimulationService{
		AssumptionRepo: assumptionRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// Run derives, projects and summarizes an explicit record
// Nothing is persisted. Validation errors wrap domain.ErrInvalidAssumption.
func (s *SimulationService) Run(ctx context.Context, record domain.AssumptionRecord) (*domain.Projection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	derived, err := acquisition.Derive(record)
	if err != nil {
		return nil, err
	}
	if derived.StraightLine {
		s.logger.Info("zero interest rate, using straight-line amortization",
			zap.String("property_id", record.PropertyID.String()),
			zap.Float64("loan_amount", derived.LoanAmount),
		)
	}

	rows, err := projection.Project(record, derived)
	if err != nil {
		return nil, err
	}

	summary := metrics.Summarize(rows, record.DiscountRate, record.DownPayment)

	s.logger.Debug("projection computed",
		zap.String("property_id", record.PropertyID.String()),
		zap.Int("detention_years", record.DetentionYears),
		zap.Int("loan_term_years", record.LoanTermYears),
		zap.Stringer("irr", summary.IRR),
		zap.Float64("npv", summary.NPV),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &domain.Projection{
		Record:  record,
		Derived: derived,
		Rows:    rows,
		Summary: summary,
	}, nil
}

// SaveAssumptions validates and stores a new version of a property's assumptions
// Logic:
//   - Reject invalid records before touching the repository
//   - Assign a fresh record ID and creation time
//   - A nil PropertyID starts a new property
func (s *SimulationService) SaveAssumptions(ctx context.Context, record domain.AssumptionRecord) (*domain.AssumptionRecord, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	record.ID = uuid.New()
	if record.PropertyID == uuid.Nil {
		record.PropertyID = uuid.New()
	}
	record.CreatedAt = s.now().UTC()

	if err := s.AssumptionRepo.Create(ctx, &record); err != nil {
		return nil, err
	}

	s.logger.Info("assumption record saved",
		zap.String("record_id", record.ID.String()),
		zap.String("property_id", record.PropertyID.String()),
	)

	return &record, nil
}

// RunLatest projects the most recent record of a property, with optional duration overrides
func (s *SimulationService) RunLatest(ctx context.Context, propertyID uuid.UUID, overrides domain.ScenarioOverrides) (*domain.Projection, error) {
	if err := validateOverrides(overrides); err != nil {
		return nil, err
	}

	record, err := s.AssumptionRepo.GetLatest(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	return s.Run(ctx, overrides.Apply(*record))
}

// Compare projects the latest record of a property under several overrides
// Each scenario works on its own copy of the record and runs in its own goroutine;
// results keep the order of the scenarios. The first failing scenario cancels the rest.
func (s *SimulationService) Compare(ctx context.Context, propertyID uuid.UUID, scenarios []domain.ScenarioOverrides) ([]ScenarioResult, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: at least one scenario is required", domain.ErrInvalidAssumption)
	}
	for _, overrides := range scenarios {
		if err := validateOverrides(overrides); err != nil {
			return nil, err
		}
	}

	record, err := s.AssumptionRepo.GetLatest(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	results := make([]ScenarioResult, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	for i, overrides := range scenarios {
		scenario := overrides.Apply(*record)
		g.Go(func() error {
			p, err := s.Run(gctx, scenario)
			if err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			results[i] = ScenarioResult{
				DetentionYears: scenario.DetentionYears,
				LoanTermYears:  scenario.LoanTermYears,
				Projection:     p,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("scenarios compared",
		zap.String("property_id", propertyID.String()),
		zap.Int("scenarios", len(scenarios)),
	)

	return results, nil
}

// ListProperties returns every stored property
func (s *SimulationService) ListProperties(ctx context.Context) ([]*domain.PropertySummary, error) {
	return s.AssumptionRepo.ListProperties(ctx)
}

// IsNotFound reports whether err means the property has no stored record
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func validateOverrides(o domain.ScenarioOverrides) error {
	if o.DetentionYears != nil && (*o.DetentionYears < MinOverrideYears || *o.DetentionYears > MaxOverrideYears) {
		return fmt.Errorf("%w: detention override must be between %d and %d years", domain.ErrInvalidAssumption, MinOverrideYears, MaxOverrideYears)
	}
	if o.LoanTermYears != nil && (*o.LoanTermYears < MinOverrideYears || *o.LoanTermYears > MaxOverrideYears) {
		return fmt.Errorf("%w: loan term override must be between %d and %d years", domain.ErrInvalidAssumption, MinOverrideYears, MaxOverrideYears)
	}
	return nil
}
