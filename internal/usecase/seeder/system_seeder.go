package seeder

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theoba/bp-invest/internal/domain"
)

// Fixed UUIDs of the reference property (stable across deployments)
var (
	REFERENCE_PROPERTY_ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	REFERENCE_RECORD_ID   = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// ReferenceRecord returns the 93 000 € studio used as the worked example of the engine
func ReferenceRecord() domain.AssumptionRecord {
	return domain.AssumptionRecord{
		ID:                  REFERENCE_RECORD_ID,
		PropertyID:          REFERENCE_PROPERTY_ID,
		Label:               "Reference studio",
		Address:             "12 rue de la République",
		City:                "Lyon",
		EnergyRating:        "D",
		SurfaceSquareMeters: 28,
		AcquisitionDate:     civil.Date{Year: 2024, Month: time.January, Day: 15},

		PurchasePrice:      93000,
		AcquisitionFeeRate: 0.08,

		DownPayment:        9300,
		AnnualInterestRate: 0.0272,
		LoanTermYears:      25,

		DetentionYears:     15,
		SaleFeeRate:        0.035,
		DiscountRate:       0.05,
		CurrentMarketValue: 93000,

		MonthlyRent: 721,

		PropertyManagement: 600,
		Accounting:         300,
		CoOwnershipFees:    900,
		PropertyTax:        700,
		MaintenanceRate:    0.01,
		InsuranceRate:      0.03,

		MarketValueGrowth:    0.01,
		MarketRentGrowth:     0.02,
		PropertyChargeGrowth: 0.01,
		VacancyRate:          0.02,

		NonRecurringCapexAmount: 2000,
		CapexFrequencyYears:     3,
	}
}

// SystemSeeder makes sure a fresh deployment has a property to project
type SystemSeeder struct {
	repo   domain.AssumptionRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewSystemSeeder creates a new SystemSeeder instance
func NewSystemSeeder(repo domain.AssumptionRepository, logger *zap.Logger) *SystemSeeder {
	return &SystemSeeder{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Seed ensures the reference property exists in the database
// If the property has no record yet, it creates one. Any other lookup error is returned.
func (s *SystemSeeder) Seed(ctx context.Context) error {
	_, err := s.repo.GetLatest(ctx, REFERENCE_PROPERTY_ID)
	if err == nil {
		s.logger.Debug("reference property already present")
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	record := ReferenceRecord()
	record.CreatedAt = s.now().UTC()

	// Validate before creating
	if err := record.Validate(); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		return err
	}

	s.logger.Info("reference property seeded", zap.String("property_id", record.PropertyID.String()))
	return nil
}
