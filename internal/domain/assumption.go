package domain

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// MaxHorizonYears caps the loan term and the detention period
const MaxHorizonYears = 100

// AssumptionRecord holds the deal assumptions of one property at one point in time.
// A record is immutable once handed to a projection run; scenario overrides work on a copy.
// Amounts are euros, rates are fractions (0.02 = 2%), durations are whole years.
type AssumptionRecord struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	CreatedAt  time.Time

	// Identity, not used in computation
	Address             string
	City                string
	Label               string
	EnergyRating        string // DPE class
	SurfaceSquareMeters float64
	AcquisitionDate     civil.Date // Optional. Zero value means calendar years are not labelled.

	// Acquisition
	PurchasePrice      float64
	AcquisitionFeeRate float64
	RenovationCost     float64

	// Financing
	DownPayment        float64
	AnnualInterestRate float64
	LoanTermYears      int

	// Market
	DetentionYears     int
	SaleFeeRate        float64
	DiscountRate       float64
	CurrentMarketValue float64 // Base value the market value growth compounds from

	// Income
	MonthlyRent float64

	// Recurring charges (annual euro amounts)
	PropertyManagement float64
	Accounting         float64
	CoOwnershipFees    float64
	PropertyTax        float64

	// Recurring charges (rate based)
	MaintenanceRate float64 // Fraction of PurchasePrice
	InsuranceRate   float64 // Fraction of annual rent

	// Growth and market sensitivity
	MarketValueGrowth    float64
	MarketRentGrowth     float64
	PropertyChargeGrowth float64
	VacancyRate          float64
	UnpaidRentRate       float64

	// Operating capex
	NonRecurringCapexAmount float64
	CapexFrequencyYears     int

	// WithdrawalRate is a flat tax placeholder. It is stored and transported but not applied.
	WithdrawalRate float64
}

// AcquisitionCost returns purchase price plus acquisition fee plus renovation
func (r *AssumptionRecord) AcquisitionCost() float64 {
	return r.PurchasePrice + r.AcquisitionFeeRate*r.PurchasePrice + r.RenovationCost
}

// AnnualRent returns the base yearly rent (monthly rent times 12)
func (r *AssumptionRecord) AnnualRent() float64 {
	return r.MonthlyRent * 12
}

// Validate ensures the record is usable for a projection run
// Returns an error wrapping ErrInvalidAssumption if validation fails
func (r *AssumptionRecord) Validate() error {
	amounts := []struct {
		name  string
		value float64
	}{
		{"purchase price", r.PurchasePrice},
		{"renovation cost", r.RenovationCost},
		{"down payment", r.DownPayment},
		{"current market value", r.CurrentMarketValue},
		{"monthly rent", r.MonthlyRent},
		{"property management", r.PropertyManagement},
		{"accounting", r.Accounting},
		{"co-ownership fees", r.CoOwnershipFees},
		{"property tax", r.PropertyTax},
		{"non-recurring capex amount", r.NonRecurringCapexAmount},
		{"surface", r.SurfaceSquareMeters},
	}
	for _, a := range amounts {
		if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return invalidAssumption("%s must be a finite number", a.name)
		}
		if a.value < 0 {
			return invalidAssumption("%s cannot be negative", a.name)
		}
	}

	if r.PurchasePrice == 0 {
		return invalidAssumption("purchase price must be positive")
	}

	if r.LoanTermYears <= 0 {
		return invalidAssumption("loan term must be positive")
	}
	if r.LoanTermYears > MaxHorizonYears {
		return invalidAssumption("loan term cannot exceed %d years", MaxHorizonYears)
	}
	if r.DetentionYears < 0 {
		return invalidAssumption("detention period cannot be negative")
	}
	if r.DetentionYears > MaxHorizonYears {
		return invalidAssumption("detention period cannot exceed %d years", MaxHorizonYears)
	}
	if r.CapexFrequencyYears <= 0 {
		return invalidAssumption("capex frequency must be positive")
	}

	// Rates are fractions in [0, 1)
	rates := []struct {
		name  string
		value float64
	}{
		{"acquisition fee rate", r.AcquisitionFeeRate},
		{"annual interest rate", r.AnnualInterestRate},
		{"sale fee rate", r.SaleFeeRate},
		{"discount rate", r.DiscountRate},
		{"maintenance rate", r.MaintenanceRate},
		{"insurance rate", r.InsuranceRate},
		{"vacancy rate", r.VacancyRate},
		{"unpaid rent rate", r.UnpaidRentRate},
		{"withdrawal rate", r.WithdrawalRate},
	}
	for _, rate := range rates {
		if math.IsNaN(rate.value) || rate.value < 0 || rate.value >= 1 {
			return invalidAssumption("%s must be in [0, 1)", rate.name)
		}
	}

	// Growth rates may be negative (declining market) but never wipe out the base
	growths := []struct {
		name  string
		value float64
	}{
		{"market value growth", r.MarketValueGrowth},
		{"market rent growth", r.MarketRentGrowth},
		{"property charge growth", r.PropertyChargeGrowth},
	}
	for _, g := range growths {
		if math.IsNaN(g.value) || g.value <= -1 || g.value >= 1 {
			return invalidAssumption("%s must be in (-1, 1)", g.name)
		}
	}

	if r.DownPayment > r.AcquisitionCost() {
		return invalidAssumption("down payment cannot exceed acquisition cost")
	}

	return nil
}

// ScenarioOverrides replaces durations of a stored record for a single what-if run.
// Nil fields keep the stored value.
type ScenarioOverrides struct {
	DetentionYears *int
	LoanTermYears  *int
}

// Apply returns a copy of the record with the overrides applied
func (o ScenarioOverrides) Apply(record AssumptionRecord) AssumptionRecord {
	if o.DetentionYears != nil {
		record.DetentionYears = *o.DetentionYears
	}
	if o.LoanTermYears != nil {
		record.LoanTermYears = *o.LoanTermYears
	}
	return record
}

// PropertySummary is the identity part of the latest record of a property
type PropertySummary struct {
	PropertyID uuid.UUID
	Label      string
	Address    string
	City       string
	CreatedAt  time.Time
}
