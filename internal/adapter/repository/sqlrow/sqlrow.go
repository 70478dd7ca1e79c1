// Package sqlrow maps assumption records to and from SQL rows.
// Both database adapters share the column layout; amounts and rates are stored
// as decimal text so no precision is lost to the driver's float handling.
package sqlrow

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/theoba/bp-invest/internal/domain"
)

// Columns of assumption_records, in the order used by Args and Scan.
// created_at is handled by each adapter since drivers store it differently.
var Columns = []string{
	"id",
	"property_id",
	"label",
	"address",
	"city",
	"energy_rating",
	"surface_sqm",
	"acquisition_date",
	"purchase_price",
	"acquisition_fee_rate",
	"renovation_cost",
	"down_payment",
	"annual_interest_rate",
	"loan_term_years",
	"detention_years",
	"sale_fee_rate",
	"discount_rate",
	"current_market_value",
	"monthly_rent",
	"property_management",
	"accounting",
	"co_ownership_fees",
	"property_tax",
	"maintenance_rate",
	"insurance_rate",
	"market_value_growth",
	"market_rent_growth",
	"property_charge_growth",
	"vacancy_rate",
	"unpaid_rent_rate",
	"capex_amount",
	"capex_frequency_years",
	"withdrawal_rate",
}

// ColumnList returns the columns joined for a SELECT or INSERT clause
func ColumnList() string {
	return strings.Join(Columns, ", ")
}

// Scanner is satisfied by *sql.Row and *sql.Rows
type Scanner interface {
	Scan(dest ...any) error
}

// Args returns the insert arguments of a record, matching Columns
func Args(r *domain.AssumptionRecord) []any {
	return []any{
		r.ID,
		r.PropertyID,
		r.Label,
		r.Address,
		r.City,
		r.EnergyRating,
		amount(r.SurfaceSquareMeters),
		Date(r.AcquisitionDate),
		amount(r.PurchasePrice),
		amount(r.AcquisitionFeeRate),
		amount(r.RenovationCost),
		amount(r.DownPayment),
		amount(r.AnnualInterestRate),
		r.LoanTermYears,
		r.DetentionYears,
		amount(r.SaleFeeRate),
		amount(r.DiscountRate),
		amount(r.CurrentMarketValue),
		amount(r.MonthlyRent),
		amount(r.PropertyManagement),
		amount(r.Accounting),
		amount(r.CoOwnershipFees),
		amount(r.PropertyTax),
		amount(r.MaintenanceRate),
		amount(r.InsuranceRate),
		amount(r.MarketValueGrowth),
		amount(r.MarketRentGrowth),
		amount(r.PropertyChargeGrowth),
		amount(r.VacancyRate),
		amount(r.UnpaidRentRate),
		amount(r.NonRecurringCapexAmount),
		r.CapexFrequencyYears,
		amount(r.WithdrawalRate),
	}
}

// Scan reads a row selected as (created_at, Columns...)
// createdAt receives the raw created_at value; the caller converts it into record.CreatedAt.
func Scan(s Scanner, createdAt any) (*domain.AssumptionRecord, error) {
	var r domain.AssumptionRecord
	dest := []any{
		createdAt,
		&r.ID,
		&r.PropertyID,
		&r.Label,
		&r.Address,
		&r.City,
		&r.EnergyRating,
		decimalDest{&r.SurfaceSquareMeters},
		&dateDest{&r.AcquisitionDate},
		decimalDest{&r.PurchasePrice},
		decimalDest{&r.AcquisitionFeeRate},
		decimalDest{&r.RenovationCost},
		decimalDest{&r.DownPayment},
		decimalDest{&r.AnnualInterestRate},
		&r.LoanTermYears,
		&r.DetentionYears,
		decimalDest{&r.SaleFeeRate},
		decimalDest{&r.DiscountRate},
		decimalDest{&r.CurrentMarketValue},
		decimalDest{&r.MonthlyRent},
		decimalDest{&r.PropertyManagement},
		decimalDest{&r.Accounting},
		decimalDest{&r.CoOwnershipFees},
		decimalDest{&r.PropertyTax},
		decimalDest{&r.MaintenanceRate},
		decimalDest{&r.InsuranceRate},
		decimalDest{&r.MarketValueGrowth},
		decimalDest{&r.MarketRentGrowth},
		decimalDest{&r.PropertyChargeGrowth},
		decimalDest{&r.VacancyRate},
		decimalDest{&r.UnpaidRentRate},
		decimalDest{&r.NonRecurringCapexAmount},
		&r.CapexFrequencyYears,
		decimalDest{&r.WithdrawalRate},
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return &r, nil
}

func amount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Date is the SQL value of an optional calendar date (NULL when zero)
func Date(d civil.Date) driver.Value {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

// decimalDest parses a DECIMAL column (string, bytes or native number) into a float64
type decimalDest struct {
	target *float64
}

func (d decimalDest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.target = 0
	case float64:
		*d.target = v
	case int64:
		*d.target = float64(v)
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported decimal column type %T", src)
	}
	return nil
}

func (d decimalDest) parse(s string) error {
	value, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("failed to parse decimal %q: %w", s, err)
	}
	*d.target = value.InexactFloat64()
	return nil
}

// dateDest reads a DATE column (native time or ISO text) into a civil.Date, NULL meaning unset
type dateDest struct {
	target *civil.Date
}

func (d *dateDest) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.target = civil.Date{}
	case time.Time:
		*d.target = civil.DateOf(v)
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date column type %T", src)
	}
	return nil
}

func (d *dateDest) parse(s string) error {
	if s == "" {
		*d.target = civil.Date{}
		return nil
	}
	// Some drivers return DATE columns as full timestamps
	if len(s) > len("2006-01-02") {
		s = s[:len("2006-01-02")]
	}
	date, err := civil.ParseDate(s)
	if err != nil {
		return fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	*d.target = date
	return nil
}
