package domain

import (
	"math"
	"strconv"
)

// DerivedAcquisition holds the one-time figures computed from an AssumptionRecord.
// It is owned by a single projection run and never mutated after creation.
type DerivedAcquisition struct {
	AcquisitionFee        float64
	TotalAcquisitionPrice float64
	LoanToValue           float64
	LoanAmount            float64
	MonthlyPayment        float64
	AnnualDebtService     float64 // Negative outflow
	MaintenanceAmount     float64
	InsuranceAmount       float64
	StraightLine          bool // True when the zero-rate fallback was used
}

// YearlyCashFlow is one row of the projected table.
// Outflows are negative, inflows positive.
type YearlyCashFlow struct {
	Year         int
	CalendarYear int // 0 when the record has no acquisition date

	// Income
	Rent                  float64
	Vacancy               float64
	UnpaidRent            float64
	GrossEffectiveRevenue float64

	// Recurring charges
	PropertyManagement    float64
	Accounting            float64
	CoOwnershipFees       float64
	PropertyTax           float64
	Maintenance           float64
	Insurance             float64
	TotalRecurringCharges float64

	NetOperatingIncome float64

	// Non-recurring charges
	DownPayment              float64
	Capex                    float64
	TotalNonRecurringCharges float64

	// Debt
	DebtService                 float64
	CashFlowAfterDebt           float64
	CumulativeCashFlowAfterDebt float64

	// Valuation
	MarketValue          float64
	OutstandingPrincipal float64 // Negative magnitude of the loan balance at the end of the year

	// Sale, non-zero only in the final row
	GrossSaleProceeds        float64
	SaleFee                  float64
	RemainingPrincipalAtSale float64
	NetSaleProceeds          float64

	NetCashFlow           float64
	CumulativeNetCashFlow float64
}

// Metric is a summary value that may be undefined (no IRR root, empty window, ...)
type Metric struct {
	Value   float64
	Defined bool
}

// DefinedMetric wraps a computed value
func DefinedMetric(v float64) Metric {
	return Metric{Value: v, Defined: true}
}

// UndefinedMetric reports a value that cannot be computed
func UndefinedMetric() Metric {
	return Metric{Value: math.NaN()}
}

// String renders the metric, "undefined" when it has no value
func (m Metric) String() string {
	if !m.Defined {
		return "undefined"
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// MetricsSummary holds the investment metrics of a completed table
type MetricsSummary struct {
	IRR             Metric
	NPV             float64
	Multiple        Metric // Final cumulative net cash flow / down payment
	MinNetCashFlow  Metric // Over years 1..detention-1
	MeanNetCashFlow Metric // Over years 1..detention-1
}

// YearSnapshot holds the headline figures of a single year
type YearSnapshot struct {
	Year                  int
	CumulativeNetCashFlow float64
	NetOperatingIncome    float64
	MarketValue           float64
	RemainingDebt         float64 // Positive magnitude
}

// Projection bundles the outputs of one run
type Projection struct {
	Record  AssumptionRecord
	Derived DerivedAcquisition
	Rows    []YearlyCashFlow
	Summary MetricsSummary
}

// FinalRow returns the sale-year row, or a zero row when nothing was projected
func (p *Projection) FinalRow() YearlyCashFlow {
	if len(p.Rows) == 0 {
		return YearlyCashFlow{}
	}
	return p.Rows[len(p.Rows)-1]
}
