package grpc

import (
	"fmt"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/theoba/bp-invest/internal/domain"
	"github.com/theoba/bp-invest/internal/usecase/simulation"
)

// Wire field names of an assumption record, grouped by encoding
var (
	recordStrings = []struct {
		name  string
		field func(r *domain.AssumptionRecord) *string
	}{
		{"label", func(r *domain.AssumptionRecord) *string { return &r.Label }},
		{"address", func(r *domain.AssumptionRecord) *string { return &r.Address }},
		{"city", func(r *domain.AssumptionRecord) *string { return &r.City }},
		{"energy_rating", func(r *domain.AssumptionRecord) *string { return &r.EnergyRating }},
	}

	recordNumbers = []struct {
		name  string
		field func(r *domain.AssumptionRecord) *float64
	}{
		{"surface_sqm", func(r *domain.AssumptionRecord) *float64 { return &r.SurfaceSquareMeters }},
		{"purchase_price", func(r *domain.AssumptionRecord) *float64 { return &r.PurchasePrice }},
		{"acquisition_fee_rate", func(r *domain.AssumptionRecord) *float64 { return &r.AcquisitionFeeRate }},
		{"renovation_cost", func(r *domain.AssumptionRecord) *float64 { return &r.RenovationCost }},
		{"down_payment", func(r *domain.AssumptionRecord) *float64 { return &r.DownPayment }},
		{"annual_interest_rate", func(r *domain.AssumptionRecord) *float64 { return &r.AnnualInterestRate }},
		{"sale_fee_rate", func(r *domain.AssumptionRecord) *float64 { return &r.SaleFeeRate }},
		{"discount_rate", func(r *domain.AssumptionRecord) *float64 { return &r.DiscountRate }},
		{"current_market_value", func(r *domain.AssumptionRecord) *float64 { return &r.CurrentMarketValue }},
		{"monthly_rent", func(r *domain.AssumptionRecord) *float64 { return &r.MonthlyRent }},
		{"property_management", func(r *domain.AssumptionRecord) *float64 { return &r.PropertyManagement }},
		{"accounting", func(r *domain.AssumptionRecord) *float64 { return &r.Accounting }},
		{"co_ownership_fees", func(r *domain.AssumptionRecord) *float64 { return &r.CoOwnershipFees }},
		{"property_tax", func(r *domain.AssumptionRecord) *float64 { return &r.PropertyTax }},
		{"maintenance_rate", func(r *domain.AssumptionRecord) *float64 { return &r.MaintenanceRate }},
		{"insurance_rate", func(r *domain.AssumptionRecord) *float64 { return &r.InsuranceRate }},
		{"market_value_growth", func(r *domain.AssumptionRecord) *float64 { return &r.MarketValueGrowth }},
		{"market_rent_growth", func(r *domain.AssumptionRecord) *float64 { return &r.MarketRentGrowth }},
		{"property_charge_growth", func(r *domain.AssumptionRecord) *float64 { return &r.PropertyChargeGrowth }},
		{"vacancy_rate", func(r *domain.AssumptionRecord) *float64 { return &r.VacancyRate }},
		{"unpaid_rent_rate", func(r *domain.AssumptionRecord) *float64 { return &r.UnpaidRentRate }},
		{"capex_amount", func(r *domain.AssumptionRecord) *float64 { return &r.NonRecurringCapexAmount }},
		{"withdrawal_rate", func(r *domain.AssumptionRecord) *float64 { return &r.WithdrawalRate }},
	}

	recordIntegers = []struct {
		name  string
		field func(r *domain.AssumptionRecord) *int
	}{
		{"loan_term_years", func(r *domain.AssumptionRecord) *int { return &r.LoanTermYears }},
		{"detention_years", func(r *domain.AssumptionRecord) *int { return &r.DetentionYears }},
		{"capex_frequency_years", func(r *domain.AssumptionRecord) *int { return &r.CapexFrequencyYears }},
	}
)

// fieldReader reads typed values out of a request Struct and remembers which keys were consumed
type fieldReader struct {
	fields map[string]*structpb.Value
	seen   map[string]bool
}

func newFieldReader(s *structpb.Struct) *fieldReader {
	return &fieldReader{fields: s.GetFields(), seen: make(map[string]bool)}
}

// lookup returns the value of name, or nil when it is absent or null
func (r *fieldReader) lookup(name string) *structpb.Value {
	r.seen[name] = true
	v, ok := r.fields[name]
	if !ok {
		return nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil
	}
	return v
}

func (r *fieldReader) str(name string, dst *string) error {
	v := r.lookup(name)
	if v == nil {
		return nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return fmt.Errorf("%s must be a string", name)
	}
	*dst = s.StringValue
	return nil
}

// number accepts a JSON number or a decimal string
func (r *fieldReader) number(name string, dst *float64) error {
	v := r.lookup(name)
	if v == nil {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		*dst = k.NumberValue
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(k.StringValue)
		if err != nil {
			return fmt.Errorf("invalid %s format: %v", name, err)
		}
		*dst = d.InexactFloat64()
	default:
		return fmt.Errorf("%s must be a number or a decimal string", name)
	}
	return nil
}

func (r *fieldReader) integer(name string, dst *int) error {
	var f float64
	if err := r.number(name, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("%s must be a whole number", name)
	}
	*dst = int(f)
	return nil
}

// optionalInteger returns nil when name is absent
func (r *fieldReader) optionalInteger(name string) (*int, error) {
	if r.lookup(name) == nil {
		return nil, nil
	}
	var v int
	if err := r.integer(name, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *fieldReader) uuid(name string, required bool) (uuid.UUID, error) {
	var s string
	if err := r.str(name, &s); err != nil {
		return uuid.Nil, err
	}
	if s == "" {
		if required {
			return uuid.Nil, fmt.Errorf("%s is required", name)
		}
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s format: %v", name, err)
	}
	return id, nil
}

func (r *fieldReader) list(name string) ([]*structpb.Value, error) {
	v := r.lookup(name)
	if v == nil {
		return nil, nil
	}
	l, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%s must be a list", name)
	}
	return l.ListValue.GetValues(), nil
}

// unknown reports the first key that was never read, so typos are not silently ignored
func (r *fieldReader) unknown() error {
	var extra []string
	for name := range r.fields {
		if !r.seen[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return fmt.Errorf("unknown field %q", extra[0])
}

// recordFromStruct decodes an assumption record. Missing fields are zero; range checks are left to the domain.
func recordFromStruct(s *structpb.Struct) (domain.AssumptionRecord, error) {
	var record domain.AssumptionRecord
	r := newFieldReader(s)

	propertyID, err := r.uuid("property_id", false)
	if err != nil {
		return record, err
	}
	record.PropertyID = propertyID

	// Server-assigned, ignored on input
	r.lookup("record_id")
	r.lookup("created_at")

	for _, f := range recordStrings {
		if err := r.str(f.name, f.field(&record)); err != nil {
			return record, err
		}
	}
	for _, f := range recordNumbers {
		if err := r.number(f.name, f.field(&record)); err != nil {
			return record, err
		}
	}
	for _, f := range recordIntegers {
		if err := r.integer(f.name, f.field(&record)); err != nil {
			return record, err
		}
	}

	var date string
	if err := r.str("acquisition_date", &date); err != nil {
		return record, err
	}
	if date != "" {
		record.AcquisitionDate, err = civil.ParseDate(date)
		if err != nil {
			return record, fmt.Errorf("invalid acquisition_date format: %v", err)
		}
	}

	return record, r.unknown()
}

// overridesFromReader reads the optional duration overrides of a run
func overridesFromReader(r *fieldReader) (domain.ScenarioOverrides, error) {
	var o domain.ScenarioOverrides
	var err error
	if o.DetentionYears, err = r.optionalInteger("detention_years"); err != nil {
		return o, err
	}
	if o.LoanTermYears, err = r.optionalInteger("loan_term_years"); err != nil {
		return o, err
	}
	return o, nil
}

// Encoding

func money(v float64) *structpb.Value {
	return fixed(v, 2)
}

func ratio(v float64) *structpb.Value {
	return fixed(v, 6)
}

// fixed encodes v as a decimal string with the given number of places, null when not finite
func fixed(v float64, places int32) *structpb.Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return structpb.NewNullValue()
	}
	return structpb.NewStringValue(decimal.NewFromFloat(v).StringFixed(places))
}

// exact encodes v without rounding
func exact(v float64) *structpb.Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return structpb.NewNullValue()
	}
	return structpb.NewStringValue(decimal.NewFromFloat(v).String())
}

func metric(m domain.Metric, encode func(float64) *structpb.Value) *structpb.Value {
	if !m.Defined {
		return structpb.NewNullValue()
	}
	return encode(m.Value)
}

func timestamp(t time.Time) *structpb.Value {
	return structpb.NewStringValue(t.UTC().Format(time.RFC3339Nano))
}

func list(values []*structpb.Value) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func object(fields map[string]*structpb.Value) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}

// recordToStruct encodes the assumptions of a record, amounts unrounded
func recordToStruct(r *domain.AssumptionRecord) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"record_id":   structpb.NewStringValue(r.ID.String()),
		"property_id": structpb.NewStringValue(r.PropertyID.String()),
		"created_at":  timestamp(r.CreatedAt),
	}
	if !r.AcquisitionDate.IsZero() {
		fields["acquisition_date"] = structpb.NewStringValue(r.AcquisitionDate.String())
	}
	for _, f := range recordStrings {
		fields[f.name] = structpb.NewStringValue(*f.field(r))
	}
	for _, f := range recordNumbers {
		fields[f.name] = exact(*f.field(r))
	}
	for _, f := range recordIntegers {
		fields[f.name] = structpb.NewNumberValue(float64(*f.field(r)))
	}
	return &structpb.Struct{Fields: fields}
}

func derivedToValue(d domain.DerivedAcquisition) *structpb.Value {
	return object(map[string]*structpb.Value{
		"acquisition_fee":         money(d.AcquisitionFee),
		"total_acquisition_price": money(d.TotalAcquisitionPrice),
		"loan_to_value":           ratio(d.LoanToValue),
		"loan_amount":             money(d.LoanAmount),
		"monthly_payment":         money(d.MonthlyPayment),
		"annual_debt_service":     money(d.AnnualDebtService),
		"maintenance_amount":      money(d.MaintenanceAmount),
		"insurance_amount":        money(d.InsuranceAmount),
		"straight_line":           structpb.NewBoolValue(d.StraightLine),
	})
}

func rowToValue(row domain.YearlyCashFlow) *structpb.Value {
	calendarYear := structpb.NewNullValue()
	if row.CalendarYear != 0 {
		calendarYear = structpb.NewNumberValue(float64(row.CalendarYear))
	}
	return object(map[string]*structpb.Value{
		"year":                            structpb.NewNumberValue(float64(row.Year)),
		"calendar_year":                   calendarYear,
		"rent":                            money(row.Rent),
		"vacancy":                         money(row.Vacancy),
		"unpaid_rent":                     money(row.UnpaidRent),
		"gross_effective_revenue":         money(row.GrossEffectiveRevenue),
		"property_management":             money(row.PropertyManagement),
		"accounting":                      money(row.Accounting),
		"co_ownership_fees":               money(row.CoOwnershipFees),
		"property_tax":                    money(row.PropertyTax),
		"maintenance":                     money(row.Maintenance),
		"insurance":                       money(row.Insurance),
		"total_recurring_charges":         money(row.TotalRecurringCharges),
		"net_operating_income":            money(row.NetOperatingIncome),
		"down_payment":                    money(row.DownPayment),
		"capex":                           money(row.Capex),
		"total_non_recurring_charges":     money(row.TotalNonRecurringCharges),
		"debt_service":                    money(row.DebtService),
		"cash_flow_after_debt":            money(row.CashFlowAfterDebt),
		"cumulative_cash_flow_after_debt": money(row.CumulativeCashFlowAfterDebt),
		"market_value":                    money(row.MarketValue),
		"outstanding_principal":           money(row.OutstandingPrincipal),
		"gross_sale_proceeds":             money(row.GrossSaleProceeds),
		"sale_fee":                        money(row.SaleFee),
		"remaining_principal_at_sale":     money(row.RemainingPrincipalAtSale),
		"net_sale_proceeds":               money(row.NetSaleProceeds),
		"net_cash_flow":                   money(row.NetCashFlow),
		"cumulative_net_cash_flow":        money(row.CumulativeNetCashFlow),
	})
}

func summaryToValue(s domain.MetricsSummary) *structpb.Value {
	return object(map[string]*structpb.Value{
		"irr":                metric(s.IRR, ratio),
		"npv":                money(s.NPV),
		"multiple":           metric(s.Multiple, ratio),
		"min_net_cash_flow":  metric(s.MinNetCashFlow, money),
		"mean_net_cash_flow": metric(s.MeanNetCashFlow, money),
	})
}

func snapshotToValue(s domain.YearSnapshot) *structpb.Value {
	return object(map[string]*structpb.Value{
		"year":                     structpb.NewNumberValue(float64(s.Year)),
		"cumulative_net_cash_flow": money(s.CumulativeNetCashFlow),
		"net_operating_income":     money(s.NetOperatingIncome),
		"market_value":             money(s.MarketValue),
		"remaining_debt":           money(s.RemainingDebt),
	})
}

// projectionToStruct encodes a full run: derived figures, the yearly table and the summary
func projectionToStruct(p *domain.Projection) *structpb.Struct {
	rows := make([]*structpb.Value, 0, len(p.Rows))
	for _, row := range p.Rows {
		rows = append(rows, rowToValue(row))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"derived": derivedToValue(p.Derived),
		"rows":    list(rows),
		"summary": summaryToValue(p.Summary),
	}}
}

func scenarioToValue(r simulation.ScenarioResult) *structpb.Value {
	return object(map[string]*structpb.Value{
		"detention_years":                structpb.NewNumberValue(float64(r.DetentionYears)),
		"loan_term_years":                structpb.NewNumberValue(float64(r.LoanTermYears)),
		"summary":                        summaryToValue(r.Projection.Summary),
		"final_cumulative_net_cash_flow": money(r.Projection.FinalRow().CumulativeNetCashFlow),
	})
}

func propertyToValue(p *domain.PropertySummary) *structpb.Value {
	return object(map[string]*structpb.Value{
		"property_id": structpb.NewStringValue(p.PropertyID.String()),
		"label":       structpb.NewStringValue(p.Label),
		"address":     structpb.NewStringValue(p.Address),
		"city":        structpb.NewStringValue(p.City),
		"created_at":  timestamp(p.CreatedAt),
	})
}
