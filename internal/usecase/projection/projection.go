package projection

import (
	"math"

	"github.com/theoba/bp-invest/internal/domain"
	"github.com/theoba/bp-invest/internal/usecase/amortization"
)

// Project builds the yearly cash-flow table for years 0..DetentionYears inclusive
// The table always has DetentionYears+1 rows; nothing is produced after the sale year.
//
// Logic per year y:
//   - Rent and the recurring charges start in year 1 and compound from there: base * (1+g)^(y-1)
//   - Market value compounds from year 0: CurrentMarketValue * (1+g)^y
//   - Down payment is paid in year 0, capex every CapexFrequencyYears years (never in year 0)
//   - Debt service runs from year 1 to LoanTermYears and stops afterwards
//   - The sale happens in the final row: market value, minus sale fee, minus outstanding principal
//   - Cumulative columns are running sums from year 0
func Project(record domain.AssumptionRecord, derived domain.DerivedAcquisition) ([]domain.YearlyCashFlow, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	rows := make([]domain.YearlyCashFlow, 0, record.DetentionYears+1)
	var cumulativeAfterDebt, cumulativeNet float64

	for year := 0; year <= record.DetentionYears; year++ {
		row := domain.YearlyCashFlow{Year: year}
		if !record.AcquisitionDate.IsZero() {
			row.CalendarYear = record.AcquisitionDate.Year + year
		}

		// Income
		if year > 0 {
			row.Rent = record.AnnualRent() * math.Pow(1+record.MarketRentGrowth, float64(year-1))
		}
		row.Vacancy = -row.Rent * record.VacancyRate
		row.UnpaidRent = -row.Rent * record.UnpaidRentRate
		row.GrossEffectiveRevenue = row.Rent + row.Vacancy + row.UnpaidRent

		// Recurring charges
		if year > 0 {
			growth := math.Pow(1+record.PropertyChargeGrowth, float64(year-1))
			row.PropertyManagement = -record.PropertyManagement * growth
			row.Accounting = -record.Accounting * growth
			row.CoOwnershipFees = -record.CoOwnershipFees * growth
			row.PropertyTax = -record.PropertyTax * growth
			row.Maintenance = -derived.MaintenanceAmount * growth
			row.Insurance = -derived.InsuranceAmount * growth
		}
		row.TotalRecurringCharges = row.PropertyManagement + row.Accounting + row.CoOwnershipFees +
			row.PropertyTax + row.Maintenance + row.Insurance
		row.NetOperatingIncome = row.GrossEffectiveRevenue + row.TotalRecurringCharges

		// Non-recurring charges
		if year == 0 {
			row.DownPayment = -record.DownPayment
		}
		if year != 0 && year%record.CapexFrequencyYears == 0 {
			row.Capex = -record.NonRecurringCapexAmount
		}
		row.TotalNonRecurringCharges = row.DownPayment + row.Capex

		// Debt
		if year > 0 && year <= record.LoanTermYears {
			row.DebtService = derived.AnnualDebtService
		}
		row.CashFlowAfterDebt = row.NetOperatingIncome + row.TotalNonRecurringCharges + row.DebtService
		cumulativeAfterDebt += row.CashFlowAfterDebt
		row.CumulativeCashFlowAfterDebt = cumulativeAfterDebt

		// Valuation
		row.MarketValue = record.CurrentMarketValue * math.Pow(1+record.MarketValueGrowth, float64(year))
		if balance := outstandingPrincipal(record, derived, year); balance > 0 {
			row.OutstandingPrincipal = -balance
		}

		// Sale
		if year == record.DetentionYears {
			row.GrossSaleProceeds = row.MarketValue
			row.SaleFee = -row.GrossSaleProceeds * record.SaleFeeRate
			row.RemainingPrincipalAtSale = row.OutstandingPrincipal
			row.NetSaleProceeds = row.GrossSaleProceeds + row.SaleFee + row.RemainingPrincipalAtSale
		}

		row.NetCashFlow = row.CashFlowAfterDebt + row.NetSaleProceeds
		cumulativeNet += row.NetCashFlow
		row.CumulativeNetCashFlow = cumulativeNet

		rows = append(rows, row)
	}

	return rows, nil
}

// outstandingPrincipal returns the loan balance (positive magnitude) at the end of year
// The balance is zero once the loan term is over and never goes below zero.
func outstandingPrincipal(record domain.AssumptionRecord, derived domain.DerivedAcquisition, year int) float64 {
	if year > record.LoanTermYears {
		return 0
	}
	balance := amortization.RemainingPrincipal(derived.LoanAmount, derived.MonthlyPayment, record.AnnualInterestRate, year)
	return math.Max(balance, 0)
}
