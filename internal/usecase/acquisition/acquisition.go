package acquisition

import (
	"github.com/theoba/bp-invest/internal/domain"
	"github.com/theoba/bp-invest/internal/usecase/amortization"
)

// Derive expands an assumption record into its one-time acquisition figures
// Logic (order matters, later fields depend on earlier ones):
//  1. Validate the record (ErrInvalidAssumption before any computation)
//  2. AcquisitionFee = AcquisitionFeeRate * PurchasePrice
//  3. TotalAcquisitionPrice = PurchasePrice + AcquisitionFee + RenovationCost
//  4. LoanToValue = (TotalAcquisitionPrice - DownPayment) / TotalAcquisitionPrice
//  5. LoanAmount = LoanToValue * TotalAcquisitionPrice
//  6. MonthlyPayment from the amortization formula over LoanTermYears*12 months
//  7. AnnualDebtService = -12 * MonthlyPayment
//  8. MaintenanceAmount = MaintenanceRate * PurchasePrice, InsuranceAmount = InsuranceRate * annual rent
func Derive(record domain.AssumptionRecord) (domain.DerivedAcquisition, error) {
	if err := record.Validate(); err != nil {
		return domain.DerivedAcquisition{}, err
	}

	fee := record.AcquisitionFeeRate * record.PurchasePrice
	total := record.PurchasePrice + fee + record.RenovationCost
	ltv := (total - record.DownPayment) / total
	loan := ltv * total
	payment := amortization.MonthlyPayment(loan, record.LoanTermYears*12, record.AnnualInterestRate)

	return domain.DerivedAcquisition{
		AcquisitionFee:        fee,
		TotalAcquisitionPrice: total,
		LoanToValue:           ltv,
		LoanAmount:            loan,
		MonthlyPayment:        payment,
		AnnualDebtService:     -12 * payment,
		MaintenanceAmount:     record.MaintenanceRate * record.PurchasePrice,
		InsuranceAmount:       record.InsuranceRate * record.AnnualRent(),
		StraightLine:          record.AnnualInterestRate == 0,
	}, nil
}
