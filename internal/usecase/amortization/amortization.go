package amortization

import "math"

// MonthlyPayment returns the fixed monthly payment of an amortizing loan
// Logic:
//   - payment = principal * (rate/12) / (1 - (1 + rate/12)^(-nMonths))
//   - A zero rate falls back to straight-line amortization: principal / nMonths
//
// nMonths must be positive; callers validate durations beforehand.
func MonthlyPayment(principal float64, nMonths int, annualRate float64) float64 {
	if annualRate == 0 {
		return principal / float64(nMonths)
	}

	monthlyRate := annualRate / 12
	return principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(nMonths)))
}

// RemainingPrincipal returns the loan balance left after yearsElapsed*12 monthly payments
// Logic:
//   - balance = (principal - M/(rate/12)) * (1 + rate/12)^(12*years) + M/(rate/12)
//   - A zero rate falls back to principal - 12*years*M
//
// The result is a positive magnitude while the loan runs; callers negate it for the
// cash-flow sign convention. Past the loan term the closed form turns negative, so callers
// must not query beyond it.
func RemainingPrincipal(principal, monthlyPayment, annualRate float64, yearsElapsed int) float64 {
	months := float64(yearsElapsed * 12)
	if annualRate == 0 {
		return principal - months*monthlyPayment
	}

	monthlyRate := annualRate / 12
	annuity := monthlyPayment / monthlyRate
	return (principal-annuity)*math.Pow(1+monthlyRate, months) + annuity
}
