package metrics

import (
	"fmt"
	"math"

	"github.com/theoba/bp-invest/internal/domain"
)

const (
	irrTolerance     = 1e-10
	irrMaxIterations = 100
	irrGuess         = 0.1
	// Lower bound of the IRR search interval, a rate of -100% makes discount factors blow up
	irrLowerBound = -0.999999
	irrUpperLimit = 1e6
)

// Summarize computes the investment metrics of a projected table
// Logic:
//   - IRR over the full net cash flow series (undefined without a sign change)
//   - NPV at discountRate, year 0 undiscounted
//   - Multiple = final cumulative net cash flow / down payment (undefined for a zero down payment)
//   - Min and mean net cash flow over years 1..detention-1, excluding the down payment year
//     and the sale year (undefined when that window is empty)
func Summarize(rows []domain.YearlyCashFlow, discountRate, downPayment float64) domain.MetricsSummary {
	flows := NetCashFlows(rows)

	summary := domain.MetricsSummary{
		IRR:             IRR(flows),
		NPV:             NPV(discountRate, flows),
		Multiple:        domain.UndefinedMetric(),
		MinNetCashFlow:  domain.UndefinedMetric(),
		MeanNetCashFlow: domain.UndefinedMetric(),
	}

	if len(rows) > 0 && downPayment != 0 {
		summary.Multiple = domain.DefinedMetric(rows[len(rows)-1].CumulativeNetCashFlow / downPayment)
	}

	// Holding years sit strictly between year 0 and the sale year
	if len(flows) > 2 {
		holding := flows[1 : len(flows)-1]
		minimum, total := holding[0], 0.0
		for _, cf := range holding {
			minimum = math.Min(minimum, cf)
			total += cf
		}
		summary.MinNetCashFlow = domain.DefinedMetric(minimum)
		summary.MeanNetCashFlow = domain.DefinedMetric(total / float64(len(holding)))
	}

	return summary
}

// NetCashFlows extracts the net cash flow column, indexed by year
func NetCashFlows(rows []domain.YearlyCashFlow) []float64 {
	flows := make([]float64, len(rows))
	for i, row := range rows {
		flows[i] = row.NetCashFlow
	}
	return flows
}

// NPV discounts flows at rate, flows[0] being year 0 (undiscounted)
func NPV(rate float64, flows []float64) float64 {
	npv := 0.0
	for year, cf := range flows {
		npv += cf / math.Pow(1+rate, float64(year))
	}
	return npv
}

// npvDerivative returns d(NPV)/d(rate)
func npvDerivative(rate float64, flows []float64) float64 {
	d := 0.0
	for year, cf := range flows {
		if year == 0 {
			continue
		}
		d -= float64(year) * cf / math.Pow(1+rate, float64(year+1))
	}
	return d
}

// IRR returns the rate at which the NPV of flows is zero
// Newton iterations from a 10% guess are tried first; if they diverge or leave the domain,
// the root is bracketed on (-100%, +inf) and found by bisection.
// The metric is undefined when flows never change sign or no root can be located.
func IRR(flows []float64) domain.Metric {
	if !changesSign(flows) {
		return domain.UndefinedMetric()
	}

	if rate, ok := newton(flows); ok {
		return domain.DefinedMetric(rate)
	}
	if rate, ok := bisect(flows); ok {
		return domain.DefinedMetric(rate)
	}
	return domain.UndefinedMetric()
}

func changesSign(flows []float64) bool {
	var positive, negative bool
	for _, cf := range flows {
		if cf > 0 {
			positive = true
		} else if cf < 0 {
			negative = true
		}
	}
	return positive && negative
}

func newton(flows []float64) (float64, bool) {
	rate := irrGuess
	for i := 0; i < irrMaxIterations; i++ {
		value := NPV(rate, flows)
		if math.Abs(value) < irrTolerance {
			return rate, true
		}
		d := npvDerivative(rate, flows)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return 0, false
		}
		next := rate - value/d
		if next <= irrLowerBound || math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if math.Abs(next-rate) < irrTolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

func bisect(flows []float64) (float64, bool) {
	low, high := irrLowerBound, 1.0
	lowValue := NPV(low, flows)
	if math.IsNaN(lowValue) {
		return 0, false
	}

	// Widen the upper bound until the NPV changes sign
	for NPV(high, flows)*lowValue > 0 {
		high *= 2
		if high > irrUpperLimit {
			return 0, false
		}
	}

	for i := 0; i < 4*irrMaxIterations; i++ {
		mid := (low + high) / 2
		midValue := NPV(mid, flows)
		if math.IsNaN(midValue) {
			return 0, false
		}
		if math.Abs(midValue) < irrTolerance || (high-low)/2 < irrTolerance {
			return mid, true
		}
		if midValue*lowValue > 0 {
			low, lowValue = mid, midValue
		} else {
			high = mid
		}
	}
	return (low + high) / 2, true
}

// Snapshot returns the headline figures of one year of the table
// Returns ErrYearOutOfRange when the year was not projected (after the sale or negative).
func Snapshot(rows []domain.YearlyCashFlow, year int) (domain.YearSnapshot, error) {
	if year < 0 || year >= len(rows) {
		return domain.YearSnapshot{}, fmt.Errorf("%w: year %d, table covers 0..%d", domain.ErrYearOutOfRange, year, len(rows)-1)
	}

	row := rows[year]
	return domain.YearSnapshot{
		Year:                  row.Year,
		CumulativeNetCashFlow: row.CumulativeNetCashFlow,
		NetOperatingIncome:    row.NetOperatingIncome,
		MarketValue:           row.MarketValue,
		RemainingDebt:         math.Abs(row.OutstandingPrincipal),
	}, nil
}
