package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoba/bp-invest/internal/domain"
)

// rowsFromFlows builds a table whose only populated columns are the net cash flows
func rowsFromFlows(flows ...float64) []domain.YearlyCashFlow {
	rows := make([]domain.YearlyCashFlow, len(flows))
	cumulative := 0.0
	for i, cf := range flows {
		cumulative += cf
		rows[i] = domain.YearlyCashFlow{
			Year:                  i,
			NetCashFlow:           cf,
			CumulativeNetCashFlow: cumulative,
		}
	}
	return rows
}

func TestIRR(t *testing.T) {
	tests := []struct {
		name     string
		flows    []float64
		expected float64
	}{
		{"single period", []float64{-100, 110}, 0.1},
		{"three periods", []float64{-1000, 300, 400, 500}, 0.0889633947},
		{"two outflows before payoff", []float64{-500, -100, 50, 900}, 0.1792275056},
		{"very high return", []float64{-1, 1000}, 999},
		{"losing investment", []float64{-1000, 100, 100, 500}, -0.1279085433},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			irr := IRR(tt.flows)

			require.True(t, irr.Defined)
			assert.InDelta(t, tt.expected, irr.Value, 1e-4)
			assert.InDelta(t, 0, NPV(irr.Value, tt.flows), 1e-6)
		})
	}
}

func TestIRR_UndefinedWithoutSignChange(t *testing.T) {
	tests := []struct {
		name  string
		flows []float64
	}{
		{"all negative", []float64{-100, -10, -10}},
		{"all positive", []float64{100, 10, 10}},
		{"all zero", []float64{0, 0, 0}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			irr := IRR(tt.flows)

			assert.False(t, irr.Defined)
			assert.True(t, math.IsNaN(irr.Value))
		})
	}
}

func TestBisect_OverflowingDiscountFactors(t *testing.T) {
	// Past ~54 years the discount factor at the lower bound underflows to zero,
	// so inflows and outflows both become infinite and their sum is NaN
	flows := make([]float64, 70)
	flows[0] = -100
	for year := 1; year < 69; year++ {
		flows[year] = 1
	}
	flows[69] = -1
	require.True(t, math.IsNaN(NPV(irrLowerBound, flows)))

	rate, ok := bisect(flows)

	assert.False(t, ok)
	assert.Equal(t, 0.0, rate)
}

func TestNPV(t *testing.T) {
	flows := []float64{-1000, 300, 400, 500}

	assert.InDelta(t, 80.4449, NPV(0.05, flows), 1e-4)
	assert.InDelta(t, 200, NPV(0, flows), 1e-9)
	// Year 0 is never discounted
	assert.InDelta(t, -1000, NPV(0.5, []float64{-1000}), 1e-12)
}

func TestSummarize(t *testing.T) {
	rows := rowsFromFlows(-10000, 500, -300, 800, 15000)

	summary := Summarize(rows, 0.05, 10000)

	require.True(t, summary.IRR.Defined)
	assert.InDelta(t, 0, NPV(summary.IRR.Value, NetCashFlows(rows)), 1e-6)
	assert.InDelta(t, NPV(0.05, NetCashFlows(rows)), summary.NPV, 1e-12)

	require.True(t, summary.Multiple.Defined)
	assert.InDelta(t, 6000.0/10000.0, summary.Multiple.Value, 1e-12)

	require.True(t, summary.MinNetCashFlow.Defined)
	assert.Equal(t, -300.0, summary.MinNetCashFlow.Value)
	require.True(t, summary.MeanNetCashFlow.Defined)
	assert.InDelta(t, 1000.0/3.0, summary.MeanNetCashFlow.Value, 1e-9)
}

func TestSummarize_EmptyHoldingWindow(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.YearlyCashFlow
	}{
		{"immediate sale", rowsFromFlows(5000)},
		{"one year hold", rowsFromFlows(-10000, 12000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize(tt.rows, 0.05, 10000)

			assert.False(t, summary.MinNetCashFlow.Defined)
			assert.False(t, summary.MeanNetCashFlow.Defined)
			assert.True(t, summary.Multiple.Defined)
		})
	}
}

func TestSummarize_ZeroDownPayment(t *testing.T) {
	summary := Summarize(rowsFromFlows(0, -100, -100, 5000), 0.05, 0)

	assert.False(t, summary.Multiple.Defined)
	assert.True(t, summary.IRR.Defined)
}

func TestSnapshot(t *testing.T) {
	rows := []domain.YearlyCashFlow{
		{Year: 0, CumulativeNetCashFlow: -9300, MarketValue: 93000, OutstandingPrincipal: -91140},
		{Year: 1, CumulativeNetCashFlow: -9539, NetOperatingIncome: 4789, MarketValue: 93930, OutstandingPrincipal: -88558.5},
	}

	snapshot, err := Snapshot(rows, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.YearSnapshot{
		Year:                  1,
		CumulativeNetCashFlow: -9539,
		NetOperatingIncome:    4789,
		MarketValue:           93930,
		RemainingDebt:         88558.5,
	}, snapshot)

	_, err = Snapshot(rows, 2)
	assert.ErrorIs(t, err, domain.ErrYearOutOfRange)

	_, err = Snapshot(rows, -1)
	assert.ErrorIs(t, err, domain.ErrYearOutOfRange)
}
