package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjection_FinalRow(t *testing.T) {
	p := Projection{Rows: []YearlyCashFlow{
		{Year: 0, NetCashFlow: -9300},
		{Year: 1, NetCashFlow: 54000, NetSaleProceeds: 60000},
	}}

	assert.Equal(t, 1, p.FinalRow().Year)
	assert.Equal(t, 60000.0, p.FinalRow().NetSaleProceeds)
}

func TestProjection_FinalRowWithoutRows(t *testing.T) {
	var p Projection

	assert.NotPanics(t, func() {
		assert.Equal(t, YearlyCashFlow{}, p.FinalRow())
	})
}
