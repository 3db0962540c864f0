package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

func TestFluxFlagsPerBasis(t *testing.T) {
	// E1 threshold from the floor is 1,000 USD.
	rs := &model.RecordSet{Flux: []model.FluxRow{
		{Entity: "E1", Account: "5000", AccountName: "Opex", Actual: dec("12000"), Budget: dec("10000"), Prior: dec("11500")},
	}}

	res, err := NewFlux(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	// Variance vs budget is 2,000 (flags); vs prior is 500 (within).
	require.Len(t, res.Exceptions, 1)
	exc := res.Exceptions[0]
	assert.Equal(t, model.ReasonFluxOverBudget, exc.ReasonCode)
	assert.True(t, exc.Amount.Equal(dec("2000")))
	assert.True(t, exc.Threshold.Equal(dec("1000")))
	assert.Contains(t, exc.Rationale, "20.00%")
}

func TestFluxAggregatesRowsPerAccount(t *testing.T) {
	rs := &model.RecordSet{Flux: []model.FluxRow{
		{Entity: "E1", Account: "5000", Actual: dec("600"), Budget: dec("100"), Prior: dec("100")},
		{Entity: "E1", Account: "5000", Actual: dec("600"), Budget: dec("100"), Prior: dec("100")},
	}}

	res, err := NewFlux(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	// Aggregated: actual 1,200 vs basis 200 on both bases, variance 1,000 is
	// not strictly above the 1,000 threshold.
	assert.Empty(t, res.Exceptions)
}

func TestFluxNegativeVarianceFlagsOnMagnitude(t *testing.T) {
	rs := &model.RecordSet{Flux: []model.FluxRow{
		{Entity: "E1", Account: "4000", Actual: dec("1000"), Budget: dec("9000"), Prior: dec("1000")},
	}}

	res, err := NewFlux(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	require.Len(t, res.Exceptions, 1)
	assert.True(t, res.Exceptions[0].Amount.Equal(dec("-8000")))
	assert.Equal(t, model.ReasonFluxOverBudget, res.Exceptions[0].ReasonCode)
}

func TestFluxZeroBasisPercentage(t *testing.T) {
	rs := &model.RecordSet{Flux: []model.FluxRow{
		{Entity: "E1", Account: "6000", Actual: dec("5000"), Budget: dec("0"), Prior: dec("0")},
	}}

	res, err := NewFlux(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	require.Len(t, res.Exceptions, 2)
	for _, e := range res.Exceptions {
		assert.Contains(t, e.Rationale, "n/a")
	}
}
