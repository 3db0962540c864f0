package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

func TestTrialBalanceBalancedEntityIsClean(t *testing.T) {
	rs := &model.RecordSet{TrialBalance: []model.TrialBalanceLine{
		{Entity: "E1", Account: "1000", AccountName: "Cash", Balance: dec("1500.25")},
		{Entity: "E1", Account: "2000", AccountName: "AP", Balance: dec("-1500.25")},
	}}

	d := NewTrialBalance(DefaultConfig())
	res, err := d.Detect(testInput(rs))
	require.NoError(t, err)
	assert.Empty(t, res.Exceptions)

	// Idempotent: a second pass over the same balanced entity stays clean.
	res, err = d.Detect(testInput(rs))
	require.NoError(t, err)
	assert.Empty(t, res.Exceptions)
	assert.Equal(t, 0, res.Summary.Count)
}

func TestTrialBalanceImbalanceRanksContributors(t *testing.T) {
	rs := &model.RecordSet{TrialBalance: []model.TrialBalanceLine{
		{Entity: "E1", Account: "1000", AccountName: "Cash", Balance: dec("100.00")},
		{Entity: "E1", Account: "3000", AccountName: "Revenue", Balance: dec("-90000.00")},
		{Entity: "E1", Account: "2000", AccountName: "AP", Balance: dec("89900.50")},
		{Entity: "E2", Account: "1000", AccountName: "Cash", Balance: dec("5.00")},
		{Entity: "E2", Account: "2000", AccountName: "AP", Balance: dec("-5.00")},
	}}

	res, err := NewTrialBalance(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	require.Len(t, res.Exceptions, 1)
	exc := res.Exceptions[0]
	assert.Equal(t, model.ReasonTBImbalance, exc.ReasonCode)
	assert.Equal(t, "E1", exc.Entity)
	assert.True(t, exc.Amount.Equal(dec("0.50")))
	// Contributors ranked by absolute magnitude, largest first.
	assert.Contains(t, exc.Rationale, "3000 Revenue")
	assert.Contains(t, exc.Rationale, "2000 AP")
	assert.Regexp(t, `3000 Revenue.*2000 AP.*1000 Cash`, exc.Rationale)
}

func TestTrialBalanceRoundingAbsorbsSubCentNoise(t *testing.T) {
	rs := &model.RecordSet{TrialBalance: []model.TrialBalanceLine{
		{Entity: "E1", Account: "1000", Balance: dec("0.001")},
		{Entity: "E1", Account: "2000", Balance: dec("0.002")},
	}}

	res, err := NewTrialBalance(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)
	assert.Empty(t, res.Exceptions)
}
