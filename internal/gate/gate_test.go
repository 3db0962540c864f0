package gate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

func boolPtr(v bool) *bool { return &v }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func cleanInputs() Inputs {
	return Inputs{
		TBBalanced:   boolPtr(true),
		FXCoverageOK: boolPtr(true),
	}
}

func TestEvaluateCleanPeriodIsLow(t *testing.T) {
	d := Evaluate(cleanInputs(), DefaultConfig())

	assert.Equal(t, model.RiskLow, d.RiskLevel)
	assert.False(t, d.BlockClose)
	assert.True(t, d.AutoCloseEligible)
	assert.True(t, d.GrossException.IsZero())
	assert.True(t, d.NetException.IsZero())
	assert.Zero(t, d.SourcesTriggered)
	assert.Contains(t, d.Rationale, "Close may proceed automatically")
}

func TestEvaluateFXCoverageFailureBlocksEvenWhenClean(t *testing.T) {
	in := cleanInputs()
	in.FXCoverageOK = boolPtr(false)

	d := Evaluate(in, DefaultConfig())

	assert.Equal(t, model.RiskHigh, d.RiskLevel)
	assert.True(t, d.BlockClose)
	assert.False(t, d.AutoCloseEligible)
	assert.Contains(t, d.Rationale, "FX coverage")
}

func TestEvaluateNilFlagsTreatedAsFailed(t *testing.T) {
	tests := []struct {
		name   string
		inputs Inputs
		reason string
	}{
		{"both nil", Inputs{}, "FX coverage"},
		{"tb nil", Inputs{FXCoverageOK: boolPtr(true)}, "trial balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.inputs, DefaultConfig())
			assert.Equal(t, model.RiskHigh, d.RiskLevel)
			assert.True(t, d.BlockClose)
			assert.Contains(t, d.Rationale, tt.reason)
		})
	}
}

func TestEvaluateNetAboveHighThreshold(t *testing.T) {
	in := cleanInputs()
	in.Categories = []CategoryTotal{
		{Source: model.SourcePayables, Count: 1, AbsTotal: dec("250000.01")},
	}

	d := Evaluate(in, DefaultConfig())

	assert.Equal(t, model.RiskHigh, d.RiskLevel)
	assert.True(t, d.BlockClose)
	assert.Equal(t, 1, d.SourcesTriggered)
}

func TestEvaluateNetExactlyAtHighThresholdIsNotHigh(t *testing.T) {
	in := cleanInputs()
	in.Categories = []CategoryTotal{
		{Source: model.SourcePayables, Count: 1, AbsTotal: dec("250000")},
	}

	d := Evaluate(in, DefaultConfig())

	// One category, comparison is strict: not high, not medium.
	assert.Equal(t, model.RiskLow, d.RiskLevel)
	assert.False(t, d.BlockClose)
}

func TestEvaluateThreeCategoriesIsMedium(t *testing.T) {
	in := cleanInputs()
	in.Categories = []CategoryTotal{
		{Source: model.SourceBank, Count: 2, AbsTotal: dec("100")},
		{Source: model.SourcePayables, Count: 1, AbsTotal: dec("100")},
		{Source: model.SourceFlux, Count: 1, AbsTotal: dec("100")},
	}

	d := Evaluate(in, DefaultConfig())

	assert.Equal(t, model.RiskMedium, d.RiskLevel)
	assert.Equal(t, 3, d.SourcesTriggered)
	// Net well under materiality, so medium still auto-closes.
	assert.True(t, d.AutoCloseEligible)
	assert.False(t, d.BlockClose)
}

func TestEvaluateMediumAboveMaterialityBlocksAutoClose(t *testing.T) {
	in := cleanInputs()
	in.Categories = []CategoryTotal{
		{Source: model.SourcePayables, Count: 1, AbsTotal: dec("40000")},
		{Source: model.SourceReceivables, Count: 1, AbsTotal: dec("40000")},
	}

	d := Evaluate(in, DefaultConfig())

	assert.Equal(t, model.RiskMedium, d.RiskLevel)
	assert.False(t, d.AutoCloseEligible)
	assert.True(t, d.BlockClose)
	assert.True(t, d.NetException.Equal(dec("80000")))
}

func TestEvaluateGrossSumsOnlyAmountBearingCategories(t *testing.T) {
	in := cleanInputs()
	in.Categories = []CategoryTotal{
		{Source: model.SourceBank, Count: 5, AbsTotal: dec("900000")},
		{Source: model.SourceFlux, Count: 2, AbsTotal: dec("900000")},
		{Source: model.SourceTrialBalance, Count: 0, AbsTotal: dec("900000")},
		{Source: model.SourcePayables, Count: 1, AbsTotal: dec("1234.56")},
	}

	d := Evaluate(in, DefaultConfig())

	assert.True(t, d.GrossException.Equal(dec("1234.56")))
	assert.Equal(t, 3, d.SourcesTriggered)
}

func TestEvaluateAutoJournalOffsetsNetButNeverTriggers(t *testing.T) {
	in := cleanInputs()
	in.Categories = []CategoryTotal{
		{Source: model.SourcePayables, Count: 1, AbsTotal: dec("60000")},
		{Source: model.SourceAutoJournal, Count: 4, AbsTotal: dec("15000")},
	}
	in.AutoJournalTotal = dec("15000")

	d := Evaluate(in, DefaultConfig())

	assert.Equal(t, 1, d.SourcesTriggered)
	assert.True(t, d.GrossException.Equal(dec("60000")))
	assert.True(t, d.NetException.Equal(dec("45000")))
	assert.Equal(t, model.RiskLow, d.RiskLevel)
}

func TestEvaluateNetFlooredAtZero(t *testing.T) {
	in := cleanInputs()
	in.Categories = []CategoryTotal{
		{Source: model.SourcePayables, Count: 1, AbsTotal: dec("10000")},
	}
	in.AutoJournalTotal = dec("25000")

	d := Evaluate(in, DefaultConfig())

	assert.True(t, d.NetException.IsZero())
	assert.Equal(t, model.RiskLow, d.RiskLevel)
}

func TestEvaluateRiskMonotonicInNetAmount(t *testing.T) {
	// Holding everything else fixed, a larger net exception amount must never
	// produce a lower risk tier.
	amounts := []string{"0", "40000", "50000", "50000.01", "100000", "250000", "250000.01", "1000000"}
	prev := model.RiskLow.Rank()
	for _, a := range amounts {
		in := cleanInputs()
		in.Categories = []CategoryTotal{
			{Source: model.SourcePayables, Count: 1, AbsTotal: dec(a)},
			{Source: model.SourceReceivables, Count: 1, AbsTotal: dec("0")},
		}
		d := Evaluate(in, DefaultConfig())
		require.GreaterOrEqual(t, d.RiskLevel.Rank(), prev, "net %s lowered the tier", a)
		prev = d.RiskLevel.Rank()
	}
}

func TestEvaluateDeterministicRationale(t *testing.T) {
	in := cleanInputs()
	in.Categories = []CategoryTotal{
		{Source: model.SourceReceivables, Count: 2, AbsTotal: dec("70000")},
		{Source: model.SourceBank, Count: 1, AbsTotal: dec("500")},
	}

	a := Evaluate(in, DefaultConfig())
	b := Evaluate(in, DefaultConfig())

	assert.Equal(t, a, b)
	assert.Contains(t, a.Rationale, "bank (1)")
	assert.Contains(t, a.Rationale, "receivables (2)")
}
