package detect

import "github.com/shopspring/decimal"

// Config holds the tunable rule parameters shared by the detectors. All
// values are fixed for the lifetime of a run.
type Config struct {
	// Bank
	TimingWindowDays     int
	VelocityMinTxns      int
	CounterpartyKeywords []string
	LargePaymentFloor    decimal.Decimal
	KitingTolerancePct   decimal.Decimal
	KitingMinLagDays     int
	KitingMaxLagDays     int

	// Payables / receivables
	AgedDaysLimit      int
	RoundDollarFloor   decimal.Decimal
	UrgencyKeywords    []string
	NewVendorDays      int
	NewVendorAmount    decimal.Decimal
	SplitMinBills      int
	MonthEndWindowDays int
	ExtendedTermsDays  int
	CreditMemoFloor    decimal.Decimal
	RelatedPartyWords  []string

	// Intercompany
	ICRoundDollarFloor    decimal.Decimal
	ManagementFeeKeywords []string
	TransferPricingFloor  decimal.Decimal
	StructuringCeiling    decimal.Decimal
	StructuringMinTxns    int

	// Trial balance
	TopContributors int
}

// DefaultConfig returns the standard rule parameters.
func DefaultConfig() Config {
	return Config{
		TimingWindowDays:     3,
		VelocityMinTxns:      3,
		CounterpartyKeywords: []string{"cash advance", "loan", "lending"},
		LargePaymentFloor:    decimal.NewFromInt(10000),
		KitingTolerancePct:   decimal.NewFromFloat(0.01),
		KitingMinLagDays:     1,
		KitingMaxLagDays:     3,

		AgedDaysLimit:      60,
		RoundDollarFloor:   decimal.NewFromInt(5000),
		UrgencyKeywords:    []string{"urgent", "asap", "immediately", "rush"},
		NewVendorDays:      30,
		NewVendorAmount:    decimal.NewFromInt(25000),
		SplitMinBills:      2,
		MonthEndWindowDays: 3,
		ExtendedTermsDays:  60,
		CreditMemoFloor:    decimal.NewFromInt(10000),
		RelatedPartyWords:  []string{"related party", "affiliate", "subsidiary", "director", "officer"},

		ICRoundDollarFloor:    decimal.NewFromInt(10000),
		ManagementFeeKeywords: []string{"management fee", "royalty", "license fee"},
		TransferPricingFloor:  decimal.NewFromInt(50000),
		StructuringCeiling:    decimal.NewFromInt(10000),
		StructuringMinTxns:    3,

		TopContributors: 5,
	}
}
