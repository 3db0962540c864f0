package model

import "github.com/shopspring/decimal"

// RiskLevel is the gate's three-tier risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk levels for monotonicity checks: low < medium < high.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// GatekeepingDecision is the single close/no-close outcome for a run.
// Immutable once written.
type GatekeepingDecision struct {
	RiskLevel         RiskLevel       `json:"risk_level"`
	BlockClose        bool            `json:"block_close"`
	AutoCloseEligible bool            `json:"auto_close_eligible"`
	GrossException    decimal.Decimal `json:"gross_exception_amount"`
	NetException      decimal.Decimal `json:"net_exception_amount"`
	SourcesTriggered  int             `json:"triggered_category_count"`
	Rationale         string          `json:"deterministic_rationale"`
}
