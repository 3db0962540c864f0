package model

import (
	"github.com/shopspring/decimal"
)

// Detection source domains. One per detector; used as the exception source
// and as the gate category key.
const (
	SourceBank         = "bank"
	SourcePayables     = "payables"
	SourceReceivables  = "receivables"
	SourceIntercompany = "intercompany"
	SourceTrialBalance = "trial_balance"
	SourceJournals     = "journal_entries"
	SourceAccruals     = "accruals"
	SourceFlux         = "flux"
	SourceAutoJournal  = "auto_journal"
)

// Reason codes emitted by the detectors.
const (
	ReasonDuplicate          = "duplicate_candidate"
	ReasonTiming             = "timing_candidate"
	ReasonUnusualCounterpart = "unusual_counterparty"
	ReasonVelocity           = "velocity_anomaly"
	ReasonKiting             = "kiting_pattern"

	ReasonOverdue       = "overdue"
	ReasonAged          = "aged_over_60"
	ReasonDuplicateNote = "duplicate_note"
	ReasonRoundDollar   = "round_dollar_anomaly"
	ReasonNewVendor     = "new_vendor_urgent"
	ReasonWeekendEntry  = "weekend_entry"
	ReasonSplitTxn      = "split_transaction"

	ReasonChannelStuffing = "channel_stuffing"
	ReasonCreditMemo      = "credit_memo_anomaly"
	ReasonRelatedParty    = "related_party"

	ReasonICMismatch        = "ic_mismatch"
	ReasonICRoundDollar     = "ic_round_dollar_anomaly"
	ReasonICTransferPricing = "ic_transfer_pricing"
	ReasonICStructuring     = "ic_structuring"

	ReasonTBImbalance = "tb_imbalance"

	ReasonJERejected       = "je_rejected"
	ReasonJEPending        = "je_pending_approval"
	ReasonJEMissingSupport = "je_missing_support"
	ReasonJESODBreach      = "je_sod_breach"

	ReasonAccrualReversalDue      = "accrual_reversal_due"
	ReasonAccrualReversalMisdated = "accrual_reversal_misdated"

	ReasonFluxOverBudget = "flux_over_budget"
	ReasonFluxOverPrior  = "flux_over_prior"

	ReasonDetectorFailure = "detector_failure"
)

// Exception classifications, used by the gate and downstream reporting.
const (
	ClassDuplicate       = "error_duplicate"
	ClassTiming          = "timing_difference"
	ClassForensic        = "forensic_risk"
	ClassControlGap      = "control_gap"
	ClassMisstatement    = "misstatement"
	ClassDetectorFailure = "detector_failure"
)

// AdjustmentProposal is a deterministic suggested correction attached to an
// exception: an intercompany true-up or an accrual reversal.
type AdjustmentProposal struct {
	Type          string          `json:"type"`
	Entity        string          `json:"entity"`
	Amount        decimal.Decimal `json:"amount"`
	Period        string          `json:"period,omitempty"`
	PostedBalance decimal.Decimal `json:"posted_balance"`
	Note          string          `json:"note"`
}

// Exception is one detector finding. Immutable once created: the gate reads
// it and the artifact writer serializes it verbatim.
type Exception struct {
	Source         string              `json:"source"`
	RecordKeys     []string            `json:"record_keys"`
	Entity         string              `json:"entity"`
	ReasonCode     string              `json:"reason_code"`
	Classification string              `json:"classification"`
	Amount         decimal.Decimal     `json:"amount"`
	Threshold      decimal.Decimal     `json:"threshold_applied"`
	PrimaryTxnID   string              `json:"primary_bank_txn_id,omitempty"`
	Rationale      string              `json:"deterministic_rationale"`
	Proposal       *AdjustmentProposal `json:"proposal,omitempty"`
}

// Key returns the stable sort key for an exception: its first record key.
func (e Exception) Key() string {
	if len(e.RecordKeys) == 0 {
		return ""
	}
	return e.RecordKeys[0]
}

// EntityTotal is the per-entity slice of a Summary, kept as a sorted list so
// artifact JSON is stable across runs.
type EntityTotal struct {
	Entity   string          `json:"entity"`
	Count    int             `json:"count"`
	TotalAbs decimal.Decimal `json:"total_abs"`
}

// Summary aggregates one detector's exceptions.
type Summary struct {
	Source   string          `json:"source"`
	Count    int             `json:"count"`
	TotalAbs decimal.Decimal `json:"total_abs"`
	ByEntity []EntityTotal   `json:"by_entity"`
}
