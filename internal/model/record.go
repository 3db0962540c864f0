package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is one normalized bank statement line.
// Text fields are already null-coerced to "" at ingestion; Date is nil when
// the source date could not be parsed, which excludes the record from
// date-window matching.
type BankTransaction struct {
	TxnID        string          `json:"bank_txn_id"`
	Entity       string          `json:"entity"`
	Date         *time.Time      `json:"date,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Counterparty string          `json:"counterparty"`
	Description  string          `json:"description"`
	TxnType      string          `json:"transaction_type"`
}

// PayableBill is one accounts-payable open item.
type PayableBill struct {
	BillID      string          `json:"bill_id"`
	Entity      string          `json:"entity"`
	Vendor      string          `json:"vendor_name"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	AgeDays     int             `json:"age_days"`
	BillDate    *time.Time      `json:"bill_date,omitempty"`
	VendorSince *time.Time      `json:"vendor_since,omitempty"`
	Notes       string          `json:"notes"`
}

// ReceivableInvoice is one accounts-receivable open item. DocType is
// "invoice" or "credit_memo".
type ReceivableInvoice struct {
	InvoiceID        string          `json:"invoice_id"`
	Entity           string          `json:"entity"`
	Customer         string          `json:"customer_name"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	AgeDays          int             `json:"age_days"`
	InvoiceDate      *time.Time      `json:"invoice_date,omitempty"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	DocType          string          `json:"doc_type"`
	Notes            string          `json:"notes"`
}

// IntercompanyDoc is one intercompany transaction pair: the amount booked by
// the source entity and the amount booked by the destination entity.
type IntercompanyDoc struct {
	DocID       string          `json:"doc_id"`
	EntitySrc   string          `json:"entity_src"`
	EntityDst   string          `json:"entity_dst"`
	AmountSrc   decimal.Decimal `json:"amount_src"`
	AmountDst   decimal.Decimal `json:"amount_dst"`
	Currency    string          `json:"currency"`
	Date        *time.Time      `json:"date,omitempty"`
	Description string          `json:"description"`
	DocType     string          `json:"doc_type"`
}

// TrialBalanceLine is one account balance for an entity and period.
type TrialBalanceLine struct {
	Entity      string          `json:"entity"`
	Account     string          `json:"account"`
	AccountName string          `json:"account_name"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    string          `json:"currency"`
}

// JournalEntry is one journal entry header awaiting close review.
type JournalEntry struct {
	EntryID        string          `json:"entry_id"`
	Entity         string          `json:"entity"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Date           *time.Time      `json:"date,omitempty"`
	Description    string          `json:"description"`
	Source         string          `json:"source"`
	ApprovalStatus string          `json:"approval_status"`
	Approver       string          `json:"approver"`
	SupportRef     string          `json:"supporting_doc_ref"`
}

// Accrual is one accrual balance carried into the close.
type Accrual struct {
	AccrualID    string          `json:"accrual_id"`
	Entity       string          `json:"entity"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
	ReversalDate *time.Time      `json:"reversal_date,omitempty"`
}

// FluxRow carries the actual, budget, and prior-period amounts for one
// (entity, account) pair, pre-aggregated for variance analysis.
type FluxRow struct {
	Entity      string          `json:"entity"`
	Account     string          `json:"account"`
	AccountName string          `json:"account_name"`
	Actual      decimal.Decimal `json:"actual"`
	Budget      decimal.Decimal `json:"budget"`
	Prior       decimal.Decimal `json:"prior"`
}

// EntitySize is the absolute trial-balance sum used to derive the entity's
// materiality threshold.
type EntitySize struct {
	Entity string          `json:"entity"`
	TBSum  decimal.Decimal `json:"tb_sum"`
}

// RecordSet bundles every fully materialized record collection for one run.
// Detectors read from it and never mutate it.
type RecordSet struct {
	Bank         []BankTransaction
	Payables     []PayableBill
	Receivables  []ReceivableInvoice
	Intercompany []IntercompanyDoc
	TrialBalance []TrialBalanceLine
	Journals     []JournalEntry
	Accruals     []Accrual
	Flux         []FluxRow
	Sizes        []EntitySize
}
