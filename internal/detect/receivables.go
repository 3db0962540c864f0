package detect

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Receivables scans open invoices and credit memos for overdue/aged items
// and receivable-specific forensic patterns (channel stuffing, large credit
// memos, related-party counterparties).
type Receivables struct {
	cfg   Config
	rules []invoiceRule
}

type invoiceRule func(cfg Config, inv model.ReceivableInvoice) *model.Exception

// NewReceivables returns the receivables detector.
func NewReceivables(cfg Config) *Receivables {
	return &Receivables{
		cfg: cfg,
		rules: []invoiceRule{
			invOverdue,
			invAged,
			invRoundDollar,
			invWeekend,
			invChannelStuffing,
			invCreditMemo,
			invRelatedParty,
		},
	}
}

func (d *Receivables) Name() string { return model.SourceReceivables }

func (d *Receivables) Detect(in Input) (Result, error) {
	var excs []model.Exception
	for _, inv := range in.Records.Receivables {
		if inv.InvoiceID == "" || inv.Entity == "" {
			return Result{}, eris.Wrapf(model.ErrDataShape, "receivables: invoice missing id or entity (id=%q)", inv.InvoiceID)
		}
		if !in.Scope.Matches(inv.Entity) {
			continue
		}
		for _, rule := range d.rules {
			if e := rule(d.cfg, inv); e != nil {
				excs = append(excs, *e)
			}
		}
	}
	return finish(model.SourceReceivables, excs), nil
}

func invOverdue(_ Config, inv model.ReceivableInvoice) *model.Exception {
	if !strings.EqualFold(inv.Status, "Overdue") {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceReceivables,
		RecordKeys:     []string{inv.InvoiceID},
		Entity:         inv.Entity,
		ReasonCode:     model.ReasonOverdue,
		Classification: model.ClassMisstatement,
		Amount:         inv.Amount,
		Rationale:      rationaleOverdue(inv.InvoiceID, inv.Status, inv.AgeDays, inv.Amount),
	}
}

func invAged(cfg Config, inv model.ReceivableInvoice) *model.Exception {
	if strings.EqualFold(inv.Status, "Overdue") || inv.AgeDays <= cfg.AgedDaysLimit {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceReceivables,
		RecordKeys:     []string{inv.InvoiceID},
		Entity:         inv.Entity,
		ReasonCode:     model.ReasonAged,
		Classification: model.ClassMisstatement,
		Amount:         inv.Amount,
		Rationale:      rationaleAged(inv.InvoiceID, inv.AgeDays, cfg.AgedDaysLimit, inv.Amount),
	}
}

func invRoundDollar(cfg Config, inv model.ReceivableInvoice) *model.Exception {
	if !inv.Amount.Abs().GreaterThan(cfg.RoundDollarFloor) {
		return nil
	}
	base := roundDollarBase(inv.Amount)
	if base.IsZero() {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceReceivables,
		RecordKeys:     []string{inv.InvoiceID},
		Entity:         inv.Entity,
		ReasonCode:     model.ReasonRoundDollar,
		Classification: model.ClassForensic,
		Amount:         inv.Amount,
		Threshold:      cfg.RoundDollarFloor,
		Rationale:      rationaleRoundDollar("invoice "+inv.InvoiceID, inv.Amount, base, cfg.RoundDollarFloor),
	}
}

func invWeekend(_ Config, inv model.ReceivableInvoice) *model.Exception {
	if inv.InvoiceDate == nil {
		return nil
	}
	wd := inv.InvoiceDate.Weekday()
	if wd != time.Saturday && wd != time.Sunday {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceReceivables,
		RecordKeys:     []string{inv.InvoiceID},
		Entity:         inv.Entity,
		ReasonCode:     model.ReasonWeekendEntry,
		Classification: model.ClassForensic,
		Amount:         inv.Amount,
		Rationale: fmt.Sprintf("invoice %s dated %s (%s), outside the business week",
			inv.InvoiceID, inv.InvoiceDate.Format("2006-01-02"), wd),
	}
}

// invChannelStuffing flags invoices clustered at month end that also carry
// extended payment terms.
func invChannelStuffing(cfg Config, inv model.ReceivableInvoice) *model.Exception {
	if inv.InvoiceDate == nil || inv.PaymentTermsDays <= cfg.ExtendedTermsDays {
		return nil
	}
	d := *inv.InvoiceDate
	lastDay := time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if lastDay-d.Day() >= cfg.MonthEndWindowDays {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceReceivables,
		RecordKeys:     []string{inv.InvoiceID},
		Entity:         inv.Entity,
		ReasonCode:     model.ReasonChannelStuffing,
		Classification: model.ClassForensic,
		Amount:         inv.Amount,
		Rationale: fmt.Sprintf("invoice %s dated %s in the last %d day(s) of the month with %d-day terms (limit %d)",
			inv.InvoiceID, d.Format("2006-01-02"), cfg.MonthEndWindowDays, inv.PaymentTermsDays, cfg.ExtendedTermsDays),
	}
}

func invCreditMemo(cfg Config, inv model.ReceivableInvoice) *model.Exception {
	if !strings.EqualFold(inv.DocType, "credit_memo") || !inv.Amount.IsNegative() {
		return nil
	}
	if inv.Amount.Abs().LessThan(cfg.CreditMemoFloor) {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceReceivables,
		RecordKeys:     []string{inv.InvoiceID},
		Entity:         inv.Entity,
		ReasonCode:     model.ReasonCreditMemo,
		Classification: model.ClassForensic,
		Amount:         inv.Amount,
		Threshold:      cfg.CreditMemoFloor,
		Rationale: fmt.Sprintf("credit memo %s for %s at or above the %s review floor",
			inv.InvoiceID, usd(inv.Amount), usd(cfg.CreditMemoFloor)),
	}
}

func invRelatedParty(cfg Config, inv model.ReceivableInvoice) *model.Exception {
	kw, hit := containsAnyFold(inv.Customer+" "+inv.Notes, cfg.RelatedPartyWords)
	if !hit {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceReceivables,
		RecordKeys:     []string{inv.InvoiceID},
		Entity:         inv.Entity,
		ReasonCode:     model.ReasonRelatedParty,
		Classification: model.ClassForensic,
		Amount:         inv.Amount,
		Rationale: fmt.Sprintf("invoice %s customer/notes match related-party keyword %q, amount %s",
			inv.InvoiceID, kw, usd(inv.Amount)),
	}
}
