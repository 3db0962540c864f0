package detect

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Payables scans open payable bills for overdue/aged items and forensic
// patterns (round-dollar, new-vendor urgency, weekend dating, split
// transactions).
type Payables struct {
	cfg   Config
	rules []billRule
}

// billRule is one pure per-bill detection rule.
type billRule func(cfg Config, b model.PayableBill) *model.Exception

// NewPayables returns the payables detector with its rule chain in fixed
// order.
func NewPayables(cfg Config) *Payables {
	return &Payables{
		cfg: cfg,
		rules: []billRule{
			billOverdue,
			billAged,
			billDuplicateNote,
			billRoundDollar,
			billNewVendorUrgent,
			billWeekend,
		},
	}
}

func (d *Payables) Name() string { return model.SourcePayables }

func (d *Payables) Detect(in Input) (Result, error) {
	var bills []model.PayableBill
	for _, b := range in.Records.Payables {
		if b.BillID == "" || b.Entity == "" {
			return Result{}, eris.Wrapf(model.ErrDataShape, "payables: bill missing id or entity (id=%q)", b.BillID)
		}
		if in.Scope.Matches(b.Entity) {
			bills = append(bills, b)
		}
	}

	var excs []model.Exception
	for _, b := range bills {
		for _, rule := range d.rules {
			if e := rule(d.cfg, b); e != nil {
				excs = append(excs, *e)
			}
		}
	}
	excs = append(excs, d.splitTransactions(bills)...)
	return finish(model.SourcePayables, excs), nil
}

func billOverdue(_ Config, b model.PayableBill) *model.Exception {
	if !strings.EqualFold(b.Status, "Overdue") {
		return nil
	}
	return &model.Exception{
		Source:         model.SourcePayables,
		RecordKeys:     []string{b.BillID},
		Entity:         b.Entity,
		ReasonCode:     model.ReasonOverdue,
		Classification: model.ClassMisstatement,
		Amount:         b.Amount,
		Rationale:      rationaleOverdue(b.BillID, b.Status, b.AgeDays, b.Amount),
	}
}

func billAged(cfg Config, b model.PayableBill) *model.Exception {
	// Overdue status already fires the overdue rule; aging is the fallback
	// signal for items still marked open.
	if strings.EqualFold(b.Status, "Overdue") || b.AgeDays <= cfg.AgedDaysLimit {
		return nil
	}
	return &model.Exception{
		Source:         model.SourcePayables,
		RecordKeys:     []string{b.BillID},
		Entity:         b.Entity,
		ReasonCode:     model.ReasonAged,
		Classification: model.ClassMisstatement,
		Amount:         b.Amount,
		Rationale:      rationaleAged(b.BillID, b.AgeDays, cfg.AgedDaysLimit, b.Amount),
	}
}

func billDuplicateNote(_ Config, b model.PayableBill) *model.Exception {
	if !strings.Contains(strings.ToLower(b.Notes), "duplicate") {
		return nil
	}
	return &model.Exception{
		Source:         model.SourcePayables,
		RecordKeys:     []string{b.BillID},
		Entity:         b.Entity,
		ReasonCode:     model.ReasonDuplicateNote,
		Classification: model.ClassDuplicate,
		Amount:         b.Amount,
		Rationale:      fmt.Sprintf("bill %s notes mention a duplicate, open amount %s", b.BillID, usd(b.Amount)),
	}
}

func billRoundDollar(cfg Config, b model.PayableBill) *model.Exception {
	if !b.Amount.Abs().GreaterThan(cfg.RoundDollarFloor) {
		return nil
	}
	base := roundDollarBase(b.Amount)
	if base.IsZero() {
		return nil
	}
	return &model.Exception{
		Source:         model.SourcePayables,
		RecordKeys:     []string{b.BillID},
		Entity:         b.Entity,
		ReasonCode:     model.ReasonRoundDollar,
		Classification: model.ClassForensic,
		Amount:         b.Amount,
		Threshold:      cfg.RoundDollarFloor,
		Rationale:      rationaleRoundDollar("bill "+b.BillID, b.Amount, base, cfg.RoundDollarFloor),
	}
}

func billNewVendorUrgent(cfg Config, b model.PayableBill) *model.Exception {
	if b.VendorSince == nil || b.BillDate == nil {
		return nil
	}
	vendorAge := dayGap(*b.VendorSince, *b.BillDate)
	if vendorAge < 0 || vendorAge > cfg.NewVendorDays {
		return nil
	}
	kw, urgent := containsAnyFold(b.Notes, cfg.UrgencyKeywords)
	if !urgent || !b.Amount.Abs().GreaterThan(cfg.NewVendorAmount) {
		return nil
	}
	return &model.Exception{
		Source:         model.SourcePayables,
		RecordKeys:     []string{b.BillID},
		Entity:         b.Entity,
		ReasonCode:     model.ReasonNewVendor,
		Classification: model.ClassForensic,
		Amount:         b.Amount,
		Threshold:      cfg.NewVendorAmount,
		Rationale: fmt.Sprintf("bill %s for %s to vendor %q onboarded %d day(s) earlier carries urgency keyword %q (floor %s)",
			b.BillID, usd(b.Amount.Abs()), b.Vendor, vendorAge, kw, usd(cfg.NewVendorAmount)),
	}
}

func billWeekend(_ Config, b model.PayableBill) *model.Exception {
	if b.BillDate == nil {
		return nil
	}
	wd := b.BillDate.Weekday()
	if wd != time.Saturday && wd != time.Sunday {
		return nil
	}
	return &model.Exception{
		Source:         model.SourcePayables,
		RecordKeys:     []string{b.BillID},
		Entity:         b.Entity,
		ReasonCode:     model.ReasonWeekendEntry,
		Classification: model.ClassForensic,
		Amount:         b.Amount,
		Rationale: fmt.Sprintf("bill %s dated %s (%s), outside the business week",
			b.BillID, b.BillDate.Format("2006-01-02"), wd),
	}
}

// splitTransactions flags multiple same-vendor same-day bills, a common way
// to keep individual amounts under approval limits.
func (d *Payables) splitTransactions(bills []model.PayableBill) []model.Exception {
	type splitKey struct {
		entity, vendor, date string
	}
	groups := make(map[splitKey][]model.PayableBill)
	for _, b := range bills {
		if b.BillDate == nil || b.Vendor == "" {
			continue
		}
		k := splitKey{b.Entity, strings.ToLower(b.Vendor), b.BillDate.Format("2006-01-02")}
		groups[k] = append(groups[k], b)
	}

	var excs []model.Exception
	for k, group := range groups {
		if len(group) < d.cfg.SplitMinBills {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].BillID < group[j].BillID })
		keys := make([]string, len(group))
		total := decimal.Zero
		for i, b := range group {
			keys[i] = b.BillID
			total = total.Add(b.Amount.Abs())
		}
		excs = append(excs, model.Exception{
			Source:         model.SourcePayables,
			RecordKeys:     keys,
			Entity:         group[0].Entity,
			ReasonCode:     model.ReasonSplitTxn,
			Classification: model.ClassForensic,
			Amount:         total,
			Rationale: fmt.Sprintf("%d bills to vendor %q on %s totalling %s, possible split transaction",
				len(group), group[0].Vendor, k.date, usd(total)),
		})
	}
	sort.Slice(excs, func(i, j int) bool { return excs[i].Key() < excs[j].Key() })
	return excs
}
