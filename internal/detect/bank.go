package detect

import (
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Bank scans bank transactions for duplicates, timing offsets, and forensic
// patterns (unusual counterparties, same-day velocity, kiting).
type Bank struct {
	cfg Config
}

// NewBank returns the bank detector.
func NewBank(cfg Config) *Bank { return &Bank{cfg: cfg} }

func (d *Bank) Name() string { return model.SourceBank }

// Detect runs the bank rules in a fixed order. Each sub-rule is independent
// and may co-fire on the same transaction.
func (d *Bank) Detect(in Input) (Result, error) {
	var txns []model.BankTransaction
	for _, t := range in.Records.Bank {
		if t.TxnID == "" || t.Entity == "" {
			return Result{}, eris.Wrapf(model.ErrDataShape, "bank: transaction missing id or entity (id=%q)", t.TxnID)
		}
		if in.Scope.Matches(t.Entity) {
			txns = append(txns, t)
		}
	}

	var excs []model.Exception
	excs = append(excs, d.duplicates(txns)...)
	excs = append(excs, d.timingPairs(txns)...)
	excs = append(excs, d.unusualCounterparties(txns)...)
	excs = append(excs, d.velocity(txns)...)
	excs = append(excs, d.kiting(txns)...)
	return finish(model.SourceBank, excs), nil
}

// signature is the duplicate grouping key. Date is rendered day-precise;
// records with absent dates share the empty-date bucket and are still
// eligible for exact-duplicate detection.
func signature(t model.BankTransaction, withDate bool) string {
	date := ""
	if withDate && t.Date != nil {
		date = t.Date.Format("2006-01-02")
	}
	return strings.Join([]string{
		t.Entity, date, t.Amount.StringFixed(2), t.Currency,
		strings.ToLower(t.Counterparty), strings.ToLower(t.TxnType),
	}, "|")
}

func (d *Bank) duplicates(txns []model.BankTransaction) []model.Exception {
	groups := make(map[string][]model.BankTransaction)
	for _, t := range txns {
		k := signature(t, true)
		groups[k] = append(groups[k], t)
	}

	var excs []model.Exception
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].TxnID < group[j].TxnID })
		primary := group[0]
		for _, t := range group[1:] {
			excs = append(excs, model.Exception{
				Source:         model.SourceBank,
				RecordKeys:     []string{t.TxnID},
				Entity:         t.Entity,
				ReasonCode:     model.ReasonDuplicate,
				Classification: model.ClassDuplicate,
				Amount:         t.Amount,
				PrimaryTxnID:   primary.TxnID,
				Rationale:      rationaleDuplicate(t.TxnID, primary.TxnID, t.Amount),
			})
		}
	}
	return excs
}

// timingPairs relaxes the date dimension: records that match on every other
// signature field and differ by 1..window days form a timing candidate.
// Records without dates never join a window.
func (d *Bank) timingPairs(txns []model.BankTransaction) []model.Exception {
	groups := make(map[string][]model.BankTransaction)
	for _, t := range txns {
		if t.Date == nil {
			continue
		}
		k := signature(t, false)
		groups[k] = append(groups[k], t)
	}

	var excs []model.Exception
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if !group[i].Date.Equal(*group[j].Date) {
				return group[i].Date.Before(*group[j].Date)
			}
			return group[i].TxnID < group[j].TxnID
		})
		for i := 1; i < len(group); i++ {
			later := group[i]
			// Pair with the earliest prior record inside the window.
			for j := 0; j < i; j++ {
				earlier := group[j]
				gap := dayGap(*earlier.Date, *later.Date)
				if gap >= 1 && gap <= d.cfg.TimingWindowDays {
					excs = append(excs, model.Exception{
						Source:         model.SourceBank,
						RecordKeys:     []string{earlier.TxnID, later.TxnID},
						Entity:         later.Entity,
						ReasonCode:     model.ReasonTiming,
						Classification: model.ClassTiming,
						Amount:         later.Amount,
						PrimaryTxnID:   earlier.TxnID,
						Rationale:      rationaleTiming(earlier.TxnID, later.TxnID, gap, d.cfg.TimingWindowDays),
					})
					break
				}
			}
		}
	}
	return excs
}

func (d *Bank) unusualCounterparties(txns []model.BankTransaction) []model.Exception {
	var excs []model.Exception
	for _, t := range txns {
		kw, hit := containsAnyFold(t.Counterparty, d.cfg.CounterpartyKeywords)
		if !hit || !t.Amount.Abs().GreaterThan(d.cfg.LargePaymentFloor) {
			continue
		}
		excs = append(excs, model.Exception{
			Source:         model.SourceBank,
			RecordKeys:     []string{t.TxnID},
			Entity:         t.Entity,
			ReasonCode:     model.ReasonUnusualCounterpart,
			Classification: model.ClassForensic,
			Amount:         t.Amount,
			Threshold:      d.cfg.LargePaymentFloor,
			Rationale:      rationaleCounterparty(t.Counterparty, kw, t.Amount, d.cfg.LargePaymentFloor),
		})
	}
	return excs
}

func (d *Bank) velocity(txns []model.BankTransaction) []model.Exception {
	type velKey struct {
		entity, date, counterparty string
	}
	groups := make(map[velKey][]model.BankTransaction)
	for _, t := range txns {
		if t.Date == nil || t.Counterparty == "" {
			continue
		}
		k := velKey{t.Entity, t.Date.Format("2006-01-02"), strings.ToLower(t.Counterparty)}
		groups[k] = append(groups[k], t)
	}

	var excs []model.Exception
	for k, group := range groups {
		if len(group) < d.cfg.VelocityMinTxns {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].TxnID < group[j].TxnID })
		keys := make([]string, len(group))
		total := decimal.Zero
		for i, t := range group {
			keys[i] = t.TxnID
			total = total.Add(t.Amount.Abs())
		}
		excs = append(excs, model.Exception{
			Source:         model.SourceBank,
			RecordKeys:     keys,
			Entity:         group[0].Entity,
			ReasonCode:     model.ReasonVelocity,
			Classification: model.ClassForensic,
			Amount:         total,
			Rationale:      rationaleVelocity(len(group), group[0].Counterparty, k.date, total),
		})
	}
	sort.Slice(excs, func(i, j int) bool { return excs[i].Key() < excs[j].Key() })
	return excs
}

// kiting pairs an outbound transfer with a near-equal inbound transfer to the
// same counterparty 1..3 days later.
func (d *Bank) kiting(txns []model.BankTransaction) []model.Exception {
	var outbound, inbound []model.BankTransaction
	for _, t := range txns {
		if t.Date == nil || !strings.Contains(strings.ToLower(t.TxnType), "transfer") {
			continue
		}
		if t.Amount.IsNegative() {
			outbound = append(outbound, t)
		} else if t.Amount.IsPositive() {
			inbound = append(inbound, t)
		}
	}
	sort.Slice(outbound, func(i, j int) bool { return outbound[i].TxnID < outbound[j].TxnID })
	sort.Slice(inbound, func(i, j int) bool { return inbound[i].TxnID < inbound[j].TxnID })

	var excs []model.Exception
	used := make(map[string]bool)
	for _, out := range outbound {
		tolerance := out.Amount.Abs().Mul(d.cfg.KitingTolerancePct)
		for _, inb := range inbound {
			if used[inb.TxnID] || !strings.EqualFold(out.Counterparty, inb.Counterparty) {
				continue
			}
			lag := dayGap(*out.Date, *inb.Date)
			if lag < d.cfg.KitingMinLagDays || lag > d.cfg.KitingMaxLagDays {
				continue
			}
			if inb.Amount.Abs().Sub(out.Amount.Abs()).Abs().GreaterThan(tolerance) {
				continue
			}
			used[inb.TxnID] = true
			excs = append(excs, model.Exception{
				Source:         model.SourceBank,
				RecordKeys:     []string{out.TxnID, inb.TxnID},
				Entity:         out.Entity,
				ReasonCode:     model.ReasonKiting,
				Classification: model.ClassForensic,
				Amount:         out.Amount.Abs(),
				Rationale:      rationaleKiting(out.TxnID, inb.TxnID, out.Amount, inb.Amount, lag),
			})
			break
		}
	}
	return excs
}

// dayGap returns b-a in whole days, comparing calendar days in UTC.
func dayGap(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
