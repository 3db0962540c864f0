package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/materiality"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Intercompany reconciles transaction pairs between entities. Mismatches
// above the pair threshold get a deterministic true-up proposal; forensic
// sub-rules cover round-dollar amounts, transfer-pricing descriptions, and
// structuring.
type Intercompany struct {
	cfg Config
}

// NewIntercompany returns the intercompany detector.
func NewIntercompany(cfg Config) *Intercompany { return &Intercompany{cfg: cfg} }

func (d *Intercompany) Name() string { return model.SourceIntercompany }

func (d *Intercompany) Detect(in Input) (Result, error) {
	var docs []model.IntercompanyDoc
	for _, doc := range in.Records.Intercompany {
		if doc.DocID == "" || doc.EntitySrc == "" || doc.EntityDst == "" {
			return Result{}, eris.Wrapf(model.ErrDataShape, "intercompany: doc missing id or entity pair (id=%q)", doc.DocID)
		}
		if in.Scope.Matches(doc.EntitySrc) || in.Scope.Matches(doc.EntityDst) {
			docs = append(docs, doc)
		}
	}

	var excs []model.Exception
	for _, doc := range docs {
		e, err := d.mismatch(doc, in.Thresholds)
		if err != nil {
			return Result{}, err
		}
		if e != nil {
			excs = append(excs, *e)
		}
		if e := d.roundDollar(doc); e != nil {
			excs = append(excs, *e)
		}
		if e := d.transferPricing(doc); e != nil {
			excs = append(excs, *e)
		}
	}
	excs = append(excs, d.structuring(docs)...)
	return finish(model.SourceIntercompany, excs), nil
}

// mismatch flags |src-dst| strictly above the pair threshold; an exact hit
// on the threshold does not flag. Every flagged mismatch carries a true-up
// proposal that adjusts the destination to the source amount.
func (d *Intercompany) mismatch(doc model.IntercompanyDoc, thresholds *materiality.Thresholds) (*model.Exception, error) {
	threshold, err := thresholds.ForPair(doc.EntitySrc, doc.EntityDst)
	if err != nil {
		return nil, err
	}
	diff := doc.AmountSrc.Sub(doc.AmountDst).Abs()
	if !diff.GreaterThan(threshold) {
		return nil, nil
	}
	delta := doc.AmountSrc.Sub(doc.AmountDst)
	return &model.Exception{
		Source:         model.SourceIntercompany,
		RecordKeys:     []string{doc.DocID},
		Entity:         doc.EntitySrc,
		ReasonCode:     model.ReasonICMismatch,
		Classification: model.ClassMisstatement,
		Amount:         diff,
		Threshold:      threshold,
		Rationale:      rationaleMismatch(doc.DocID, diff, threshold),
		Proposal: &model.AdjustmentProposal{
			Type:          "true_up",
			Entity:        doc.EntityDst,
			Amount:        delta,
			PostedBalance: doc.AmountSrc,
			Note: fmt.Sprintf("adjust %s booked amount by %s so both sides carry %s",
				doc.EntityDst, usd(delta), usd(doc.AmountSrc)),
		},
	}, nil
}

func (d *Intercompany) roundDollar(doc model.IntercompanyDoc) *model.Exception {
	abs := doc.AmountSrc.Abs()
	if abs.LessThan(d.cfg.ICRoundDollarFloor) || !abs.Mod(decimal.NewFromInt(1000)).IsZero() || abs.IsZero() {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceIntercompany,
		RecordKeys:     []string{doc.DocID},
		Entity:         doc.EntitySrc,
		ReasonCode:     model.ReasonICRoundDollar,
		Classification: model.ClassForensic,
		Amount:         doc.AmountSrc,
		Threshold:      d.cfg.ICRoundDollarFloor,
		Rationale: fmt.Sprintf("intercompany doc %s amount %s is a round-dollar figure at or above %s",
			doc.DocID, usd(abs), usd(d.cfg.ICRoundDollarFloor)),
	}
}

func (d *Intercompany) transferPricing(doc model.IntercompanyDoc) *model.Exception {
	kw, hit := containsAnyFold(doc.Description, d.cfg.ManagementFeeKeywords)
	if !hit || !doc.AmountSrc.Abs().GreaterThan(d.cfg.TransferPricingFloor) {
		return nil
	}
	return &model.Exception{
		Source:         model.SourceIntercompany,
		RecordKeys:     []string{doc.DocID},
		Entity:         doc.EntitySrc,
		ReasonCode:     model.ReasonICTransferPricing,
		Classification: model.ClassForensic,
		Amount:         doc.AmountSrc,
		Threshold:      d.cfg.TransferPricingFloor,
		Rationale: fmt.Sprintf("intercompany doc %s description matches %q with amount %s above %s, transfer-pricing review",
			doc.DocID, kw, usd(doc.AmountSrc.Abs()), usd(d.cfg.TransferPricingFloor)),
	}
}

// structuring flags three or more same-day sub-ceiling transactions between
// one entity pair.
func (d *Intercompany) structuring(docs []model.IntercompanyDoc) []model.Exception {
	type pairKey struct {
		src, dst, date string
	}
	groups := make(map[pairKey][]model.IntercompanyDoc)
	for _, doc := range docs {
		if doc.Date == nil || !doc.AmountSrc.Abs().LessThan(d.cfg.StructuringCeiling) {
			continue
		}
		k := pairKey{doc.EntitySrc, doc.EntityDst, doc.Date.Format("2006-01-02")}
		groups[k] = append(groups[k], doc)
	}

	var excs []model.Exception
	for k, group := range groups {
		if len(group) < d.cfg.StructuringMinTxns {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].DocID < group[j].DocID })
		keys := make([]string, len(group))
		total := decimal.Zero
		for i, doc := range group {
			keys[i] = doc.DocID
			total = total.Add(doc.AmountSrc.Abs())
		}
		excs = append(excs, model.Exception{
			Source:         model.SourceIntercompany,
			RecordKeys:     keys,
			Entity:         group[0].EntitySrc,
			ReasonCode:     model.ReasonICStructuring,
			Classification: model.ClassForensic,
			Amount:         total,
			Threshold:      d.cfg.StructuringCeiling,
			Rationale: fmt.Sprintf("%d sub-%s transactions between %s and %s on %s totalling %s, possible structuring",
				len(group), usd(d.cfg.StructuringCeiling), strings.ToUpper(k.src), strings.ToUpper(k.dst), k.date, usd(total)),
		})
	}
	sort.Slice(excs, func(i, j int) bool { return excs[i].Key() < excs[j].Key() })
	return excs
}
