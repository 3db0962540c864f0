package detect

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Accruals checks that accrual balances reverse in the right period. Every
// flagged accrual carries a deterministic reversal proposal: the negated
// amount posted to the next period.
type Accruals struct {
	cfg Config
}

// NewAccruals returns the accrual detector.
func NewAccruals(cfg Config) *Accruals { return &Accruals{cfg: cfg} }

func (d *Accruals) Name() string { return model.SourceAccruals }

func (d *Accruals) Detect(in Input) (Result, error) {
	next := in.Period.Next()

	var excs []model.Exception
	for _, a := range in.Records.Accruals {
		if a.AccrualID == "" || a.Entity == "" {
			return Result{}, eris.Wrapf(model.ErrDataShape, "accruals: accrual missing id or entity (id=%q)", a.AccrualID)
		}
		if !in.Scope.Matches(a.Entity) {
			continue
		}

		status := strings.ToLower(a.Status)
		shouldReverse := status == "should_reverse"
		active := status == "active" || shouldReverse

		if shouldReverse {
			excs = append(excs, model.Exception{
				Source:         model.SourceAccruals,
				RecordKeys:     []string{a.AccrualID},
				Entity:         a.Entity,
				ReasonCode:     model.ReasonAccrualReversalDue,
				Classification: model.ClassMisstatement,
				Amount:         a.Amount,
				Rationale: fmt.Sprintf("accrual %s is marked should_reverse with balance %s; reversal due in %s",
					a.AccrualID, usd(a.Amount), next),
				Proposal: reversalProposal(a, next),
			})
		}

		if active && a.ReversalDate != nil && !next.Contains(a.ReversalDate) {
			excs = append(excs, model.Exception{
				Source:         model.SourceAccruals,
				RecordKeys:     []string{a.AccrualID},
				Entity:         a.Entity,
				ReasonCode:     model.ReasonAccrualReversalMisdated,
				Classification: model.ClassMisstatement,
				Amount:         a.Amount,
				Rationale: fmt.Sprintf("accrual %s reversal date %s falls outside the next period %s while status is %q",
					a.AccrualID, a.ReversalDate.Format("2006-01-02"), next, a.Status),
				Proposal: reversalProposal(a, next),
			})
		}
	}
	return finish(model.SourceAccruals, excs), nil
}

func reversalProposal(a model.Accrual, next model.Period) *model.AdjustmentProposal {
	reversed := a.Amount.Neg()
	return &model.AdjustmentProposal{
		Type:          "accrual_reversal",
		Entity:        a.Entity,
		Amount:        reversed,
		Period:        next.String(),
		PostedBalance: a.Amount.Add(reversed),
		Note: fmt.Sprintf("post %s in %s to reverse accrual %s",
			usd(reversed), next, a.AccrualID),
	}
}
