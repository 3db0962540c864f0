package detect

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// TrialBalance verifies that each entity's trial balance sums to zero. For
// imbalanced entities it ranks the contributing accounts by absolute
// magnitude and reports the top N.
type TrialBalance struct {
	cfg Config
}

// NewTrialBalance returns the trial-balance detector.
func NewTrialBalance(cfg Config) *TrialBalance { return &TrialBalance{cfg: cfg} }

func (d *TrialBalance) Name() string { return model.SourceTrialBalance }

func (d *TrialBalance) Detect(in Input) (Result, error) {
	sums := make(map[string]decimal.Decimal)
	lines := make(map[string][]model.TrialBalanceLine)
	for _, l := range in.Records.TrialBalance {
		if l.Entity == "" || l.Account == "" {
			return Result{}, eris.Wrapf(model.ErrDataShape, "trial_balance: line missing entity or account (entity=%q)", l.Entity)
		}
		if !in.Scope.Matches(l.Entity) {
			continue
		}
		sums[l.Entity] = sums[l.Entity].Add(l.Balance)
		lines[l.Entity] = append(lines[l.Entity], l)
	}

	entities := make([]string, 0, len(sums))
	for e := range sums {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	var excs []model.Exception
	for _, entity := range entities {
		imbalance := sums[entity].Round(2)
		if imbalance.IsZero() {
			continue
		}
		excs = append(excs, model.Exception{
			Source:         model.SourceTrialBalance,
			RecordKeys:     []string{entity},
			Entity:         entity,
			ReasonCode:     model.ReasonTBImbalance,
			Classification: model.ClassMisstatement,
			Amount:         imbalance,
			Rationale:      rationaleImbalance(entity, imbalance, d.topContributors(lines[entity])),
		})
	}
	return finish(model.SourceTrialBalance, excs), nil
}

// topContributors ranks accounts by absolute balance, ties broken by account
// code.
func (d *TrialBalance) topContributors(lines []model.TrialBalanceLine) []string {
	sorted := make([]model.TrialBalanceLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := sorted[i].Balance.Abs(), sorted[j].Balance.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return sorted[i].Account < sorted[j].Account
	})

	n := d.cfg.TopContributors
	if n <= 0 || n > len(sorted) {
		n = len(sorted)
	}
	out := make([]string, 0, n)
	for _, l := range sorted[:n] {
		name := l.AccountName
		if name == "" {
			name = "unnamed"
		}
		out = append(out, fmt.Sprintf("%s %s (%s)", l.Account, name, usd(l.Balance)))
	}
	return out
}
