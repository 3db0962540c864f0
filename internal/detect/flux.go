package detect

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Flux runs variance analysis: actual amounts per (entity, account) against
// both budget and prior period. Accounts whose absolute variance exceeds the
// entity threshold on a basis are flagged and classified into a band.
type Flux struct {
	cfg Config
}

// NewFlux returns the variance detector.
func NewFlux(cfg Config) *Flux { return &Flux{cfg: cfg} }

func (d *Flux) Name() string { return model.SourceFlux }

func (d *Flux) Detect(in Input) (Result, error) {
	type acctKey struct {
		entity, account string
	}
	agg := make(map[acctKey]*model.FluxRow)
	for _, r := range in.Records.Flux {
		if r.Entity == "" || r.Account == "" {
			return Result{}, eris.Wrapf(model.ErrDataShape, "flux: row missing entity or account (entity=%q)", r.Entity)
		}
		if !in.Scope.Matches(r.Entity) {
			continue
		}
		k := acctKey{r.Entity, r.Account}
		row, ok := agg[k]
		if !ok {
			cp := r
			cp.Actual, cp.Budget, cp.Prior = decimal.Zero, decimal.Zero, decimal.Zero
			row = &cp
			agg[k] = row
		}
		row.Actual = row.Actual.Add(r.Actual)
		row.Budget = row.Budget.Add(r.Budget)
		row.Prior = row.Prior.Add(r.Prior)
	}

	keys := make([]acctKey, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].entity != keys[j].entity {
			return keys[i].entity < keys[j].entity
		}
		return keys[i].account < keys[j].account
	})

	var excs []model.Exception
	for _, k := range keys {
		row := agg[k]
		threshold, err := in.Thresholds.ForEntity(row.Entity)
		if err != nil {
			return Result{}, err
		}
		if e := fluxException(row, row.Budget, model.ReasonFluxOverBudget, "budget", threshold); e != nil {
			excs = append(excs, *e)
		}
		if e := fluxException(row, row.Prior, model.ReasonFluxOverPrior, "prior", threshold); e != nil {
			excs = append(excs, *e)
		}
	}
	return finish(model.SourceFlux, excs), nil
}

// fluxException computes the signed variance of actual against one basis and
// flags when its magnitude strictly exceeds the entity threshold. The band
// ("within"/"above") is part of the rationale so downstream reporting needs
// no recomputation.
func fluxException(row *model.FluxRow, basis decimal.Decimal, reason, basisName string, threshold decimal.Decimal) *model.Exception {
	variance := row.Actual.Sub(basis)
	if !variance.Abs().GreaterThan(threshold) {
		return nil
	}
	var pctStr string
	if basis.IsZero() {
		pctStr = pct(decimal.Zero, false)
	} else {
		pctStr = pct(variance.Div(basis.Abs()).Mul(decimal.NewFromInt(100)).Round(2), true)
	}
	return &model.Exception{
		Source:         model.SourceFlux,
		RecordKeys:     []string{row.Entity + "/" + row.Account + "/" + basisName},
		Entity:         row.Entity,
		ReasonCode:     reason,
		Classification: model.ClassMisstatement,
		Amount:         variance,
		Threshold:      threshold,
		Rationale:      rationaleFlux(row.Entity, row.Account, basisName+" (band: above)", variance, pctStr, threshold),
	}
}
