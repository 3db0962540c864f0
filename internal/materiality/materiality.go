// Package materiality derives per-entity monetary thresholds from entity
// size. Thresholds are computed once per run and are immutable afterwards.
package materiality

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Config controls threshold derivation. Rate is applied to the absolute
// trial-balance sum; Floor is the minimum threshold in USD.
type Config struct {
	Rate  decimal.Decimal
	Floor decimal.Decimal
}

// DefaultConfig returns the standard 0.5% rate with a 1,000 USD floor.
func DefaultConfig() Config {
	return Config{
		Rate:  decimal.NewFromFloat(0.005),
		Floor: decimal.NewFromInt(1000),
	}
}

// Thresholds maps entity codes to their resolved USD thresholds.
type Thresholds struct {
	byEntity map[string]decimal.Decimal
	floor    decimal.Decimal
	hasFloor bool
}

// Resolve computes entity thresholds as max(rate * |tb_sum|, floor).
// Returns a config error when no entity sizes are given and no floor is
// configured, since no threshold would then be resolvable.
func Resolve(sizes []model.EntitySize, cfg Config) (*Thresholds, error) {
	if cfg.Rate.IsNegative() {
		return nil, eris.Wrap(model.ErrConfig, "materiality: negative rate")
	}
	hasFloor := cfg.Floor.IsPositive()
	if len(sizes) == 0 && !hasFloor {
		return nil, eris.Wrap(model.ErrConfig, "materiality: no entity sizes and no floor configured")
	}

	t := &Thresholds{
		byEntity: make(map[string]decimal.Decimal, len(sizes)),
		floor:    cfg.Floor,
		hasFloor: hasFloor,
	}
	for _, s := range sizes {
		th := cfg.Rate.Mul(s.TBSum.Abs())
		if th.LessThan(cfg.Floor) {
			th = cfg.Floor
		}
		t.byEntity[s.Entity] = th
	}
	return t, nil
}

// ForEntity returns the entity's threshold. Entities without a resolved size
// fall back to the configured floor; a missing size with no floor is a
// config error.
func (t *Thresholds) ForEntity(entity string) (decimal.Decimal, error) {
	if th, ok := t.byEntity[entity]; ok {
		return th, nil
	}
	if t.hasFloor {
		return t.floor, nil
	}
	return decimal.Zero, eris.Wrapf(model.ErrConfig, "materiality: no threshold resolvable for entity %s", entity)
}

// ForPair returns the effective threshold for a pairwise check: the max of
// the two entities' thresholds.
func (t *Thresholds) ForPair(a, b string) (decimal.Decimal, error) {
	ta, err := t.ForEntity(a)
	if err != nil {
		return decimal.Zero, err
	}
	tb, err := t.ForEntity(b)
	if err != nil {
		return decimal.Zero, err
	}
	if tb.GreaterThan(ta) {
		return tb, nil
	}
	return ta, nil
}

// Entities returns the sorted entity codes with explicitly resolved
// thresholds.
func (t *Thresholds) Entities() []string {
	out := make([]string, 0, len(t.byEntity))
	for e := range t.byEntity {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
