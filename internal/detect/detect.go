// Package detect implements the per-domain exception detectors. Each
// detector is deterministic: given the same records, thresholds, period, and
// scope it emits the same exceptions in the same order. Detection rules are
// pure functions composed per detector; rationale text is formatted from the
// already-computed exception, never the other way around.
package detect

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/materiality"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Input carries everything a detector reads. Detectors never mutate it.
type Input struct {
	Records    *model.RecordSet
	Thresholds *materiality.Thresholds
	Period     model.Period
	Scope      model.EntityFilter
}

// Result is one detector's output: exceptions in stable order plus their
// summary.
type Result struct {
	Exceptions []model.Exception `json:"exceptions"`
	Summary    model.Summary     `json:"summary"`
}

// Detector is the common detection contract.
type Detector interface {
	Name() string
	Detect(in Input) (Result, error)
}

// All returns every detector in canonical order, sharing one rule config.
func All(cfg Config) []Detector {
	return []Detector{
		NewBank(cfg),
		NewPayables(cfg),
		NewReceivables(cfg),
		NewIntercompany(cfg),
		NewTrialBalance(cfg),
		NewJournals(cfg),
		NewAccruals(cfg),
		NewFlux(cfg),
	}
}

// finish sorts exceptions by their stable key and builds the summary.
// Detectors call it exactly once, last.
func finish(source string, excs []model.Exception) Result {
	sort.SliceStable(excs, func(i, j int) bool {
		if excs[i].Key() != excs[j].Key() {
			return excs[i].Key() < excs[j].Key()
		}
		return excs[i].ReasonCode < excs[j].ReasonCode
	})
	return Result{Exceptions: excs, Summary: summarize(source, excs)}
}

func summarize(source string, excs []model.Exception) model.Summary {
	s := model.Summary{Source: source, Count: len(excs), TotalAbs: decimal.Zero}
	perEntity := make(map[string]*model.EntityTotal)
	for _, e := range excs {
		s.TotalAbs = s.TotalAbs.Add(e.Amount.Abs())
		et, ok := perEntity[e.Entity]
		if !ok {
			et = &model.EntityTotal{Entity: e.Entity, TotalAbs: decimal.Zero}
			perEntity[e.Entity] = et
		}
		et.Count++
		et.TotalAbs = et.TotalAbs.Add(e.Amount.Abs())
	}
	entities := make([]string, 0, len(perEntity))
	for e := range perEntity {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	s.ByEntity = make([]model.EntityTotal, 0, len(entities))
	for _, e := range entities {
		s.ByEntity = append(s.ByEntity, *perEntity[e])
	}
	return s
}

// roundDollarBase returns the largest of 10,000 / 1,000 / 500 that evenly
// divides amt, or zero when none does. Used by the round-dollar forensic
// rules.
func roundDollarBase(amt decimal.Decimal) decimal.Decimal {
	abs := amt.Abs()
	for _, base := range []int64{10000, 1000, 500} {
		b := decimal.NewFromInt(base)
		if abs.Mod(b).IsZero() && !abs.IsZero() {
			return b
		}
	}
	return decimal.Zero
}

// containsAnyFold reports the first needle found in haystack,
// case-insensitive and safe on empty strings.
func containsAnyFold(haystack string, needles []string) (string, bool) {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if n != "" && strings.Contains(h, strings.ToLower(n)) {
			return n, true
		}
	}
	return "", false
}
