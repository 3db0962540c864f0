package detect

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/materiality"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	u := t.UTC()
	return &u
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// testThresholds resolves thresholds for the given entity sizes with the
// default 0.5% rate and 1,000 USD floor.
func testThresholds(sizes ...model.EntitySize) *materiality.Thresholds {
	t, err := materiality.Resolve(sizes, materiality.DefaultConfig())
	if err != nil {
		panic(err)
	}
	return t
}

func testInput(rs *model.RecordSet, sizes ...model.EntitySize) Input {
	return Input{
		Records:    rs,
		Thresholds: testThresholds(sizes...),
		Period:     model.MustPeriod("2025-06"),
		Scope:      model.AllEntities,
	}
}
