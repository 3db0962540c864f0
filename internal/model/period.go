package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// Period identifies one accounting month in YYYY-MM form.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a YYYY-MM string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, eris.Wrapf(err, "model: parse period %q", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// MustPeriod parses a YYYY-MM string and panics on failure. Test helper.
func MustPeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Next returns the following calendar month, rolling over the year.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Contains reports whether t falls inside the period. Nil dates never match.
func (p Period) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	return t.Year() == p.Year && t.Month() == p.Month
}

// MarshalText implements encoding.TextMarshaler so periods serialize as YYYY-MM.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// EntityFilter scopes a run to one entity code, or to all entities.
type EntityFilter string

// AllEntities matches every entity.
const AllEntities EntityFilter = "ALL"

// Matches reports whether the filter admits the given entity code.
func (f EntityFilter) Matches(entity string) bool {
	return f == AllEntities || f == "" || string(f) == entity
}

func (f EntityFilter) String() string {
	if f == "" {
		return string(AllEntities)
	}
	return string(f)
}
