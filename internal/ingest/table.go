// Package ingest loads typed record collections from CSV or XLSX data
// sources. All null-coercion happens here, exactly once: downstream
// detectors see "" for absent text and nil for unparsable dates. Malformed
// numeric text is a hard error for the owning domain, never silently
// coerced.
package ingest

import (
	"encoding/csv"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Table is one fully materialized tabular source with a header row.
type Table struct {
	Source string
	cols   map[string]int
	Rows   [][]string
}

// ReadCSVTable reads a whole CSV file. The first row is the header.
func ReadCSVTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read csv %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Wrapf(model.ErrDataShape, "ingest: %s has no header row", path)
	}
	return newTable(path, records[0], records[1:]), nil
}

// ReadXLSXTable reads the first sheet of an XLSX workbook. The first row is
// the header.
func ReadXLSXTable(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Wrapf(model.ErrDataShape, "ingest: %s has no sheets", path)
	}
	sheet := f.Sheets[0]

	var rows [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return nil, eris.Wrapf(model.ErrDataShape, "ingest: %s has no header row", path)
	}
	return newTable(path, rows[0], rows[1:]), nil
}

func newTable(source string, header []string, rows [][]string) *Table {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return &Table{Source: source, cols: cols, Rows: rows}
}

// Require returns the column indexes for the named headers, or a data shape
// error naming the first missing one.
func (t *Table) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := t.cols[n]
		if !ok {
			return nil, eris.Wrapf(model.ErrDataShape, "ingest: %s missing required column %q", t.Source, n)
		}
		idx[i] = j
	}
	return idx, nil
}

// Optional returns the column index for name, or -1 when absent.
func (t *Table) Optional(name string) int {
	if j, ok := t.cols[name]; ok {
		return j
	}
	return -1
}

// cell returns the raw cell value, "" when the row is short or the column
// absent.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// text null-coerces a cell: surrounding whitespace trimmed, textual null
// markers mapped to the empty string.
func text(row []string, idx int) string {
	s := strings.TrimSpace(cell(row, idx))
	switch strings.ToLower(s) {
	case "null", "nan", "none", "n/a":
		return ""
	}
	return s
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006", "2006-01-02 15:04:05"}

// date parses a cell into a UTC date, or nil when absent or unparsable.
// Unparsable dates are logged and coerced to absent rather than failing the
// load; records without dates are excluded from date-window matching.
func date(source string, row []string, idx int) *time.Time {
	s := text(row, idx)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	zap.L().Warn("ingest: unparsable date coerced to absent",
		zap.String("source", source),
		zap.String("value", s),
	)
	return nil
}

// amount parses a numeric cell. Invalid numeric text is an error, per the
// no-silent-coercion invariant; an empty cell is zero.
func amount(source string, row []string, idx int) (decimal.Decimal, error) {
	s := strings.ReplaceAll(text(row, idx), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "ingest: %s invalid amount %q", source, s)
	}
	return d, nil
}

// integer parses an int cell, zero when empty.
func integer(source string, row []string, idx int) (int, error) {
	d, err := amount(source, row, idx)
	if err != nil {
		return 0, err
	}
	return int(d.IntPart()), nil
}
