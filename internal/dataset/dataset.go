// Package dataset holds a loaded hotfire recording: ordered rows of named
// numeric channels. A Dataset is immutable once returned by a loader.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyDataset is returned when a source has no header or no data rows.
var ErrEmptyDataset = errors.New("dataset has no rows")

// ErrUnknownColumn is returned when a named column is not present.
var ErrUnknownColumn = errors.New("unknown column")

// Dataset is a column-oriented table. Cells that do not parse as numbers are NaN.
type Dataset struct {
	name    string
	fields  []string
	columns map[string][]float64
	rows    int
}

// New builds a Dataset from a header and row-major string cells.
// Duplicate header names get a ".N" suffix in order of appearance.
// Short rows are padded with NaN; extra cells are ignored.
func New(name string, header []string, records [][]string) (*Dataset, error) {
	if len(header) == 0 || len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	fields := dedupe(header)
	columns := make(map[string][]float64, len(fields))
	for _, f := range fields {
		columns[f] = make([]float64, len(records))
	}

	for r, rec := range records {
		for c, f := range fields {
			v := math.NaN()
			if c < len(rec) {
				v = parseCell(rec[c])
			}
			columns[f][r] = v
		}
	}

	return &Dataset{
		name:    name,
		fields:  fields,
		columns: columns,
		rows:    len(records),
	}, nil
}

// FromColumns builds a Dataset directly from numeric columns, all of which
// must share one length.
func FromColumns(name string, fields []string, values [][]float64) (*Dataset, error) {
	if len(fields) != len(values) {
		return nil, fmt.Errorf("got %d fields for %d columns", len(fields), len(values))
	}
	if len(fields) == 0 || len(values[0]) == 0 {
		return nil, ErrEmptyDataset
	}

	fields = dedupe(fields)
	n := len(values[0])
	columns := make(map[string][]float64, len(fields))
	for i, f := range fields {
		if len(values[i]) != n {
			return nil, fmt.Errorf("column %q has %d rows, want %d", f, len(values[i]), n)
		}
		columns[f] = append([]float64(nil), values[i]...)
	}

	return &Dataset{name: name, fields: fields, columns: columns, rows: n}, nil
}

// Name is the source the dataset was loaded from, usually a file name.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Fields returns the column names in source order.
func (d *Dataset) Fields() []string {
	return append([]string(nil), d.fields...)
}

// HasField reports whether name is an exact column name.
func (d *Dataset) HasField(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) ([]float64, error) {
	col, ok := d.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return append([]float64(nil), col...), nil
}

// At returns a single cell without copying the column.
func (d *Dataset) At(name string, row int) float64 {
	col, ok := d.columns[name]
	if !ok || row < 0 || row >= len(col) {
		return math.NaN()
	}
	return col[row]
}

// SumColumns returns the row-wise sum of the named columns. NaN cells count
// as zero, so a missing reading on one load cell does not blank the total.
func (d *Dataset) SumColumns(names []string) ([]float64, error) {
	total := make([]float64, d.rows)
	for _, name := range names {
		col, ok := d.columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		for i, v := range col {
			if !math.IsNaN(v) {
				total[i] += v
			}
		}
	}
	return total, nil
}

func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func dedupe(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := h
		if n, ok := seen[h]; ok {
			name = fmt.Sprintf("%s.%d", h, n)
			seen[h] = n + 1
		} else {
			seen[h] = 1
		}
		out[i] = name
	}
	return out
}
