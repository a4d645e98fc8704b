package exporter

import (
	"errors"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
)

// ErrNotComputed is returned when a snapshot has no window to export.
var ErrNotComputed = errors.New("analysis has not been computed")

// Table is a column-major block of samples.
type Table struct {
	Header  []string
	Columns [][]float64
}

// Len returns the number of rows.
func (t Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0])
}

// WindowTable extracts the samples of st's window: time, total thrust,
// every other assigned column, then O/F when both weights are assigned.
// padded selects the padded mask instead of the core mask.
func WindowTable(st *analysis.State, padded bool) (Table, error) {
	if st == nil || st.Phase != analysis.Computed {
		return Table{}, ErrNotComputed
	}
	mask := st.Core.Mask
	if padded {
		mask = st.Padded
	}
	ds, a := st.Dataset, st.Assignment

	times, err := ds.Column(a.Time)
	if err != nil {
		return Table{}, err
	}
	total, err := ds.SumColumns(a.Thrust)
	if err != nil {
		return Table{}, err
	}

	t := Table{
		Header:  []string{a.Time, "Total Thrust"},
		Columns: [][]float64{mask.Select(times), mask.Select(total)},
	}
	for _, name := range a.Columns() {
		if name == a.Time {
			continue
		}
		col, err := ds.Column(name)
		if err != nil {
			return Table{}, err
		}
		t.Header = append(t.Header, name)
		t.Columns = append(t.Columns, mask.Select(col))
	}
	if a.HasPropellants() {
		fuel, _ := ds.Column(a.FuelWeight)
		ox, _ := ds.Column(a.OxidizerWeight)
		t.Header = append(t.Header, "O/F Ratio")
		t.Columns = append(t.Columns, burn.OFRatio(mask.Select(fuel), mask.Select(ox)))
	}
	return t, nil
}
