package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"hotfire/internal/analysis"
	"hotfire/internal/performance"
)

// Sheet names of an exported workbook.
const (
	SheetMetrics    = "Metrics"
	SheetWindow     = "Window"
	SheetStatistics = "Statistics"
)

// WriteWorkbook writes st as an XLSX workbook. The Window sheet holds the
// padded-mask samples.
func WriteWorkbook(w io.Writer, st *analysis.State) error {
	table, err := WindowTable(st, true)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMetrics); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeMetrics(f, st); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetWindow); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeTable(f, SheetWindow, table); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetStatistics); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeStatistics(f, st); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeMetrics(f *excelize.File, st *analysis.State) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Dataset", st.Dataset.Name()},
		{"Window", fmt.Sprint(st.Mode)},
		{"Padding Fraction", st.Padding},
	}
	for _, e := range st.Metrics.Entries() {
		rows = append(rows, []interface{}{e.Label, e.Value})
	}
	if of := performance.Describe(st.Metrics.OFRatio); of != nil {
		rows = append(rows, []interface{}{"Mean O/F Ratio", formatFixed(of.Mean, 2)})
	}
	return setRows(f, SheetMetrics, rows)
}

func writeTable(f *excelize.File, sheet string, t Table) error {
	rows := make([][]interface{}, 0, t.Len()+1)
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	rows = append(rows, header)
	for r := 0; r < t.Len(); r++ {
		row := make([]interface{}, len(t.Columns))
		for c, col := range t.Columns {
			// NaN is not representable in a cell
			if v := col[r]; v == v {
				row[c] = v
			}
		}
		rows = append(rows, row)
	}
	return setRows(f, sheet, rows)
}

func writeStatistics(f *excelize.File, st *analysis.State) error {
	rows := [][]interface{}{
		{"Channel", "Count", "Mean", "Std Dev", "Min", "Max", "Range", "Median"},
	}
	for _, cs := range st.Statistics() {
		s := cs.Stats
		rows = append(rows, []interface{}{cs.Channel, s.Count, s.Mean, s.StdDev, s.Min, s.Max, s.Range, s.Median})
	}
	return setRows(f, SheetStatistics, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
