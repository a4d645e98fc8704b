package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
	"hotfire/internal/dataset"
)

func computedState(t *testing.T, mode burn.Mode) *analysis.State {
	t.Helper()
	ds, err := dataset.FromColumns("run.csv",
		[]string{"Time (s)", "Thrust (lbf)", "Chamber Pressure (psi)", "Fuel Weight (lbf)", "Ox Weight (lbf)"},
		[][]float64{
			{0, 1, 2, 3, 4, 5, 6},
			{0, 40, 60, 100, 60, 40, 0},
			{0, 100, 200, 300, 200, 100, 0},
			{10, 9, 8, 7, 6, 5, 4},
			{20, 18, 16, 14, 12, 10, 8},
		})
	require.NoError(t, err)

	st, err := analysis.Empty().Load(ds)
	require.NoError(t, err)
	st, err = st.WithMode(mode)
	require.NoError(t, err)
	return st
}

func TestWindowTable(t *testing.T) {
	st := computedState(t, burn.TargetThrust{Value: 100})

	core, err := WindowTable(st, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Time (s)", "Total Thrust", "Thrust (lbf)", "Chamber Pressure (psi)",
		"Fuel Weight (lbf)", "Ox Weight (lbf)", "O/F Ratio",
	}, core.Header)
	assert.Equal(t, 3, core.Len())
	assert.Equal(t, []float64{2, 3, 4}, core.Columns[0])

	padded, err := WindowTable(st, true)
	require.NoError(t, err)
	assert.Equal(t, 5, padded.Len())

	var buf bytes.Buffer
	require.NoError(t, core.WriteCSV(&buf))
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), utf8BOM))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "100", "100", "300", "7", "14"}, rows[2][:6])
}

func TestWindowTableRequiresComputedState(t *testing.T) {
	_, err := WindowTable(analysis.Empty(), true)
	assert.ErrorIs(t, err, ErrNotComputed)
	_, err = WindowTable(nil, true)
	assert.ErrorIs(t, err, ErrNotComputed)
}

func TestWindowCSVRoundTrip(t *testing.T) {
	st := computedState(t, burn.CustomRange{Start: 1, End: 2})
	table, err := WindowTable(st, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Time (s)", rows[0][0])
	assert.Equal(t, []string{"1", "40"}, rows[1][:2])
}

func TestWriteWorkbook(t *testing.T) {
	st := computedState(t, burn.TargetThrust{Value: 100})

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, st))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetMetrics, SheetWindow, SheetStatistics}, f.GetSheetList())

	metrics, err := f.GetRows(SheetMetrics)
	require.NoError(t, err)
	assert.Contains(t, metrics, []string{"Burn Time (s)", "2.000"})
	assert.Contains(t, metrics, []string{"Total Impulse (lbf·s)", "160.00"})
	assert.Contains(t, metrics, []string{"Mean O/F Ratio", "2.00"})

	window, err := f.GetRows(SheetWindow)
	require.NoError(t, err)
	assert.Len(t, window, 6)
	assert.Equal(t, "Total Thrust", window[0][1])

	stats, err := f.GetRows(SheetStatistics)
	require.NoError(t, err)
	require.Greater(t, len(stats), 1)
	assert.Equal(t, "Total Thrust", stats[1][0])
}

func TestWriteWorkbookErrorState(t *testing.T) {
	st := computedState(t, burn.TargetThrust{Value: 10000})

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, st))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	metrics, err := f.GetRows(SheetMetrics)
	require.NoError(t, err)
	assert.Contains(t, metrics, []string{"Error", burn.ReasonEmptyWindow})

	stats, err := f.GetRows(SheetStatistics)
	require.NoError(t, err)
	assert.Len(t, stats, 1)
}
