package dataset

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Time (s),Thrust A (lbf),Thrust B (lbf),Chamber Press (psi)
0.0,0,0,14.7
0.5,20,20,120
1.0,50,50,300
1.5,,40,280
2.0,oops,0,14.7
`

func TestParseCSV(t *testing.T) {
	ds, err := ParseCSV("run.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, "run.csv", ds.Name())
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, []string{"Time (s)", "Thrust A (lbf)", "Thrust B (lbf)", "Chamber Press (psi)"}, ds.Fields())

	thrustA, err := ds.Column("Thrust A (lbf)")
	require.NoError(t, err)
	assert.Equal(t, 50.0, thrustA[2])
	assert.True(t, math.IsNaN(thrustA[3]), "empty cell is NaN")
	assert.True(t, math.IsNaN(thrustA[4]), "non-numeric cell is NaN")
}

func TestParseCSVEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		check   func(*testing.T, *Dataset)
	}{
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrEmptyDataset,
		},
		{
			name:    "header only",
			input:   "time,thrust\n",
			wantErr: ErrEmptyDataset,
		},
		{
			name:  "short rows padded with NaN",
			input: "time,thrust,press\n0,1\n1,2,3\n",
			check: func(t *testing.T, ds *Dataset) {
				assert.True(t, math.IsNaN(ds.At("press", 0)))
				assert.Equal(t, 3.0, ds.At("press", 1))
			},
		},
		{
			name:  "blank lines skipped",
			input: "time,thrust\n0,1\n,\n1,2\n",
			check: func(t *testing.T, ds *Dataset) {
				assert.Equal(t, 2, ds.Len())
			},
		},
		{
			name:  "byte order mark stripped",
			input: "\ufefftime,thrust\n0,1\n",
			check: func(t *testing.T, ds *Dataset) {
				assert.True(t, ds.HasField("time"))
			},
		},
		{
			name:  "duplicate headers suffixed",
			input: "time,thrust,thrust\n0,1,2\n",
			check: func(t *testing.T, ds *Dataset) {
				assert.Equal(t, []string{"time", "thrust", "thrust.1"}, ds.Fields())
				assert.Equal(t, 2.0, ds.At("thrust.1", 0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseCSV("x.csv", strings.NewReader(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, ds)
		})
	}
}

func TestColumnReturnsCopy(t *testing.T) {
	ds, err := ParseCSV("run.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	col, err := ds.Column("Time (s)")
	require.NoError(t, err)
	col[0] = 99

	assert.Equal(t, 0.0, ds.At("Time (s)", 0))

	_, err = ds.Column("nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSumColumns(t *testing.T) {
	ds, err := ParseCSV("run.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	total, err := ds.SumColumns([]string{"Thrust A (lbf)", "Thrust B (lbf)"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 40, 100, 40, 0}, total)

	_, err = ds.SumColumns([]string{"Thrust C"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestFromColumns(t *testing.T) {
	ds, err := FromColumns("mem", []string{"time", "thrust"}, [][]float64{{0, 1}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 6.0, ds.At("thrust", 1))

	_, err = FromColumns("mem", []string{"time", "thrust"}, [][]float64{{0, 1}, {5}})
	assert.Error(t, err)

	_, err = FromColumns("mem", []string{"time"}, [][]float64{{}})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func writeWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := writeWorkbook(t, [][]interface{}{
		{"Time", "Thrust (N)"},
		{0.0, 10.0},
		{0.1, 20.0},
	})

	ds, err := ParseXLSX("run.xlsx", bytes.NewReader(data), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "Thrust (N)"}, ds.Fields())
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 20.0, ds.At("Thrust (N)", 1))

	_, err = ParseXLSX("run.xlsx", bytes.NewReader(data), "Missing")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "run.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))
	ds, err := Load(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "run.csv", ds.Name())

	xlsxPath := filepath.Join(dir, "run.xlsx")
	require.NoError(t, os.WriteFile(xlsxPath, writeWorkbook(t, [][]interface{}{{"t", "thrust"}, {1, 2}}), 0o644))
	ds, err = Load(xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = Load(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	emptyPath := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(emptyPath, nil, 0o644))
	_, err = Load(emptyPath)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestFormatFromName(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFromName("RUN.XLSX"))
	assert.Equal(t, FormatCSV, FormatFromName("run.csv"))
	assert.Equal(t, FormatCSV, FormatFromName("run.txt"))
}
