package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotfire/internal/burn"
	"hotfire/internal/columns"
	"hotfire/internal/dataset"
	"hotfire/internal/performance"
)

var hotfireFields = []string{
	"Time (s)",
	"Thrust (lbf)",
	"Chamber Pressure (psi)",
	"Fuel Weight (lbf)",
	"Ox Weight (lbf)",
}

func hotfireDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromColumns("hotfire.csv", hotfireFields, [][]float64{
		{0, 1, 2, 3, 4, 5, 6},
		{0, 40, 60, 100, 60, 40, 0},
		{0, 100, 200, 300, 200, 100, 0},
		{10, 9, 8, 7, 6, 5, 4},
		{20, 18, 16, 14, 12, 10, 8},
	})
	require.NoError(t, err)
	return ds
}

func loadedState(t *testing.T) *State {
	t.Helper()
	st, err := Empty().Load(hotfireDataset(t))
	require.NoError(t, err)
	return st
}

func TestLoadResolvesColumns(t *testing.T) {
	st := loadedState(t)

	assert.Equal(t, Ready, st.Phase)
	assert.Equal(t, "Time (s)", st.Assignment.Time)
	assert.Equal(t, []string{"Thrust (lbf)"}, st.Assignment.Thrust)
	assert.Equal(t, "Chamber Pressure (psi)", st.Assignment.ChamberPressure)
	assert.Equal(t, "Fuel Weight (lbf)", st.Assignment.FuelWeight)
	assert.Equal(t, "Ox Weight (lbf)", st.Assignment.OxidizerWeight)
	assert.False(t, st.ManualColumns)
	assert.Equal(t, uint64(1), st.Version)
}

func TestLoadWithoutThrustNeedsColumns(t *testing.T) {
	ds, err := dataset.FromColumns("x.csv", []string{"time", "load cell"}, [][]float64{{0, 1}, {5, 6}})
	require.NoError(t, err)

	st, err := Empty().Load(ds)
	require.NoError(t, err)
	assert.Equal(t, NeedsColumns, st.Phase)

	_, err = st.WithMode(burn.TargetThrust{Value: 5})
	assert.ErrorIs(t, err, ErrColumnsRequired)

	st, err = st.WithColumns(columns.Assignment{Time: "time", Thrust: []string{"load cell"}})
	require.NoError(t, err)
	assert.Equal(t, Ready, st.Phase)
	assert.True(t, st.ManualColumns)
}

func TestLoadRejectsEmptyDataset(t *testing.T) {
	_, err := Empty().Load(nil)
	assert.ErrorIs(t, err, burn.ErrEmptyDataset)
}

func TestWithModeComputesMetrics(t *testing.T) {
	st, err := loadedState(t).WithMode(burn.TargetThrust{Value: 100})
	require.NoError(t, err)

	assert.Equal(t, Computed, st.Phase)
	assert.NoError(t, st.Err)
	assert.Equal(t, 2, st.Core.First)
	assert.Equal(t, 4, st.Core.Last)
	assert.Equal(t, burn.Mask{false, true, true, true, true, true, false}, st.Padded)

	m := st.Metrics
	assert.True(t, m.OK())
	assert.InDelta(t, 2.0, m.BurnDuration, 1e-9)
	assert.InDelta(t, 160.0, m.TotalImpulse, 1e-9)
	assert.InDelta(t, 80.0, m.AverageThrust, 1e-9)
	require.NotNil(t, m.PeakChamberPressure)
	assert.InDelta(t, 300.0, *m.PeakChamberPressure, 1e-9)
	require.Len(t, m.OFRatio, 3)
	for _, of := range m.OFRatio {
		assert.InDelta(t, 2.0, of, 1e-6)
	}
}

func TestEngineErrorsFollowUniformRule(t *testing.T) {
	tests := []struct {
		name   string
		mode   burn.Mode
		kind   burn.ErrorKind
		reason string
	}{
		{"target outside data", burn.TargetThrust{Value: 10000}, burn.EmptyWindow, burn.ReasonEmptyWindow},
		{"non-positive target", burn.TargetThrust{Value: -1}, burn.InvalidTarget, burn.ReasonInvalidTarget},
		{"reversed range", burn.CustomRange{Start: 5, End: 1}, burn.InvalidRange, burn.ReasonInvalidRange},
		{"range outside data", burn.CustomRange{Start: 50, End: 60}, burn.EmptyWindow, burn.ReasonEmptyWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := loadedState(t).WithMode(tt.mode)
			require.NoError(t, err)

			assert.Equal(t, Computed, st.Phase)
			assert.True(t, st.Failed())
			assert.Equal(t, tt.kind, st.ErrorKind())
			assert.Equal(t, burn.Fallback(7), st.Core)
			assert.Equal(t, burn.AllTrue(7), st.Padded)
			assert.Equal(t, burn.ErrorMetrics(tt.reason), st.Metrics)
		})
	}
}

func TestWithPadding(t *testing.T) {
	ready := loadedState(t)

	st, err := ready.WithPadding(0.5)
	require.NoError(t, err)
	assert.Equal(t, Ready, st.Phase)
	assert.Nil(t, st.Padded)

	computed, err := st.WithMode(burn.CustomRange{Start: 3, End: 3.5})
	require.NoError(t, err)
	assert.Equal(t, burn.AllTrue(7), computed.Padded)

	narrow, err := computed.WithPadding(0)
	require.NoError(t, err)
	assert.Equal(t, burn.Mask{false, false, true, true, true, false, false}, narrow.Padded)
	assert.Equal(t, computed.Metrics, narrow.Metrics)

	for _, bad := range []float64{-0.1, 3.01, math.NaN()} {
		_, err := computed.WithPadding(bad)
		assert.ErrorIs(t, err, ErrInvalidPadding)
	}
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	ready := loadedState(t)
	computed, err := ready.WithMode(burn.TargetThrust{Value: 100})
	require.NoError(t, err)

	assert.Equal(t, Ready, ready.Phase)
	assert.Nil(t, ready.Mode)
	assert.Greater(t, computed.Version, ready.Version)
}

func TestWithColumnsRecomputesWhenModeSet(t *testing.T) {
	computed, err := loadedState(t).WithMode(burn.TargetThrust{Value: 100})
	require.NoError(t, err)

	a := computed.Assignment.Clone()
	a.ChamberPressure = ""
	st, err := computed.WithColumns(a)
	require.NoError(t, err)
	assert.Equal(t, Computed, st.Phase)
	assert.Nil(t, st.Metrics.PeakChamberPressure)

	_, err = computed.WithColumns(columns.Assignment{Time: "Time (s)", Thrust: []string{"nope"}})
	assert.Error(t, err)
}

func TestSeries(t *testing.T) {
	st, err := loadedState(t).WithMode(burn.TargetThrust{Value: 100})
	require.NoError(t, err)

	s, err := st.Series(SeriesThrust, SeriesOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Thrust vs Time", s.Title)
	assert.Equal(t, "Thrust (lbf)", s.YLabel)
	assert.Equal(t, "Time (s)", s.XLabel)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, s.Time)
	assert.Equal(t, []float64{40, 60, 100, 60, 40}, s.Values)
	assert.Nil(t, s.Smoothed)

	core, err := st.Series(SeriesChamberPressure, SeriesOptions{Core: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{200, 300, 200}, core.Values)
	assert.Equal(t, "Pressure (psi)", core.YLabel)

	raw, err := st.Series(SeriesTotalThrustRaw, SeriesOptions{Downsample: 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 6}, raw.Time)
	assert.Equal(t, []float64{0, 60, 60, 0}, raw.Values)

	smoothed, err := st.Series(SeriesThrust, SeriesOptions{Smooth: 3})
	require.NoError(t, err)
	require.Len(t, smoothed.Smoothed, 5)
	assert.InDelta(t, 220.0/3, smoothed.Smoothed[2], 1e-9)

	column, err := st.Series(SeriesName("Fuel Weight (lbf)"), SeriesOptions{Core: true})
	require.NoError(t, err)
	assert.Equal(t, "Fuel Weight (lbf)", column.YLabel)
	assert.Equal(t, []float64{8, 7, 6}, column.Values)
}

func TestSeriesErrors(t *testing.T) {
	st, err := loadedState(t).WithMode(burn.TargetThrust{Value: 100})
	require.NoError(t, err)

	_, err = st.Series("bogus", SeriesOptions{})
	assert.ErrorIs(t, err, ErrUnknownSeries)

	_, err = st.Series(SeriesSpecificImpulse, SeriesOptions{})
	assert.ErrorIs(t, err, ErrInputsRequired)

	_, err = st.Series(SeriesCharacteristicVc, SeriesOptions{Inputs: &performance.Inputs{FuelMassFlow: 1, OxidizerMassFlow: 1}})
	assert.ErrorIs(t, err, performance.ErrInvalidThroatArea)

	_, err = Empty().Series(SeriesThrust, SeriesOptions{})
	assert.ErrorIs(t, err, ErrNotLoaded)

	a := st.Assignment.Clone()
	a.FuelWeight = ""
	partial, err := st.WithColumns(a)
	require.NoError(t, err)
	_, err = partial.Series(SeriesOFRatio, SeriesOptions{})
	assert.ErrorIs(t, err, ErrSeriesUnavailable)
}

func TestPerformanceSeries(t *testing.T) {
	st, err := loadedState(t).WithMode(burn.TargetThrust{Value: 100})
	require.NoError(t, err)
	in := &performance.Inputs{FuelMassFlow: 1, OxidizerMassFlow: 1, ThroatArea: 0.01}

	isp, err := st.Series(SeriesSpecificImpulse, SeriesOptions{Core: true, Inputs: in})
	require.NoError(t, err)
	// 100 lbf over 2 lb/s
	assert.InDelta(t, 50.0, isp.Values[1], 1e-9)

	ve, err := st.Series(SeriesExhaustVelocity, SeriesOptions{Core: true, Inputs: in})
	require.NoError(t, err)
	assert.InDelta(t, 50.0*9.80665, ve.Values[1], 1e-9)
	assert.Equal(t, "Exhaust Velocity (m/s)", ve.YLabel)
}

func TestAvailableSeries(t *testing.T) {
	st := loadedState(t)

	assert.Equal(t, []SeriesName{
		SeriesThrust, SeriesChamberPressure, SeriesOFRatio,
		SeriesFuelWeight, SeriesOxidizerWeight, SeriesTotalThrustRaw,
	}, st.AvailableSeries(nil))

	in := &performance.Inputs{FuelMassFlow: 1, OxidizerMassFlow: 2}
	assert.Contains(t, st.AvailableSeries(in), SeriesSpecificImpulse)
	assert.NotContains(t, st.AvailableSeries(in), SeriesCharacteristicVc)
	in.ThroatArea = 0.01
	assert.Contains(t, st.AvailableSeries(in), SeriesCharacteristicVc)
	assert.Nil(t, Empty().AvailableSeries(in))
}

func TestStatistics(t *testing.T) {
	ready := loadedState(t)
	assert.Nil(t, ready.Statistics())

	st, err := ready.WithMode(burn.TargetThrust{Value: 100})
	require.NoError(t, err)

	stats := st.Statistics()
	require.NotEmpty(t, stats)
	assert.Equal(t, "Total Thrust", stats[0].Channel)
	assert.InDelta(t, 220.0/3, stats[0].Stats.Mean, 1e-9)
	assert.Equal(t, 100.0, stats[0].Stats.Max)
}

func TestErrorKindWrapping(t *testing.T) {
	st, err := loadedState(t).WithMode(burn.TargetThrust{Value: 0})
	require.NoError(t, err)
	assert.True(t, errors.Is(st.Err, burn.ErrInvalidTarget))
}
